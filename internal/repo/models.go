// Package repo holds the bot's domain state in memory and persists it through
// a queued, coalescing snapshot save. All reads and mutations go through the
// Repository so the notification sweep and the interaction handlers never see
// partially updated state.
package repo

import "time"

// Priority of a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// AssignAnyone marks a shared task any member may complete.
const AssignAnyone = "anyone"

// Reminders tracks which lead-interval notifications have been sent for a
// task. Flags are monotonic: the sweep only ever sets them.
type Reminders struct {
	Sent1Day  bool
	Sent1Hour bool
	Sent15Min bool
	SentDue   bool
}

// Task is one personal task on a user's list.
type Task struct {
	ID          int64
	Name        string
	Due         time.Time
	Category    string
	Priority    Priority
	Notes       string
	Completed   bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	Reminders   Reminders
}

// TeamTask is a task on a team's shared list. AssignedTo is empty for
// unassigned tasks, AssignAnyone, or a decimal user id.
type TeamTask struct {
	Task
	TeamID         string
	CreatedBy      int64
	AssignedTo     string
	CompletedBy    int64
	CompletionNote string
}

// Preferences is fully populated at user creation; there are no optional
// fields to probe at read sites.
type Preferences struct {
	PrayerRegion string
	TaskAlerts   bool
	PrayerAlerts bool
}

// Activity tracks user lifecycle and counters. BlockedBot is set only by the
// notification sweep's send-failure classifier and cleared when the user
// comes back on their own.
type Activity struct {
	RegisteredAt   time.Time
	LastSeen       time.Time
	BlockedBot     bool
	BlockedAt      *time.Time
	TasksCreated   int
	TasksCompleted int
}

// User is one bot user with their tasks, team memberships, and per-day prayer
// reminder flags (day -> "<prayer>_<interval>" -> sent).
type User struct {
	ID         int64
	FirstName  string
	LastName   string
	Username   string
	Tasks      []*Task
	Teams      []string
	Prefs      Preferences
	Activity   Activity
	PrayerSent map[string]map[string]bool
}

// Team is a code-joinable group sharing a task list. The id is the 6-character
// join code.
type Team struct {
	ID          string
	Name        string
	Admin       int64
	Members     []int64
	SharedTasks []*TeamTask
	CreatedAt   time.Time
}

// Stats summarizes repository contents for the /stats command.
type Stats struct {
	TotalUsers     int
	BlockedUsers   int
	TotalTasks     int
	CompletedTasks int
	TotalTeams     int
}

// TaskView is a read-only copy of a task handed to the notification sweep.
type TaskView struct {
	ID        int64
	Name      string
	Due       time.Time
	Category  string
	Priority  Priority
	Reminders Reminders
}

// UserView is a read-only copy of the fields the notification sweep needs.
type UserView struct {
	ID           int64
	Blocked      bool
	TaskAlerts   bool
	PrayerAlerts bool
	PrayerRegion string
	Tasks        []TaskView
}
