package database

import (
	"database/sql"
	"time"
)

// UserRow mirrors one row of the users table.
type UserRow struct {
	ID             int64        `db:"id"`
	FirstName      string       `db:"first_name"`
	LastName       string       `db:"last_name"`
	Username       string       `db:"username"`
	PrayerRegion   string       `db:"prayer_region"`
	TaskAlerts     bool         `db:"task_alerts"`
	PrayerAlerts   bool         `db:"prayer_alerts"`
	RegisteredAt   time.Time    `db:"registered_at"`
	LastSeen       time.Time    `db:"last_seen"`
	BlockedBot     bool         `db:"blocked_bot"`
	BlockedAt      sql.NullTime `db:"blocked_at"`
	TasksCreated   int          `db:"tasks_created"`
	TasksCompleted int          `db:"tasks_completed"`
}

// TaskRow mirrors one row of the tasks table. Personal tasks carry a user_id
// and an empty team_id; shared team tasks carry a team_id and a zero user_id.
type TaskRow struct {
	ID             int64        `db:"id"`
	UserID         int64        `db:"user_id"`
	TeamID         string       `db:"team_id"`
	Name           string       `db:"name"`
	Notes          string       `db:"notes"`
	Category       string       `db:"category"`
	Priority       string       `db:"priority"`
	DueAt          time.Time    `db:"due_at"`
	CreatedAt      time.Time    `db:"created_at"`
	Completed      bool         `db:"completed"`
	CompletedAt    sql.NullTime `db:"completed_at"`
	CreatedBy      int64        `db:"created_by"`
	AssignedTo     string       `db:"assigned_to"`
	CompletedBy    int64        `db:"completed_by"`
	CompletionNote string       `db:"completion_note"`
	Sent1Day       bool         `db:"sent_1day"`
	Sent1Hour      bool         `db:"sent_1hour"`
	Sent15Min      bool         `db:"sent_15min"`
	SentDue        bool         `db:"sent_due"`
}

// TeamRow mirrors one row of the teams table.
type TeamRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	AdminID   int64     `db:"admin_id"`
	CreatedAt time.Time `db:"created_at"`
}

// MemberRow mirrors one row of the team_members table.
type MemberRow struct {
	TeamID   string    `db:"team_id"`
	UserID   int64     `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}

// PrayerFlagRow records one delivered prayer reminder. Flag is the
// "<prayer>_<interval>" key and Day is a YYYY-MM-DD date.
type PrayerFlagRow struct {
	UserID int64     `db:"user_id"`
	Day    string    `db:"day"`
	Flag   string    `db:"flag"`
	SentAt time.Time `db:"sent_at"`
}

// Snapshot is the full persisted state of the bot, written and loaded as a
// unit by the repository's save queue.
type Snapshot struct {
	Users       []UserRow
	Tasks       []TaskRow
	Teams       []TeamRow
	Members     []MemberRow
	PrayerFlags []PrayerFlagRow
}
