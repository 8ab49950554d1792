package repo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"vazifabot/internal/database"
)

// Sentinel errors for domain operations.
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTeamNotFound  = errors.New("team not found")
	ErrAlreadyMember = errors.New("user already in team")
	ErrNotMember     = errors.New("user not in team")
)

// DefaultRegion is applied to new users until they pick one.
const DefaultRegion = "Toshkent"

const teamCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Repository holds all users and teams in memory. Mutations take the write
// lock; the notification sweep reads through copied views so it never holds
// the lock across network calls.
type Repository struct {
	logger *slog.Logger
	store  database.Store
	now    func() time.Time

	mu            sync.RWMutex
	users         map[int64]*User
	teams         map[string]*Team
	nextTaskID    int64
	defaultRegion string

	saveMu  sync.Mutex
	pending []chan error
	saving  bool
}

// New creates an empty repository backed by the given snapshot store.
func New(logger *slog.Logger, store database.Store) *Repository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{
		logger:        logger.With("component", "repository"),
		store:         store,
		now:           time.Now,
		users:         make(map[int64]*User),
		teams:         make(map[string]*Team),
		nextTaskID:    1,
		defaultRegion: DefaultRegion,
	}
}

// SetDefaultRegion overrides the region assigned to new users. Called once
// during startup, before any handlers run.
func (r *Repository) SetDefaultRegion(region string) {
	if region != "" {
		r.defaultRegion = region
	}
}

// Load replaces the in-memory state with the persisted snapshot. Called once
// at startup before any handlers run.
func (r *Repository) Load(ctx context.Context) error {
	snap, err := r.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[int64]*User, len(snap.Users))
	r.teams = make(map[string]*Team, len(snap.Teams))
	r.nextTaskID = 1

	for _, row := range snap.Users {
		u := &User{
			ID:        row.ID,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Username:  row.Username,
			Prefs: Preferences{
				PrayerRegion: row.PrayerRegion,
				TaskAlerts:   row.TaskAlerts,
				PrayerAlerts: row.PrayerAlerts,
			},
			Activity: Activity{
				RegisteredAt:   row.RegisteredAt,
				LastSeen:       row.LastSeen,
				BlockedBot:     row.BlockedBot,
				TasksCreated:   row.TasksCreated,
				TasksCompleted: row.TasksCompleted,
			},
			PrayerSent: make(map[string]map[string]bool),
		}
		if row.BlockedAt.Valid {
			at := row.BlockedAt.Time
			u.Activity.BlockedAt = &at
		}
		r.users[row.ID] = u
	}

	for _, row := range snap.Teams {
		r.teams[row.ID] = &Team{
			ID:        row.ID,
			Name:      row.Name,
			Admin:     row.AdminID,
			CreatedAt: row.CreatedAt,
		}
	}

	for _, row := range snap.Members {
		team, ok := r.teams[row.TeamID]
		if !ok {
			continue
		}
		team.Members = append(team.Members, row.UserID)
		if u, ok := r.users[row.UserID]; ok {
			u.Teams = append(u.Teams, row.TeamID)
		}
	}

	for _, row := range snap.Tasks {
		if row.ID >= r.nextTaskID {
			r.nextTaskID = row.ID + 1
		}
		task := Task{
			ID:        row.ID,
			Name:      row.Name,
			Due:       row.DueAt,
			Category:  row.Category,
			Priority:  Priority(row.Priority),
			Notes:     row.Notes,
			Completed: row.Completed,
			CreatedAt: row.CreatedAt,
			Reminders: Reminders{
				Sent1Day:  row.Sent1Day,
				Sent1Hour: row.Sent1Hour,
				Sent15Min: row.Sent15Min,
				SentDue:   row.SentDue,
			},
		}
		if row.CompletedAt.Valid {
			at := row.CompletedAt.Time
			task.CompletedAt = &at
		}

		if row.TeamID != "" {
			if team, ok := r.teams[row.TeamID]; ok {
				team.SharedTasks = append(team.SharedTasks, &TeamTask{
					Task:           task,
					TeamID:         row.TeamID,
					CreatedBy:      row.CreatedBy,
					AssignedTo:     row.AssignedTo,
					CompletedBy:    row.CompletedBy,
					CompletionNote: row.CompletionNote,
				})
			}
			continue
		}
		if u, ok := r.users[row.UserID]; ok {
			t := task
			u.Tasks = append(u.Tasks, &t)
		}
	}

	for _, row := range snap.PrayerFlags {
		u, ok := r.users[row.UserID]
		if !ok {
			continue
		}
		day := u.PrayerSent[row.Day]
		if day == nil {
			day = make(map[string]bool)
			u.PrayerSent[row.Day] = day
		}
		day[row.Flag] = true
	}

	r.logger.Info("Repository loaded",
		"users", len(r.users), "teams", len(r.teams), "next_task_id", r.nextTaskID)
	return nil
}

// EnsureUser lazily initializes the user record with fully populated default
// preferences and records the interaction. A blocked user who shows up again
// is unblocked: reaching us at all means the bot can reach them back.
func (r *Repository) EnsureUser(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touchLocked(r.ensureUserLocked(userID))
}

// ensureUserLocked is get-or-create only. It must not record an interaction:
// reads and sweep-side mutations go through here too, and only the user
// showing up in person may lift the blocked quarantine.
func (r *Repository) ensureUserLocked(userID int64) *User {
	u, ok := r.users[userID]
	if !ok {
		now := r.now()
		u = &User{
			ID: userID,
			Prefs: Preferences{
				PrayerRegion: r.defaultRegion,
				TaskAlerts:   true,
				PrayerAlerts: true,
			},
			Activity: Activity{
				RegisteredAt: now,
				LastSeen:     now,
			},
			PrayerSent: make(map[string]map[string]bool),
		}
		r.users[userID] = u
		r.logger.Info("New user registered", "user_id", userID)
	}
	return u
}

// touchLocked records a user-initiated interaction: bumps LastSeen and lifts
// the blocked quarantine.
func (r *Repository) touchLocked(u *User) {
	u.Activity.LastSeen = r.now()
	if u.Activity.BlockedBot {
		u.Activity.BlockedBot = false
		u.Activity.BlockedAt = nil
		r.logger.Info("User unblocked after re-engaging", "user_id", u.ID)
	}
}

// UpdateIdentity refreshes the Telegram profile fields on the user record.
func (r *Repository) UpdateIdentity(userID int64, firstName, lastName, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.ensureUserLocked(userID)
	r.touchLocked(u)
	u.FirstName = firstName
	u.LastName = lastName
	u.Username = username
}

// UserSnapshot returns a deep copy of the user record for rendering.
func (r *Repository) UserSnapshot(userID int64) User {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.ensureUserLocked(userID)
	out := *u
	out.Tasks = make([]*Task, len(u.Tasks))
	for i, t := range u.Tasks {
		c := *t
		out.Tasks[i] = &c
	}
	out.Teams = append([]string(nil), u.Teams...)
	out.PrayerSent = nil
	return out
}

// AddTask appends a task to the user's list and bumps the created counter.
func (r *Repository) AddTask(userID int64, name string, due time.Time, category string, priority Priority, notes string) Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.ensureUserLocked(userID)
	task := &Task{
		ID:        r.nextTaskID,
		Name:      name,
		Due:       due,
		Category:  category,
		Priority:  priority,
		Notes:     notes,
		CreatedAt: r.now(),
	}
	r.nextTaskID++
	u.Tasks = append(u.Tasks, task)
	u.Activity.TasksCreated++

	r.logger.Info("Task created", "user_id", userID, "task_id", task.ID, "due", due)
	return *task
}

// CompleteTask marks the task done and bumps the completed counter.
func (r *Repository) CompleteTask(userID, taskID int64) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.ensureUserLocked(userID)
	for _, t := range u.Tasks {
		if t.ID != taskID {
			continue
		}
		if !t.Completed {
			t.Completed = true
			at := r.now()
			t.CompletedAt = &at
			u.Activity.TasksCompleted++
		}
		return *t, nil
	}
	return Task{}, fmt.Errorf("%w: user %d task %d", ErrTaskNotFound, userID, taskID)
}

// DeleteTask removes the task from the user's list.
func (r *Repository) DeleteTask(userID, taskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.ensureUserLocked(userID)
	for i, t := range u.Tasks {
		if t.ID == taskID {
			u.Tasks = append(u.Tasks[:i], u.Tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: user %d task %d", ErrTaskNotFound, userID, taskID)
}

// SetRegion updates the user's prayer region.
func (r *Repository) SetRegion(userID int64, region string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureUserLocked(userID).Prefs.PrayerRegion = region
}

// ToggleTaskAlerts flips the task notification preference and returns the new
// value.
func (r *Repository) ToggleTaskAlerts(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.ensureUserLocked(userID)
	u.Prefs.TaskAlerts = !u.Prefs.TaskAlerts
	return u.Prefs.TaskAlerts
}

// TogglePrayerAlerts flips the prayer notification preference and returns the
// new value.
func (r *Repository) TogglePrayerAlerts(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.ensureUserLocked(userID)
	u.Prefs.PrayerAlerts = !u.Prefs.PrayerAlerts
	return u.Prefs.PrayerAlerts
}

// DisablePrayerAlerts turns prayer notifications off.
func (r *Repository) DisablePrayerAlerts(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureUserLocked(userID).Prefs.PrayerAlerts = false
}

// MarkBlocked quarantines a permanently unreachable user: the blocked flag
// goes up and every notification preference is forced off, so future sweeps
// skip them entirely.
func (r *Repository) MarkBlocked(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return
	}
	at := r.now()
	u.Activity.BlockedBot = true
	u.Activity.BlockedAt = &at
	u.Prefs.TaskAlerts = false
	u.Prefs.PrayerAlerts = false
	r.logger.Info("User marked as blocked", "user_id", userID)
}

// CreateTeam creates a team with a fresh 6-character code, regenerating on
// collision, and enrolls the admin as the first member.
func (r *Repository) CreateTeam(name string, adminID int64) Team {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin := r.ensureUserLocked(adminID)

	var code string
	for {
		code = randomTeamCode()
		if _, exists := r.teams[code]; !exists {
			break
		}
	}

	team := &Team{
		ID:        code,
		Name:      name,
		Admin:     adminID,
		Members:   []int64{adminID},
		CreatedAt: r.now(),
	}
	r.teams[code] = team
	admin.Teams = append(admin.Teams, code)

	r.logger.Info("Team created", "team_id", code, "name", name, "admin", adminID)
	return copyTeam(team)
}

// Team returns a copy of the team, or false when no such code exists.
func (r *Repository) Team(teamID string) (Team, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	team, ok := r.teams[teamID]
	if !ok {
		return Team{}, false
	}
	return copyTeam(team), true
}

// JoinTeam adds the user to the team, updating the membership list and the
// user's team list together so the two sides never diverge.
func (r *Repository) JoinTeam(teamID string, userID int64) (Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return Team{}, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	for _, m := range team.Members {
		if m == userID {
			return Team{}, fmt.Errorf("%w: user %d in team %s", ErrAlreadyMember, userID, teamID)
		}
	}

	u := r.ensureUserLocked(userID)
	team.Members = append(team.Members, userID)
	u.Teams = append(u.Teams, teamID)

	r.logger.Info("User joined team", "team_id", teamID, "user_id", userID)
	return copyTeam(team), nil
}

// LeaveTeam removes the user from both membership sides. A departing admin
// hands the team to an arbitrary remaining member; an emptied team is
// deleted. Returns true when the team was deleted.
func (r *Repository) LeaveTeam(teamID string, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}

	idx := -1
	for i, m := range team.Members {
		if m == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, fmt.Errorf("%w: user %d in team %s", ErrNotMember, userID, teamID)
	}

	team.Members = append(team.Members[:idx], team.Members[idx+1:]...)
	if u, ok := r.users[userID]; ok {
		for i, id := range u.Teams {
			if id == teamID {
				u.Teams = append(u.Teams[:i], u.Teams[i+1:]...)
				break
			}
		}
	}

	if len(team.Members) == 0 {
		delete(r.teams, teamID)
		r.logger.Info("Team deleted, no members left", "team_id", teamID)
		return true, nil
	}

	if team.Admin == userID {
		team.Admin = team.Members[0]
		r.logger.Info("Team admin reassigned", "team_id", teamID, "new_admin", team.Admin)
	}

	r.logger.Info("User left team", "team_id", teamID, "user_id", userID)
	return false, nil
}

// AddTeamTask appends a task to the team's shared list.
func (r *Repository) AddTeamTask(teamID string, createdBy int64, name string, due time.Time, priority Priority, assignedTo string) (TeamTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return TeamTask{}, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}

	task := &TeamTask{
		Task: Task{
			ID:        r.nextTaskID,
			Name:      name,
			Due:       due,
			Category:  "team",
			Priority:  priority,
			CreatedAt: r.now(),
		},
		TeamID:     teamID,
		CreatedBy:  createdBy,
		AssignedTo: assignedTo,
	}
	r.nextTaskID++
	team.SharedTasks = append(team.SharedTasks, task)

	r.logger.Info("Team task created", "team_id", teamID, "task_id", task.ID, "created_by", createdBy)
	return *task, nil
}

// CompleteTeamTask marks a shared task done, recording who finished it and an
// optional completion note.
func (r *Repository) CompleteTeamTask(teamID string, taskID, userID int64, note string) (TeamTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	team, ok := r.teams[teamID]
	if !ok {
		return TeamTask{}, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	for _, t := range team.SharedTasks {
		if t.ID != taskID {
			continue
		}
		if !t.Completed {
			t.Completed = true
			at := r.now()
			t.CompletedAt = &at
			t.CompletedBy = userID
			t.CompletionNote = note
			if u, ok := r.users[userID]; ok {
				u.Activity.TasksCompleted++
			}
		}
		return *t, nil
	}
	return TeamTask{}, fmt.Errorf("%w: team %s task %d", ErrTaskNotFound, teamID, taskID)
}

// MarkTaskReminder sets the sent flag for one task interval. Flags are never
// cleared here; monotonicity is what makes the sweep idempotent per interval.
func (r *Repository) MarkTaskReminder(userID, taskID int64, interval string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return
	}
	for _, t := range u.Tasks {
		if t.ID != taskID {
			continue
		}
		switch interval {
		case "1day":
			t.Reminders.Sent1Day = true
		case "1hour":
			t.Reminders.Sent1Hour = true
		case "15min":
			t.Reminders.Sent15Min = true
		case "due":
			t.Reminders.SentDue = true
		}
		return
	}
}

// PrayerSentAlready reports whether the prayer reminder was already delivered
// for the given day and "<prayer>_<interval>" key.
func (r *Repository) PrayerSentAlready(userID int64, day, key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return false
	}
	return u.PrayerSent[day][key]
}

// MarkPrayerSent records a delivered prayer reminder for the day.
func (r *Repository) MarkPrayerSent(userID int64, day, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return
	}
	flags := u.PrayerSent[day]
	if flags == nil {
		flags = make(map[string]bool)
		u.PrayerSent[day] = flags
	}
	flags[key] = true
}

// PrunePrayerFlags drops per-day prayer flags for days before the given
// YYYY-MM-DD day. Day keys embed the date, so this is purely a growth bound,
// never a correctness requirement.
func (r *Repository) PrunePrayerFlags(beforeDay string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for _, u := range r.users {
		for day := range u.PrayerSent {
			if day < beforeDay {
				delete(u.PrayerSent, day)
				pruned++
			}
		}
	}
	if pruned > 0 {
		r.logger.Info("Pruned stale prayer flags", "days_removed", pruned)
	}
	return pruned
}

// NotificationTargets returns copied views of every user for one sweep pass.
// Copies keep the sweep off the repository lock while it talks to the network.
func (r *Repository) NotificationTargets() []UserView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]UserView, 0, len(r.users))
	for _, u := range r.users {
		view := UserView{
			ID:           u.ID,
			Blocked:      u.Activity.BlockedBot,
			TaskAlerts:   u.Prefs.TaskAlerts,
			PrayerAlerts: u.Prefs.PrayerAlerts,
			PrayerRegion: u.Prefs.PrayerRegion,
		}
		for _, t := range u.Tasks {
			if t.Completed {
				continue
			}
			view.Tasks = append(view.Tasks, TaskView{
				ID:        t.ID,
				Name:      t.Name,
				Due:       t.Due,
				Category:  t.Category,
				Priority:  t.Priority,
				Reminders: t.Reminders,
			})
		}
		out = append(out, view)
	}
	return out
}

// Stats counts repository contents.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{TotalUsers: len(r.users), TotalTeams: len(r.teams)}
	for _, u := range r.users {
		if u.Activity.BlockedBot {
			s.BlockedUsers++
		}
		for _, t := range u.Tasks {
			s.TotalTasks++
			if t.Completed {
				s.CompletedTasks++
			}
		}
	}
	for _, team := range r.teams {
		for _, t := range team.SharedTasks {
			s.TotalTasks++
			if t.Completed {
				s.CompletedTasks++
			}
		}
	}
	return s
}

func copyTeam(team *Team) Team {
	out := *team
	out.Members = append([]int64(nil), team.Members...)
	out.SharedTasks = make([]*TeamTask, len(team.SharedTasks))
	for i, t := range team.SharedTasks {
		c := *t
		out.SharedTasks[i] = &c
	}
	return out
}

func randomTeamCode() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = teamCodeAlphabet[rand.IntN(len(teamCodeAlphabet))]
	}
	return string(b)
}
