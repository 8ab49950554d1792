package repo

import (
	"context"
	"database/sql"

	"vazifabot/internal/database"
)

// Save persists the current state. Calls are queued: all callers waiting when
// a drain round starts are coalesced into one physical snapshot write and
// share its outcome, and a write already in progress defers newly queued
// calls to the next round. A failed write rejects every coalesced caller; the
// in-memory mutation stays as state that may not survive a restart.
func (r *Repository) Save(ctx context.Context) error {
	done := make(chan error, 1)

	r.saveMu.Lock()
	r.pending = append(r.pending, done)
	if !r.saving {
		r.saving = true
		go r.drain()
	}
	r.saveMu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		// The write itself still runs to completion; only this caller stops
		// waiting for it.
		return ctx.Err()
	}
}

func (r *Repository) drain() {
	for {
		r.saveMu.Lock()
		if len(r.pending) == 0 {
			r.saving = false
			r.saveMu.Unlock()
			return
		}
		waiters := r.pending
		r.pending = nil
		r.saveMu.Unlock()

		snap := r.snapshot()
		err := r.store.WriteSnapshot(context.Background(), snap)
		if err != nil {
			r.logger.Error("Snapshot write failed", "error", err, "waiters", len(waiters))
		} else {
			r.logger.Debug("Snapshot written", "coalesced_callers", len(waiters))
		}
		for _, w := range waiters {
			w <- err
		}
	}
}

// Flush performs one final save; call it during shutdown.
func (r *Repository) Flush(ctx context.Context) error {
	return r.Save(ctx)
}

func (r *Repository) snapshot() *database.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	snap := &database.Snapshot{}

	for _, u := range r.users {
		row := database.UserRow{
			ID:             u.ID,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			Username:       u.Username,
			PrayerRegion:   u.Prefs.PrayerRegion,
			TaskAlerts:     u.Prefs.TaskAlerts,
			PrayerAlerts:   u.Prefs.PrayerAlerts,
			RegisteredAt:   u.Activity.RegisteredAt,
			LastSeen:       u.Activity.LastSeen,
			BlockedBot:     u.Activity.BlockedBot,
			TasksCreated:   u.Activity.TasksCreated,
			TasksCompleted: u.Activity.TasksCompleted,
		}
		if u.Activity.BlockedAt != nil {
			row.BlockedAt = sql.NullTime{Time: *u.Activity.BlockedAt, Valid: true}
		}
		snap.Users = append(snap.Users, row)

		for _, t := range u.Tasks {
			snap.Tasks = append(snap.Tasks, taskRow(t, u.ID))
		}

		for day, flags := range u.PrayerSent {
			for flag := range flags {
				snap.PrayerFlags = append(snap.PrayerFlags, database.PrayerFlagRow{
					UserID: u.ID,
					Day:    day,
					Flag:   flag,
					SentAt: now,
				})
			}
		}
	}

	for _, team := range r.teams {
		snap.Teams = append(snap.Teams, database.TeamRow{
			ID:        team.ID,
			Name:      team.Name,
			AdminID:   team.Admin,
			CreatedAt: team.CreatedAt,
		})
		for _, m := range team.Members {
			snap.Members = append(snap.Members, database.MemberRow{
				TeamID:   team.ID,
				UserID:   m,
				JoinedAt: team.CreatedAt,
			})
		}
		for _, t := range team.SharedTasks {
			row := taskRow(&t.Task, 0)
			row.TeamID = team.ID
			row.CreatedBy = t.CreatedBy
			row.AssignedTo = t.AssignedTo
			row.CompletedBy = t.CompletedBy
			row.CompletionNote = t.CompletionNote
			snap.Tasks = append(snap.Tasks, row)
		}
	}

	return snap
}

func taskRow(t *Task, userID int64) database.TaskRow {
	row := database.TaskRow{
		ID:        t.ID,
		UserID:    userID,
		Name:      t.Name,
		Notes:     t.Notes,
		Category:  t.Category,
		Priority:  string(t.Priority),
		DueAt:     t.Due,
		CreatedAt: t.CreatedAt,
		Completed: t.Completed,
		Sent1Day:  t.Reminders.Sent1Day,
		Sent1Hour: t.Reminders.Sent1Hour,
		Sent15Min: t.Reminders.Sent15Min,
		SentDue:   t.Reminders.SentDue,
	}
	if t.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: *t.CompletedAt, Valid: true}
	}
	return row
}
