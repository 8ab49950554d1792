package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"vazifabot/internal/database"
)

// fakeStore records snapshot writes and serves a canned snapshot on load.
type fakeStore struct {
	mu        sync.Mutex
	writes    int
	last      *database.Snapshot
	loadSnap  *database.Snapshot
	writeErr  error
	writeHold chan struct{}
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) LoadSnapshot(ctx context.Context) (*database.Snapshot, error) {
	if f.loadSnap != nil {
		return f.loadSnap, nil
	}
	return &database.Snapshot{}, nil
}

func (f *fakeStore) WriteSnapshot(ctx context.Context, snap *database.Snapshot) error {
	if f.writeHold != nil {
		<-f.writeHold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.last = snap
	return f.writeErr
}

func (f *fakeStore) RunSQLMaintenance(ctx context.Context) error { return nil }

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func newTestRepo(t *testing.T) (*Repository, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	r := New(nil, store)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r, store
}

func TestEnsureUserDefaults(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)

	r.EnsureUser(10)
	u := r.UserSnapshot(10)

	if u.Prefs.PrayerRegion != DefaultRegion {
		t.Errorf("PrayerRegion = %q, want %q", u.Prefs.PrayerRegion, DefaultRegion)
	}
	if !u.Prefs.TaskAlerts || !u.Prefs.PrayerAlerts {
		t.Errorf("alerts = (%v, %v), want both on", u.Prefs.TaskAlerts, u.Prefs.PrayerAlerts)
	}
	if u.Activity.RegisteredAt.IsZero() {
		t.Error("RegisteredAt not set")
	}
}

func TestEnsureUserUnblocksReturningUser(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)

	r.EnsureUser(10)
	r.MarkBlocked(10)

	u := r.UserSnapshot(10)
	if !u.Activity.BlockedBot {
		t.Fatal("MarkBlocked did not set the flag")
	}
	if u.Prefs.TaskAlerts || u.Prefs.PrayerAlerts {
		t.Error("MarkBlocked should force alert preferences off")
	}

	r.EnsureUser(10)
	u = r.UserSnapshot(10)
	if u.Activity.BlockedBot {
		t.Error("returning user should be unblocked")
	}
	if u.Activity.BlockedAt != nil {
		t.Error("BlockedAt should be cleared")
	}
}

func TestUserSnapshotKeepsQuarantine(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	r.EnsureUser(10)
	r.MarkBlocked(10)

	// Rendering a profile or sweeping is not the user re-engaging; repeated
	// reads must leave the quarantine and LastSeen untouched.
	r.now = func() time.Time { return base.Add(time.Hour) }
	for i := 0; i < 3; i++ {
		u := r.UserSnapshot(10)
		if !u.Activity.BlockedBot {
			t.Fatal("snapshot read lifted the blocked quarantine")
		}
		if !u.Activity.LastSeen.Equal(base) {
			t.Fatalf("snapshot read bumped LastSeen to %v", u.Activity.LastSeen)
		}
	}

	for _, target := range r.NotificationTargets() {
		if target.ID == 10 && !target.Blocked {
			t.Error("sweep target lost the blocked flag after snapshot reads")
		}
	}

	// Only the user coming back lifts it.
	r.EnsureUser(10)
	if u := r.UserSnapshot(10); u.Activity.BlockedBot {
		t.Error("returning user should be unblocked")
	}
}

func TestTaskLifecycle(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)
	due := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)

	task := r.AddTask(10, "report", due, "ish", PriorityHigh, "")
	if task.ID == 0 {
		t.Fatal("AddTask assigned no id")
	}

	second := r.AddTask(10, "call", due, "", PriorityLow, "")
	if second.ID == task.ID {
		t.Fatal("task ids must be unique")
	}

	done, err := r.CompleteTask(10, task.ID)
	if err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil {
		t.Error("CompleteTask did not mark completion")
	}

	u := r.UserSnapshot(10)
	if u.Activity.TasksCreated != 2 || u.Activity.TasksCompleted != 1 {
		t.Errorf("counters = (%d, %d), want (2, 1)", u.Activity.TasksCreated, u.Activity.TasksCompleted)
	}

	if err := r.DeleteTask(10, second.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := r.DeleteTask(10, second.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("second delete = %v, want ErrTaskNotFound", err)
	}
	if _, err := r.CompleteTask(10, 999); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("complete missing = %v, want ErrTaskNotFound", err)
	}
}

func TestMarkTaskReminderMonotonic(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)
	task := r.AddTask(10, "x", time.Now().Add(time.Hour), "", PriorityMedium, "")

	r.MarkTaskReminder(10, task.ID, "1hour")
	r.MarkTaskReminder(10, task.ID, "due")

	u := r.UserSnapshot(10)
	rem := u.Tasks[0].Reminders
	if !rem.Sent1Hour || !rem.SentDue {
		t.Errorf("reminders = %+v, want 1hour and due set", rem)
	}
	if rem.Sent1Day || rem.Sent15Min {
		t.Errorf("reminders = %+v, unexpected flags set", rem)
	}
}

func TestTeamLifecycle(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)

	team := r.CreateTeam("loyiha", 1)
	if len(team.ID) != 6 {
		t.Fatalf("team code %q, want 6 characters", team.ID)
	}
	if team.Admin != 1 || len(team.Members) != 1 {
		t.Fatalf("creator not admin member: %+v", team)
	}

	joined, err := r.JoinTeam(team.ID, 2)
	if err != nil {
		t.Fatalf("JoinTeam: %v", err)
	}
	if len(joined.Members) != 2 {
		t.Errorf("members = %d, want 2", len(joined.Members))
	}
	if _, err := r.JoinTeam(team.ID, 2); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("rejoin = %v, want ErrAlreadyMember", err)
	}
	if _, err := r.JoinTeam("ZZZZZZ", 3); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("join unknown = %v, want ErrTeamNotFound", err)
	}

	u := r.UserSnapshot(2)
	if len(u.Teams) != 1 || u.Teams[0] != team.ID {
		t.Errorf("user teams = %v, want [%s]", u.Teams, team.ID)
	}

	// Admin leaves, the remaining member inherits the role.
	deleted, err := r.LeaveTeam(team.ID, 1)
	if err != nil || deleted {
		t.Fatalf("LeaveTeam(admin) = (%v, %v), want (false, nil)", deleted, err)
	}
	got, ok := r.Team(team.ID)
	if !ok || got.Admin != 2 {
		t.Errorf("admin after reassignment = %d, want 2", got.Admin)
	}

	// Last member leaves, the team is deleted.
	deleted, err = r.LeaveTeam(team.ID, 2)
	if err != nil || !deleted {
		t.Fatalf("LeaveTeam(last) = (%v, %v), want (true, nil)", deleted, err)
	}
	if _, ok := r.Team(team.ID); ok {
		t.Error("team should be gone")
	}
	if _, err := r.LeaveTeam(team.ID, 2); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("leave deleted team = %v, want ErrTeamNotFound", err)
	}
}

func TestTeamTasks(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)
	team := r.CreateTeam("loyiha", 1)
	due := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

	task, err := r.AddTeamTask(team.ID, 1, "umumiy", due, PriorityMedium, AssignAnyone)
	if err != nil {
		t.Fatalf("AddTeamTask: %v", err)
	}

	done, err := r.CompleteTeamTask(team.ID, task.ID, 1, "tayyor")
	if err != nil {
		t.Fatalf("CompleteTeamTask: %v", err)
	}
	if !done.Completed || done.CompletedBy != 1 || done.CompletionNote != "tayyor" {
		t.Errorf("completed team task = %+v", done)
	}

	if _, err := r.AddTeamTask("ZZZZZZ", 1, "x", due, PriorityLow, ""); !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("AddTeamTask unknown team = %v, want ErrTeamNotFound", err)
	}
	if _, err := r.CompleteTeamTask(team.ID, 999, 1, ""); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("CompleteTeamTask missing = %v, want ErrTaskNotFound", err)
	}
}

func TestPrayerFlags(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)
	r.EnsureUser(10)

	if r.PrayerSentAlready(10, "2026-08-31", "Fajr_15min") {
		t.Fatal("fresh flag reported as sent")
	}
	r.MarkPrayerSent(10, "2026-08-31", "Fajr_15min")
	if !r.PrayerSentAlready(10, "2026-08-31", "Fajr_15min") {
		t.Fatal("flag not sticky")
	}
	if r.PrayerSentAlready(10, "2026-08-31", "Fajr_5min") {
		t.Error("different interval must track separately")
	}

	r.MarkPrayerSent(10, "2026-08-20", "Isha_5min")
	pruned := r.PrunePrayerFlags("2026-08-24")
	if pruned != 1 {
		t.Errorf("PrunePrayerFlags = %d, want 1", pruned)
	}
	if !r.PrayerSentAlready(10, "2026-08-31", "Fajr_15min") {
		t.Error("recent flag must survive pruning")
	}
}

func TestNotificationTargetsSkipCompleted(t *testing.T) {
	t.Parallel()
	r, _ := newTestRepo(t)

	task := r.AddTask(10, "a", time.Now().Add(time.Hour), "", PriorityMedium, "")
	doneTask := r.AddTask(10, "b", time.Now().Add(time.Hour), "", PriorityMedium, "")
	if _, err := r.CompleteTask(10, doneTask.ID); err != nil {
		t.Fatal(err)
	}

	targets := r.NotificationTargets()
	if len(targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(targets))
	}
	if len(targets[0].Tasks) != 1 || targets[0].Tasks[0].ID != task.ID {
		t.Errorf("target tasks = %+v, want only the open task", targets[0].Tasks)
	}
}

func TestSaveCoalescing(t *testing.T) {
	t.Parallel()
	r, store := newTestRepo(t)
	r.EnsureUser(10)

	hold := make(chan struct{})
	store.writeHold = hold

	// First save occupies the drain; the rest queue behind it.
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() { results <- r.Save(context.Background()) }()
	}

	// Let the drain start, then release all writes.
	time.Sleep(50 * time.Millisecond)
	close(hold)

	for i := 0; i < 5; i++ {
		if err := <-results; err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	if got := store.writeCount(); got > 2 {
		t.Errorf("writes = %d, want coalescing into at most 2", got)
	}
}

func TestSaveFailureRejectsAllWaiters(t *testing.T) {
	t.Parallel()
	r, store := newTestRepo(t)
	r.EnsureUser(10)
	store.writeErr = errors.New("disk full")

	if err := r.Save(context.Background()); err == nil {
		t.Fatal("Save should propagate the write error")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	r, store := newTestRepo(t)

	due := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	r.EnsureUser(10)
	r.UpdateIdentity(10, "Aziz", "Karimov", "aziz")
	r.SetRegion(10, "Samarqand")
	r.AddTask(10, "report", due, "ish", PriorityHigh, "notes")
	r.MarkPrayerSent(10, "2026-08-31", "Dhuhr_15min")
	team := r.CreateTeam("loyiha", 10)
	if _, err := r.AddTeamTask(team.ID, 10, "umumiy", due, PriorityMedium, AssignAnyone); err != nil {
		t.Fatal(err)
	}

	if err := r.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := New(nil, &fakeStore{loadSnap: store.last})
	if err := reloaded.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	u := reloaded.UserSnapshot(10)
	if u.FirstName != "Aziz" || u.Prefs.PrayerRegion != "Samarqand" {
		t.Errorf("reloaded user = %+v", u)
	}
	if len(u.Tasks) != 1 || u.Tasks[0].Name != "report" || !u.Tasks[0].Due.Equal(due) {
		t.Errorf("reloaded tasks = %+v", u.Tasks)
	}
	if !reloaded.PrayerSentAlready(10, "2026-08-31", "Dhuhr_15min") {
		t.Error("prayer flag lost in round trip")
	}

	gotTeam, ok := reloaded.Team(team.ID)
	if !ok || gotTeam.Name != "loyiha" || gotTeam.Admin != 10 {
		t.Fatalf("reloaded team = %+v, ok=%v", gotTeam, ok)
	}
	if len(gotTeam.SharedTasks) != 1 || gotTeam.SharedTasks[0].Name != "umumiy" {
		t.Errorf("reloaded shared tasks = %+v", gotTeam.SharedTasks)
	}

	// New ids must not collide with reloaded ones.
	fresh := reloaded.AddTask(10, "new", due, "", PriorityLow, "")
	for _, existing := range u.Tasks {
		if fresh.ID == existing.ID {
			t.Errorf("id %d reused after reload", fresh.ID)
		}
	}
}
