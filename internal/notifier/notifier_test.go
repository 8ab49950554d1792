package notifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"vazifabot/internal/callback"
	"vazifabot/internal/database"
	"vazifabot/internal/notifier"
	"vazifabot/internal/prayer"
	"vazifabot/internal/repo"
)

type fakeStore struct {
	mu     sync.Mutex
	writes int
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) LoadSnapshot(ctx context.Context) (*database.Snapshot, error) {
	return &database.Snapshot{}, nil
}
func (f *fakeStore) WriteSnapshot(ctx context.Context, snap *database.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	return nil
}
func (f *fakeStore) RunSQLMaintenance(ctx context.Context) error { return nil }

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
	errs map[int64]error
}

func (f *fakeMessenger) Send(ctx context.Context, chatID int64, text string, kb *models.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[chatID]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeMessenger) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMessenger) setErr(chatID int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = map[int64]error{}
	}
	f.errs[chatID] = err
}

type fakeTimes struct {
	times prayer.Times
}

func (f *fakeTimes) TimesForRegion(ctx context.Context, region string) (prayer.Times, error) {
	return f.times, nil
}

func newSweepService(t *testing.T, m *fakeMessenger, tp notifier.TimesProvider) (*notifier.Service, *repo.Repository, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	r := repo.New(nil, store)
	if err := r.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tp == nil {
		tp = &fakeTimes{}
	}
	svc := notifier.NewService(nil, r, m, tp, callback.NewCodec(nil), 0, 0)
	return svc, r, store
}

// A task due in 16 minutes, swept every minute: exactly two messages go out,
// one for the 15-minute lead and one at the due moment.
func TestTaskReminderFiresOncePerInterval(t *testing.T) {
	t.Parallel()
	m := &fakeMessenger{}
	svc, r, _ := newSweepService(t, m, nil)

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	r.EnsureUser(10)
	r.DisablePrayerAlerts(10)
	r.AddTask(10, "report", base.Add(16*time.Minute), "", repo.PriorityMedium, "")

	for minute := 0; minute < 20; minute++ {
		if err := svc.Sweep(context.Background(), base.Add(time.Duration(minute)*time.Minute)); err != nil {
			t.Fatalf("Sweep at minute %d: %v", minute, err)
		}
	}

	if got := m.sentCount(); got != 2 {
		t.Fatalf("sent = %d, want exactly 2", got)
	}
}

func TestTaskReminderSkipsDisabledAlerts(t *testing.T) {
	t.Parallel()
	m := &fakeMessenger{}
	svc, r, _ := newSweepService(t, m, nil)

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	r.EnsureUser(10)
	r.ToggleTaskAlerts(10) // off
	r.DisablePrayerAlerts(10)
	r.AddTask(10, "report", base.Add(15*time.Minute), "", repo.PriorityMedium, "")

	if err := svc.Sweep(context.Background(), base); err != nil {
		t.Fatal(err)
	}
	if got := m.sentCount(); got != 0 {
		t.Errorf("sent = %d, want 0 with task alerts off", got)
	}
}

func TestPrayerReminderDayKeys(t *testing.T) {
	t.Parallel()
	m := &fakeMessenger{}
	tp := &fakeTimes{times: prayer.Times{
		Fajr: "04:30", Dhuhr: "12:30", Asr: "17:00", Maghrib: "19:30", Isha: "21:00",
	}}
	svc, r, _ := newSweepService(t, m, tp)

	r.EnsureUser(10)
	r.ToggleTaskAlerts(10)

	// 14 minutes before Dhuhr: the 15-minute lead fires once.
	at := time.Date(2026, 8, 31, 12, 16, 0, 0, time.UTC)
	if err := svc.Sweep(context.Background(), at); err != nil {
		t.Fatal(err)
	}
	if err := svc.Sweep(context.Background(), at.Add(30*time.Second)); err != nil {
		t.Fatal(err)
	}
	if got := m.sentCount(); got != 1 {
		t.Fatalf("sent = %d, want 1 after duplicate sweep", got)
	}
	if !r.PrayerSentAlready(10, "2026-08-31", "Dhuhr_15min") {
		t.Error("Dhuhr_15min flag not recorded")
	}

	// 4 minutes before: the 5-minute lead is a separate flag.
	if err := svc.Sweep(context.Background(), time.Date(2026, 8, 31, 12, 26, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if got := m.sentCount(); got != 2 {
		t.Fatalf("sent = %d, want 2 after 5min lead", got)
	}

	// Same wall clock on the next day starts fresh.
	if err := svc.Sweep(context.Background(), time.Date(2026, 9, 1, 12, 16, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if got := m.sentCount(); got != 3 {
		t.Errorf("sent = %d, want 3 on the next day", got)
	}
}

func TestBlockedUserQuarantine(t *testing.T) {
	t.Parallel()
	m := &fakeMessenger{}
	svc, r, _ := newSweepService(t, m, nil)

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	r.EnsureUser(10)
	r.DisablePrayerAlerts(10)
	r.AddTask(10, "report", base.Add(15*time.Minute), "", repo.PriorityMedium, "")
	m.setErr(10, errors.New("Forbidden: bot was blocked by the user"))

	if err := svc.Sweep(context.Background(), base); err != nil {
		t.Fatal(err)
	}

	u := r.UserSnapshot(10)
	if !u.Activity.BlockedBot {
		t.Fatal("user not quarantined after blocked error")
	}
	if u.Prefs.TaskAlerts || u.Prefs.PrayerAlerts {
		t.Error("quarantine must force alert preferences off")
	}

	// Subsequent sweeps skip the user entirely.
	m.setErr(10, nil)
	if err := svc.Sweep(context.Background(), base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if got := m.sentCount(); got != 0 {
		t.Errorf("sent = %d, want 0 for quarantined user", got)
	}
}

func TestTransientFailureRetriesNextSweep(t *testing.T) {
	t.Parallel()
	m := &fakeMessenger{}
	svc, r, _ := newSweepService(t, m, nil)

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	r.EnsureUser(10)
	r.DisablePrayerAlerts(10)
	r.AddTask(10, "report", base.Add(15*time.Minute), "", repo.PriorityMedium, "")

	m.setErr(10, errors.New("Too Many Requests: retry after 5"))
	if err := svc.Sweep(context.Background(), base); err != nil {
		t.Fatal(err)
	}
	if got := m.sentCount(); got != 0 {
		t.Fatalf("sent = %d, want 0 during transient failure", got)
	}

	m.setErr(10, nil)
	if err := svc.Sweep(context.Background(), base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if got := m.sentCount(); got != 1 {
		t.Errorf("sent = %d, want 1 after retry within the window", got)
	}
}

func TestSweepSavesOnce(t *testing.T) {
	t.Parallel()
	m := &fakeMessenger{}
	svc, r, store := newSweepService(t, m, nil)

	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	r.EnsureUser(10)
	r.DisablePrayerAlerts(10)
	r.AddTask(10, "a", base.Add(15*time.Minute), "", repo.PriorityMedium, "")
	r.AddTask(10, "b", base.Add(14*time.Minute), "", repo.PriorityMedium, "")

	if err := svc.Sweep(context.Background(), base); err != nil {
		t.Fatal(err)
	}
	if got := m.sentCount(); got != 2 {
		t.Fatalf("sent = %d, want 2", got)
	}
	if got := store.writeCount(); got != 1 {
		t.Errorf("snapshot writes = %d, want 1 per sweep", got)
	}

	// A sweep that sends nothing must not write at all.
	if err := svc.Sweep(context.Background(), base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if got := store.writeCount(); got != 1 {
		t.Errorf("snapshot writes = %d, want still 1", got)
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg       string
		blocked   bool
		transient bool
	}{
		{"Forbidden: bot was blocked by the user", true, false},
		{"Forbidden: user is deactivated", true, false},
		{"Bad Request: chat not found", true, false},
		{"Forbidden: bot is not a member of the group chat", true, false},
		{"Too Many Requests: retry after 23", false, true},
		{"Gateway Timeout", false, true},
		{"Bad Gateway", false, true},
		{"Bad Request: message is too long", false, false},
	}
	for _, tt := range tests {
		err := errors.New(tt.msg)
		if got := notifier.IsBlockedError(err); got != tt.blocked {
			t.Errorf("IsBlockedError(%q) = %v, want %v", tt.msg, got, tt.blocked)
		}
		if got := notifier.IsTransientError(err); got != tt.transient {
			t.Errorf("IsTransientError(%q) = %v, want %v", tt.msg, got, tt.transient)
		}
	}

	if !notifier.IsTransientError(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be transient")
	}
}
