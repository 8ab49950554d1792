package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vazifabot/internal/database"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	snap := &database.Snapshot{
		Users: []database.UserRow{{
			ID:           10,
			FirstName:    "Aziz",
			PrayerRegion: "Toshkent",
			TaskAlerts:   true,
			PrayerAlerts: true,
			RegisteredAt: now,
			LastSeen:     now,
		}},
		Tasks: []database.TaskRow{{
			ID:        1,
			UserID:    10,
			Name:      "report",
			Priority:  "high",
			DueAt:     now.Add(24 * time.Hour),
			CreatedAt: now,
		}},
		Teams: []database.TeamRow{{
			ID:        "AB12CD",
			Name:      "loyiha",
			AdminID:   10,
			CreatedAt: now,
		}},
		Members: []database.MemberRow{{
			TeamID:   "AB12CD",
			UserID:   10,
			JoinedAt: now,
		}},
		PrayerFlags: []database.PrayerFlagRow{{
			UserID: 10,
			Day:    "2026-08-31",
			Flag:   "Dhuhr_15min",
			SentAt: now,
		}},
	}

	if err := store.WriteSnapshot(ctx, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if len(got.Users) != 1 || got.Users[0].FirstName != "Aziz" {
		t.Errorf("users = %+v", got.Users)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Name != "report" || !got.Tasks[0].DueAt.Equal(now.Add(24*time.Hour)) {
		t.Errorf("tasks = %+v", got.Tasks)
	}
	if len(got.Teams) != 1 || got.Teams[0].ID != "AB12CD" {
		t.Errorf("teams = %+v", got.Teams)
	}
	if len(got.Members) != 1 || got.Members[0].UserID != 10 {
		t.Errorf("members = %+v", got.Members)
	}
	if len(got.PrayerFlags) != 1 || got.PrayerFlags[0].Flag != "Dhuhr_15min" {
		t.Errorf("prayer flags = %+v", got.PrayerFlags)
	}
}

func TestWriteSnapshotReplacesState(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	first := &database.Snapshot{
		Users: []database.UserRow{
			{ID: 1, RegisteredAt: now, LastSeen: now},
			{ID: 2, RegisteredAt: now, LastSeen: now},
		},
	}
	if err := store.WriteSnapshot(ctx, first); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	second := &database.Snapshot{
		Users: []database.UserRow{{ID: 3, RegisteredAt: now, LastSeen: now}},
	}
	if err := store.WriteSnapshot(ctx, second); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(got.Users) != 1 || got.Users[0].ID != 3 {
		t.Errorf("users = %+v, want only the second snapshot's user", got.Users)
	}
}

func TestEmptySnapshot(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.WriteSnapshot(ctx, &database.Snapshot{}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	got, err := store.LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(got.Users)+len(got.Tasks)+len(got.Teams) != 0 {
		t.Errorf("snapshot not empty: %+v", got)
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Fatalf("RunSQLMaintenance: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping after maintenance: %v", err)
	}
}
