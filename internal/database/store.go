package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// Store defines the persistence operations the repository relies on.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// LoadSnapshot reads the whole persisted state.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	// WriteSnapshot replaces the persisted state with the given snapshot in a
	// single transaction.
	WriteSnapshot(ctx context.Context, snap *Snapshot) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadSnapshot reads every table into a Snapshot.
func (s *sqlxStore) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := s.db.SelectContext(ctx, &snap.Users,
		`SELECT * FROM users`); err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Tasks,
		`SELECT * FROM tasks`); err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Teams,
		`SELECT * FROM teams`); err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.Members,
		`SELECT * FROM team_members`); err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	if err := s.db.SelectContext(ctx, &snap.PrayerFlags,
		`SELECT * FROM prayer_flags`); err != nil {
		return nil, fmt.Errorf("failed to load prayer flags: %w", err)
	}

	s.logger.DebugContext(ctx, "Snapshot loaded",
		"users", len(snap.Users), "tasks", len(snap.Tasks), "teams", len(snap.Teams))
	return snap, nil
}

// WriteSnapshot replaces all persisted state in one transaction, so a failed
// write leaves the previous state intact.
func (s *sqlxStore) WriteSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("cannot write nil snapshot")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin snapshot transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back snapshot transaction", "error", rollbackErr)
			}
		}
	}()

	for _, table := range []string{"prayer_flags", "tasks", "team_members", "teams", "users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	for i := range snap.Users {
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO users (id, first_name, last_name, username, prayer_region,
                task_alerts, prayer_alerts, registered_at, last_seen,
                blocked_bot, blocked_at, tasks_created, tasks_completed)
            VALUES (:id, :first_name, :last_name, :username, :prayer_region,
                :task_alerts, :prayer_alerts, :registered_at, :last_seen,
                :blocked_bot, :blocked_at, :tasks_created, :tasks_completed)`,
			snap.Users[i]); err != nil {
			return fmt.Errorf("failed to save user %d: %w", snap.Users[i].ID, err)
		}
	}
	for i := range snap.Teams {
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO teams (id, name, admin_id, created_at)
            VALUES (:id, :name, :admin_id, :created_at)`,
			snap.Teams[i]); err != nil {
			return fmt.Errorf("failed to save team %s: %w", snap.Teams[i].ID, err)
		}
	}
	for i := range snap.Members {
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO team_members (team_id, user_id, joined_at)
            VALUES (:team_id, :user_id, :joined_at)`,
			snap.Members[i]); err != nil {
			return fmt.Errorf("failed to save team member: %w", err)
		}
	}
	for i := range snap.Tasks {
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO tasks (id, user_id, team_id, name, notes, category, priority,
                due_at, created_at, completed, completed_at, created_by, assigned_to,
                completed_by, completion_note, sent_1day, sent_1hour, sent_15min, sent_due)
            VALUES (:id, :user_id, :team_id, :name, :notes, :category, :priority,
                :due_at, :created_at, :completed, :completed_at, :created_by, :assigned_to,
                :completed_by, :completion_note, :sent_1day, :sent_1hour, :sent_15min, :sent_due)`,
			snap.Tasks[i]); err != nil {
			return fmt.Errorf("failed to save task %d: %w", snap.Tasks[i].ID, err)
		}
	}
	for i := range snap.PrayerFlags {
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO prayer_flags (user_id, day, flag, sent_at)
            VALUES (:user_id, :day, :flag, :sent_at)`,
			snap.PrayerFlags[i]); err != nil {
			return fmt.Errorf("failed to save prayer flag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit snapshot transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Snapshot written",
		"users", len(snap.Users), "tasks", len(snap.Tasks), "teams", len(snap.Teams))
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
