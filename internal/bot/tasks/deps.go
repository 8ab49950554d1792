// Package tasks defines the scheduled background tasks and their registry.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"vazifabot/internal/callback"
	"vazifabot/internal/database"
	"vazifabot/internal/notifier"
	"vazifabot/internal/repo"
	"vazifabot/internal/state"
)

// ScheduledTaskFunc is the signature for a scheduled background task.
type ScheduledTaskFunc func(ctx context.Context) error

// TaskDeps holds the dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Notifier *notifier.Service
	Codec    *callback.Codec
	State    *state.Store
	Store    database.Store
	Repo     *repo.Repository
	Now      func() time.Time
}
