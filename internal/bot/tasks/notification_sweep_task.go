package tasks

import (
	"context"
	"fmt"
	"time"
)

// newNotificationSweepTask creates the scheduled task function for the
// notification sweep. The sweep instant is sampled once per run so every
// user in the pass is evaluated against the same clock reading.
func newNotificationSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "notification_sweep")

	return func(ctx context.Context) error {
		startTime := time.Now()

		if err := deps.Notifier.Sweep(ctx, deps.Now()); err != nil {
			log.ErrorContext(ctx, "Notification sweep failed", "error", err, "duration", time.Since(startTime))
			return fmt.Errorf("notification sweep failed: %w", err)
		}

		log.DebugContext(ctx, "Notification sweep completed", "duration", time.Since(startTime))
		return nil
	}
}
