package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask creates the scheduled task function for nightly
// database maintenance. It also prunes prayer delivery flags older than a
// week, which are only needed to deduplicate same-day sends.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance task...")
		startTime := time.Now()

		cutoff := deps.Now().AddDate(0, 0, -7).Format("2006-01-02")
		if pruned := deps.Repo.PrunePrayerFlags(cutoff); pruned > 0 {
			log.InfoContext(ctx, "Pruned stale prayer delivery flags", "pruned", pruned, "before_day", cutoff)
		}

		err := deps.Store.RunSQLMaintenance(ctx)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "SQL maintenance task failed", "error", err, "duration", duration)
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "Scheduled SQL maintenance task completed successfully", "duration", duration)
		return nil
	}
}
