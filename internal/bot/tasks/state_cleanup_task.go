package tasks

import (
	"context"
)

// newStateCleanupTask creates the scheduled task function that removes
// expired conversation states.
func newStateCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "state_cleanup")

	return func(ctx context.Context) error {
		removed := deps.State.Cleanup(deps.Now())
		if removed > 0 {
			log.InfoContext(ctx, "Removed expired conversation states", "removed", removed)
		}
		return nil
	}
}
