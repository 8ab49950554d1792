package tasks

import (
	"context"
)

// newCallbackEvictionTask creates the scheduled task function that drops
// stored callback payloads past their retention period.
func newCallbackEvictionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "callback_eviction")

	return func(ctx context.Context) error {
		evicted := deps.Codec.Evict(deps.Now())
		if evicted > 0 {
			log.InfoContext(ctx, "Evicted expired callback payloads",
				"evicted", evicted, "remaining", deps.Codec.StoredCount())
		}
		return nil
	}
}
