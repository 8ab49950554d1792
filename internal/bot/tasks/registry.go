package tasks

// RegisterAllTasks initializes and returns a map of all registered scheduled
// tasks. The keys match the scheduler section of the configuration.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks["notification_sweep"] = newNotificationSweepTask(deps)
	tasks["callback_eviction"] = newCallbackEvictionTask(deps)
	tasks["state_cleanup"] = newStateCleanupTask(deps)
	tasks["sql_maintenance"] = newSQLMaintenanceTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
