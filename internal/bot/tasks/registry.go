package tasks

import (
	"context"

	"github.com/derogab/summarygram/internal/config"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns every scheduled task keyed by the name used in the
// scheduler.tasks configuration section.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	tasks[config.TaskNightlyDigest] = newNightlyDigestTask(deps)
	tasks[config.TaskStoreMaintenance] = newStoreMaintenanceTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
