package driven

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// SchedulerStore keeps task state and run history across restarts.
type SchedulerStore interface {
	// GetTask returns nil and no error when the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns all tasks ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or replaces the task with the same ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult appends a run to the task's history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// History returns up to limit runs for a task, most recent first.
	// A non-positive limit returns them all.
	History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the most recent keep runs per task.
	PruneHistory(ctx context.Context, keep int) error
}
