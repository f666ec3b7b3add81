package driving

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// Scheduler runs the weekly digest in long-running processes.
type Scheduler interface {
	// Start blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop waits for in-flight runs to finish.
	Stop() error

	// Status returns every known task with up to historyLimit recent runs.
	Status(ctx context.Context, historyLimit int) ([]domain.TaskStatus, error)
}
