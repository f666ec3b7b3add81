package driven

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// DigestStore persists digests, one per week ending.
// There is no update or delete API; overwrite is an explicit Put policy.
type DigestStore interface {
	// Put stores a record. With ConflictReject an existing week fails with
	// ErrDuplicateWeek and leaves the stored record unchanged. With ConflictOverwrite
	// the record and its derived rows are replaced atomically.
	Put(ctx context.Context, record domain.DigestRecord, policy domain.ConflictPolicy) error

	// Get retrieves the record for a week. Returns ErrNotFound if absent.
	Get(ctx context.Context, weekEnding domain.Day) (*domain.DigestRecord, error)

	// List returns up to limit records, newest week first.
	List(ctx context.Context, limit int) ([]domain.DigestRecord, error)

	// ThemeFrequency sums story counts per theme over weeks ending on or after since.
	ThemeFrequency(ctx context.Context, since domain.Day) (map[domain.Theme]int, error)

	// ThemeTrend returns weekly counts since the given day, oldest first.
	// An empty theme returns every theme.
	ThemeTrend(ctx context.Context, since domain.Day, theme domain.Theme) ([]domain.ThemeTrendPoint, error)
}
