package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Ensure DigestStore implements the interface.
var _ driven.DigestStore = (*DigestStore)(nil)

// DigestStore is an in-memory implementation of driven.DigestStore.
// Theme counts are derived from the stored content on read.
type DigestStore struct {
	mu      sync.RWMutex
	records map[string]domain.DigestRecord
}

// NewDigestStore creates a new in-memory digest store.
func NewDigestStore() *DigestStore {
	return &DigestStore{
		records: make(map[string]domain.DigestRecord),
	}
}

// Put stores a record according to the conflict policy.
func (s *DigestStore) Put(_ context.Context, record domain.DigestRecord, policy domain.ConflictPolicy) error {
	if record.WeekEnding.IsZero() {
		return fmt.Errorf("%w: record has no week ending", domain.ErrInvalidInput)
	}
	if !policy.IsValid() {
		return fmt.Errorf("%w: conflict policy %q", domain.ErrInvalidInput, policy)
	}
	if _, err := record.Decode(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := record.WeekEnding.String()
	if _, exists := s.records[key]; exists && policy == domain.ConflictReject {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateWeek, key)
	}
	s.records[key] = record
	return nil
}

// Get retrieves the record for a week.
func (s *DigestStore) Get(_ context.Context, weekEnding domain.Day) (*domain.DigestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[weekEnding.String()]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// List returns up to limit records, newest week first.
func (s *DigestStore) List(_ context.Context, limit int) ([]domain.DigestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.DigestRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].WeekEnding.After(records[j].WeekEnding)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// ThemeFrequency sums story counts per theme over weeks ending on or after since.
func (s *DigestStore) ThemeFrequency(ctx context.Context, since domain.Day) (map[domain.Theme]int, error) {
	points, err := s.ThemeTrend(ctx, since, "")
	if err != nil {
		return nil, err
	}
	freq := make(map[domain.Theme]int)
	for _, p := range points {
		freq[p.Theme] += p.Count
	}
	return freq, nil
}

// ThemeTrend returns weekly counts since the given day, oldest first.
func (s *DigestStore) ThemeTrend(_ context.Context, since domain.Day, theme domain.Theme) ([]domain.ThemeTrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var points []domain.ThemeTrendPoint
	for _, r := range s.records {
		if r.WeekEnding.Before(since) {
			continue
		}
		digest, err := r.Decode()
		if err != nil {
			return nil, err
		}
		for t, summary := range digest.ByTheme {
			if summary.Count == 0 || (theme != "" && t != theme) {
				continue
			}
			points = append(points, domain.ThemeTrendPoint{WeekEnding: r.WeekEnding, Theme: t, Count: summary.Count})
		}
	}
	sort.Slice(points, func(i, j int) bool {
		if !points[i].WeekEnding.Equal(points[j].WeekEnding) {
			return points[i].WeekEnding.Before(points[j].WeekEnding)
		}
		return points[i].Theme < points[j].Theme
	})
	return points, nil
}
