package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

func testRecord(t *testing.T, week string, counts map[domain.Theme]int) domain.DigestRecord {
	t.Helper()
	day, err := domain.ParseDay(week)
	require.NoError(t, err)

	fw := domain.DefaultFramework()
	digest := domain.NewEmptyDigest(day, 50)
	for _, theme := range fw.Themes() {
		n := counts[theme]
		if n == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			digest.TopStories = append(digest.TopStories, domain.DigestItem{
				Title:      "Story " + string(theme),
				Source:     "Reuters",
				URL:        "https://example.com/" + week + "/" + string(theme),
				Theme:      theme,
				Importance: domain.ImportanceMedium,
				Geography:  domain.GeographyUK,
			})
		}
		digest.ByTheme[theme] = domain.ThemeSummary{Count: n, Highlights: []string{}}
		digest.ItemsIncluded += n
	}

	record, err := domain.NewDigestRecord("id-"+week, digest, time.Date(2026, 1, 9, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return record
}

func countRows(t *testing.T, store *Store, table, week string) int {
	t.Helper()
	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE week_ending = ?", week).Scan(&n))
	return n
}

func TestDigestStore_PutAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	digests := store.DigestStore()
	record := testRecord(t, "2026-01-08", map[domain.Theme]int{
		domain.ThemeClimateRisk:  2,
		domain.ThemeGreenFinance: 1,
	})

	require.NoError(t, digests.Put(ctx, record, domain.ConflictReject))

	got, err := digests.Get(ctx, record.WeekEnding)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Content, got.Content)
	assert.Equal(t, 50, got.ItemsAnalyzed)
	assert.Equal(t, 3, got.ItemsIncluded)
	assert.True(t, record.CreatedAt.Equal(got.CreatedAt))

	assert.Equal(t, 3, countRows(t, store, "digest_items", "2026-01-08"))
	assert.Equal(t, 2, countRows(t, store, "theme_counts", "2026-01-08"))
}

func TestDigestStore_Get_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	day, _ := domain.ParseDay("2026-01-08")
	_, err := store.DigestStore().Get(context.Background(), day)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDigestStore_Put_RejectDuplicateKeepsFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	digests := store.DigestStore()
	first := testRecord(t, "2026-01-08", map[domain.Theme]int{domain.ThemeClimateRisk: 2})
	second := testRecord(t, "2026-01-08", map[domain.Theme]int{domain.ThemeGreenFinance: 5})

	require.NoError(t, digests.Put(ctx, first, domain.ConflictReject))
	err := digests.Put(ctx, second, domain.ConflictReject)
	assert.ErrorIs(t, err, domain.ErrDuplicateWeek)

	got, err := digests.Get(ctx, first.WeekEnding)
	require.NoError(t, err)
	assert.Equal(t, first.Content, got.Content)
	assert.Equal(t, 2, countRows(t, store, "digest_items", "2026-01-08"))

	freq, err := digests.ThemeFrequency(ctx, first.WeekEnding)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Theme]int{domain.ThemeClimateRisk: 2}, freq)
}

func TestDigestStore_Put_OverwriteReplacesDerivedRows(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	digests := store.DigestStore()
	first := testRecord(t, "2026-01-08", map[domain.Theme]int{domain.ThemeClimateRisk: 2})
	second := testRecord(t, "2026-01-08", map[domain.Theme]int{domain.ThemeGreenFinance: 5})
	second.ID = "replacement"

	require.NoError(t, digests.Put(ctx, first, domain.ConflictReject))
	require.NoError(t, digests.Put(ctx, second, domain.ConflictOverwrite))

	records, err := digests.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "replacement", records[0].ID)
	assert.Equal(t, second.Content, records[0].Content)

	assert.Equal(t, 5, countRows(t, store, "digest_items", "2026-01-08"))
	freq, err := digests.ThemeFrequency(ctx, first.WeekEnding)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Theme]int{domain.ThemeGreenFinance: 5}, freq)
}

func TestDigestStore_Put_OverwriteNewWeek(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	record := testRecord(t, "2026-01-08", map[domain.Theme]int{domain.ThemeClimateRisk: 1})
	require.NoError(t, store.DigestStore().Put(context.Background(), record, domain.ConflictOverwrite))
	assert.Equal(t, 1, countRows(t, store, "digests", "2026-01-08"))
}

func TestDigestStore_Put_Invalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	digests := store.DigestStore()

	assert.ErrorIs(t, digests.Put(ctx, domain.DigestRecord{}, domain.ConflictReject), domain.ErrInvalidInput)

	record := testRecord(t, "2026-01-08", nil)
	assert.ErrorIs(t, digests.Put(ctx, record, domain.ConflictPolicy("merge")), domain.ErrInvalidInput)

	record.Content = "{"
	assert.ErrorIs(t, digests.Put(ctx, record, domain.ConflictReject), domain.ErrInvalidInput)

	records, err := digests.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDigestStore_EmptyDigest(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	record := testRecord(t, "2026-01-08", nil)

	require.NoError(t, store.DigestStore().Put(ctx, record, domain.ConflictReject))
	got, err := store.DigestStore().Get(ctx, record.WeekEnding)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ItemsIncluded)
	assert.Equal(t, 0, countRows(t, store, "theme_counts", "2026-01-08"))
}

func TestDigestStore_List(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	digests := store.DigestStore()
	for _, week := range []string{"2026-01-01", "2026-01-15", "2026-01-08"} {
		require.NoError(t, digests.Put(ctx, testRecord(t, week, nil), domain.ConflictReject))
	}

	records, err := digests.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2026-01-15", records[0].WeekEnding.String())
	assert.Equal(t, "2026-01-08", records[1].WeekEnding.String())

	all, err := digests.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDigestStore_ThemeFrequencyAndTrend(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	digests := store.DigestStore()
	require.NoError(t, digests.Put(ctx, testRecord(t, "2025-12-25", map[domain.Theme]int{
		domain.ThemeClimateRisk: 9,
	}), domain.ConflictReject))
	require.NoError(t, digests.Put(ctx, testRecord(t, "2026-01-01", map[domain.Theme]int{
		domain.ThemeClimateRisk:  2,
		domain.ThemeGreenFinance: 1,
	}), domain.ConflictReject))
	require.NoError(t, digests.Put(ctx, testRecord(t, "2026-01-08", map[domain.Theme]int{
		domain.ThemeClimateRisk: 3,
	}), domain.ConflictReject))
	since, _ := domain.ParseDay("2026-01-01")

	freq, err := digests.ThemeFrequency(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Theme]int{
		domain.ThemeClimateRisk:  5,
		domain.ThemeGreenFinance: 1,
	}, freq)

	trend, err := digests.ThemeTrend(ctx, since, domain.ThemeClimateRisk)
	require.NoError(t, err)
	require.Len(t, trend, 2)
	assert.Equal(t, "2026-01-01", trend[0].WeekEnding.String())
	assert.Equal(t, 2, trend[0].Count)
	assert.Equal(t, "2026-01-08", trend[1].WeekEnding.String())
	assert.Equal(t, 3, trend[1].Count)

	all, err := digests.ThemeTrend(ctx, since, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.ThemeClimateRisk, all[0].Theme)
	assert.Equal(t, domain.ThemeGreenFinance, all[1].Theme)
}
