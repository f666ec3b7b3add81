package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports, "test")
	require.NoError(t, err)
	return server
}

func TestHandleSearchCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("returns items", func(t *testing.T) {
		retrieval := &mockRetrievalService{
			items: []domain.RawItem{
				{Title: "GRESB 2026 results", URL: "https://gresb.example.com/r", Source: "GRESB", PublishedAt: samplePublished()},
				{Title: "Undated note", URL: "https://example.com/n"},
			},
			warnings: []string{"query \"x\": timeout"},
		}
		server := newTestServer(t, &Ports{Digests: &mockDigestService{}, Retrieval: retrieval})

		_, output, err := server.handleSearchCategory(ctx, nil, SearchCategoryInput{Category: domain.CategoryIndustry, DaysBack: 3})

		require.NoError(t, err)
		assert.Equal(t, domain.CategoryIndustry, retrieval.category)
		assert.Equal(t, 3, retrieval.window.Days)
		assert.Equal(t, domain.Today(), retrieval.window.End)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "2026-01-06", output.Items[0].PublishedAt)
		assert.Empty(t, output.Items[1].PublishedAt)
		assert.Len(t, output.Warnings, 1)
	})

	t.Run("clamps window and defaults", func(t *testing.T) {
		retrieval := &mockRetrievalService{}
		server := newTestServer(t, &Ports{Digests: &mockDigestService{}, Retrieval: retrieval})

		_, output, err := server.handleSearchCategory(ctx, nil, SearchCategoryInput{Category: domain.CategoryNews, DaysBack: 90})
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultMaxWindowDays, retrieval.window.Days)
		assert.NotNil(t, output.Items)
		assert.NotNil(t, output.Warnings)

		_, _, err = server.handleSearchCategory(ctx, nil, SearchCategoryInput{Category: domain.CategoryNews})
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultWindowDays, retrieval.window.Days)
	})

	t.Run("retrieval not wired", func(t *testing.T) {
		server := newTestServer(t, &Ports{Digests: &mockDigestService{}})

		_, _, err := server.handleSearchCategory(ctx, nil, SearchCategoryInput{Category: domain.CategoryNews})
		assert.ErrorIs(t, err, ErrRetrievalUnavailable)
	})

	t.Run("propagates error", func(t *testing.T) {
		retrieval := &mockRetrievalService{err: domain.ErrInvalidInput}
		server := newTestServer(t, &Ports{Digests: &mockDigestService{}, Retrieval: retrieval})

		_, _, err := server.handleSearchCategory(ctx, nil, SearchCategoryInput{Category: "unknown"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestHandleGenerateDigest(t *testing.T) {
	ctx := context.Background()

	t.Run("runs without publishing", func(t *testing.T) {
		digests := &mockDigestService{result: &driving.RunResult{
			RunID:           "run-1",
			Digest:          sampleDigest(),
			RawCount:        9,
			NormalisedCount: 5,
			Persisted:       true,
		}}
		server := newTestServer(t, &Ports{Digests: digests, Renderer: mockRenderer{}})

		_, output, err := server.handleGenerateDigest(ctx, nil, GenerateDigestInput{
			WeekEnding: "2026-01-08",
			Days:       10,
			Overwrite:  true,
		})

		require.NoError(t, err)
		assert.True(t, digests.lastRun.SkipPublish)
		assert.Equal(t, domain.ConflictOverwrite, digests.lastRun.Policy)
		assert.Equal(t, 10, digests.lastRun.WindowDays)
		assert.Equal(t, "2026-01-08", digests.lastRun.WeekEnding.String())
		assert.Equal(t, "run-1", output.RunID)
		assert.True(t, output.Persisted)
		assert.Equal(t, 9, output.RawCount)
		assert.Equal(t, 5, output.NormalisedCount)
		assert.NotNil(t, output.Files)
		assert.NotNil(t, output.Warnings)
		assert.Equal(t, "2026-01-08", output.Digest.WeekEnding)
		assert.Equal(t, "# Digest 2026-01-08", output.Digest.Markdown)
	})

	t.Run("defaults leave policy to service", func(t *testing.T) {
		digests := &mockDigestService{result: &driving.RunResult{Digest: sampleDigest()}}
		server := newTestServer(t, &Ports{Digests: digests})

		_, output, err := server.handleGenerateDigest(ctx, nil, GenerateDigestInput{DryRun: true})

		require.NoError(t, err)
		assert.True(t, digests.lastRun.DryRun)
		assert.Empty(t, digests.lastRun.Policy)
		assert.True(t, digests.lastRun.WeekEnding.IsZero())
		assert.Empty(t, output.Digest.Markdown)
	})

	t.Run("invalid week", func(t *testing.T) {
		server := newTestServer(t, &Ports{Digests: &mockDigestService{}})

		_, _, err := server.handleGenerateDigest(ctx, nil, GenerateDigestInput{WeekEnding: "last friday"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("duplicate week", func(t *testing.T) {
		digests := &mockDigestService{err: domain.ErrDuplicateWeek}
		server := newTestServer(t, &Ports{Digests: digests})

		_, _, err := server.handleGenerateDigest(ctx, nil, GenerateDigestInput{})
		assert.ErrorIs(t, err, domain.ErrDuplicateWeek)
	})
}

func TestHandleGetDigest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns digest", func(t *testing.T) {
		digests := &mockDigestService{digest: sampleDigest()}
		server := newTestServer(t, &Ports{Digests: digests})

		_, output, err := server.handleGetDigest(ctx, nil, GetDigestInput{WeekEnding: "2026-01-08"})

		require.NoError(t, err)
		assert.Equal(t, "2026-01-08", digests.lastWeek.String())
		assert.Equal(t, 5, output.ItemsAnalyzed)
		assert.Equal(t, 1, output.ItemsIncluded)
		require.Len(t, output.TopStories, 1)
		assert.Equal(t, "SFDR review launched", output.TopStories[0].Title)
		assert.NotNil(t, output.ByTheme[domain.ThemeRegulationCompliance].Highlights)
		assert.NotNil(t, output.RegulatoryAlerts)
		assert.NotNil(t, output.KeyStatistics)
	})

	t.Run("not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Digests: &mockDigestService{err: domain.ErrNotFound}})

		_, _, err := server.handleGetDigest(ctx, nil, GetDigestInput{WeekEnding: "2026-01-08"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing week", func(t *testing.T) {
		server := newTestServer(t, &Ports{Digests: &mockDigestService{}})

		_, _, err := server.handleGetDigest(ctx, nil, GetDigestInput{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestHandleThemeTrends(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates totals", func(t *testing.T) {
		digests := &mockDigestService{trend: []domain.ThemeTrendPoint{
			{WeekEnding: mustDay("2026-01-01"), Theme: domain.ThemeGreenFinance, Count: 2},
			{WeekEnding: mustDay("2026-01-01"), Theme: domain.ThemeClimateRisk, Count: 1},
			{WeekEnding: mustDay("2026-01-08"), Theme: domain.ThemeGreenFinance, Count: 3},
		}}
		server := newTestServer(t, &Ports{Digests: digests})

		_, output, err := server.handleThemeTrends(ctx, nil, ThemeTrendsInput{Weeks: 4})

		require.NoError(t, err)
		assert.Equal(t, 4, digests.lastArgs.weeks)
		assert.Equal(t, 4, output.Weeks)
		assert.Equal(t, 5, output.Totals["green_finance"])
		assert.Equal(t, 1, output.Totals["climate_risk"])
		require.Len(t, output.Series, 3)
		assert.Equal(t, "2026-01-08", output.Series[2].WeekEnding)
	})

	t.Run("defaults and theme filter", func(t *testing.T) {
		digests := &mockDigestService{}
		server := newTestServer(t, &Ports{Digests: digests})

		_, output, err := server.handleThemeTrends(ctx, nil, ThemeTrendsInput{Theme: "green_finance"})

		require.NoError(t, err)
		assert.Equal(t, DefaultTrendWeeks, digests.lastArgs.weeks)
		assert.Equal(t, domain.ThemeGreenFinance, digests.lastArgs.theme)
		assert.NotNil(t, output.Series)
		assert.Empty(t, output.Totals)
	})

	t.Run("propagates error", func(t *testing.T) {
		boom := errors.New("database locked")
		server := newTestServer(t, &Ports{Digests: &mockDigestService{err: boom}})

		_, _, err := server.handleThemeTrends(ctx, nil, ThemeTrendsInput{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestHandleRecentDigests(t *testing.T) {
	ctx := context.Background()

	t.Run("lists summaries", func(t *testing.T) {
		created := time.Date(2026, 1, 9, 7, 30, 0, 0, time.UTC)
		digests := &mockDigestService{recent: []domain.DigestSummary{
			{WeekEnding: mustDay("2026-01-08"), ItemsAnalyzed: 40, ItemsIncluded: 12, CreatedAt: created},
			{WeekEnding: mustDay("2026-01-01"), ItemsAnalyzed: 35, ItemsIncluded: 9, CreatedAt: created.AddDate(0, 0, -7)},
		}}
		server := newTestServer(t, &Ports{Digests: digests})

		_, output, err := server.handleRecentDigests(ctx, nil, RecentDigestsInput{N: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, digests.lastN)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "2026-01-08", output.Digests[0].WeekEnding)
		assert.Equal(t, 12, output.Digests[0].ItemsIncluded)
		assert.Equal(t, "2026-01-09T07:30:00Z", output.Digests[0].CreatedAt)
	})

	t.Run("default count", func(t *testing.T) {
		digests := &mockDigestService{}
		server := newTestServer(t, &Ports{Digests: digests})

		_, output, err := server.handleRecentDigests(ctx, nil, RecentDigestsInput{})

		require.NoError(t, err)
		assert.Equal(t, DefaultRecentDigests, digests.lastN)
		assert.Zero(t, output.Count)
		assert.NotNil(t, output.Digests)
	})
}
