package driving

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// DigestService runs the weekly digest pipeline and serves stored digests.
type DigestService interface {
	// Run collects, synthesises and persists one digest.
	// Nothing is persisted unless every step before the store write succeeds.
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)

	// Get returns the stored digest for a week. Returns ErrNotFound if absent.
	Get(ctx context.Context, weekEnding domain.Day) (*domain.Digest, error)

	// Recent returns summaries of the latest n digests, newest first.
	Recent(ctx context.Context, n int) ([]domain.DigestSummary, error)

	// ThemeFrequency totals story counts per theme over the last n weeks.
	ThemeFrequency(ctx context.Context, weeks int) (map[domain.Theme]int, error)

	// ThemeTrends returns weekly theme counts over the last n weeks.
	// An empty theme returns every theme.
	ThemeTrends(ctx context.Context, weeks int, theme domain.Theme) ([]domain.ThemeTrendPoint, error)

	// Framework returns the analysis framework in use.
	Framework() domain.AnalysisFramework

	// Registry returns the source registry in use.
	Registry() domain.SourceRegistry
}

// RunOptions configures a single digest run.
type RunOptions struct {
	// WeekEnding is the last day covered. Zero means today.
	WeekEnding domain.Day

	// WindowDays is the lookback window. Zero uses the configured default.
	// Values above the framework ceiling are clamped.
	WindowDays int

	// Policy overrides the configured conflict policy when set.
	Policy domain.ConflictPolicy

	// DryRun synthesises without persisting, exporting or publishing.
	DryRun bool

	// SkipPublish persists and exports but does not deliver.
	SkipPublish bool

	// Formats overrides the exported file formats. Nil uses the configured formats.
	Formats []domain.DigestFormat
}

// RunResult describes a completed run.
type RunResult struct {
	RunID  string
	Digest *domain.Digest

	// Record is nil on dry runs.
	Record *domain.DigestRecord

	// Files are the exported paths.
	Files []string

	RawCount        int
	NormalisedCount int

	// Warnings are non-fatal problems: skipped queries, export or publish failures.
	Warnings []string

	Persisted bool
}

// RetrievalService collects raw items from the source registry.
type RetrievalService interface {
	// Collect runs every registry query and direct source, keyed by category.
	// Individual failures are reported as warnings; ErrRetrievalFailure only when all fail.
	Collect(ctx context.Context, window domain.SearchWindow) (map[string][]domain.RawItem, []string, error)

	// SearchCategory runs the queries of a single category.
	SearchCategory(ctx context.Context, category string, window domain.SearchWindow) ([]domain.RawItem, []string, error)
}
