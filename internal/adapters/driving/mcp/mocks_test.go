package mcp

import (
	"context"
	"time"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// mockDigestService is a mock implementation of driving.DigestService.
type mockDigestService struct {
	result   *driving.RunResult
	digest   *domain.Digest
	recent   []domain.DigestSummary
	trend    []domain.ThemeTrendPoint
	freq     map[domain.Theme]int
	err      error
	lastRun  driving.RunOptions
	lastWeek domain.Day
	lastN    int
	lastArgs struct {
		weeks int
		theme domain.Theme
	}
}

func (m *mockDigestService) Run(_ context.Context, opts driving.RunOptions) (*driving.RunResult, error) {
	m.lastRun = opts
	return m.result, m.err
}

func (m *mockDigestService) Get(_ context.Context, week domain.Day) (*domain.Digest, error) {
	m.lastWeek = week
	return m.digest, m.err
}

func (m *mockDigestService) Recent(_ context.Context, n int) ([]domain.DigestSummary, error) {
	m.lastN = n
	return m.recent, m.err
}

func (m *mockDigestService) ThemeFrequency(_ context.Context, _ int) (map[domain.Theme]int, error) {
	return m.freq, m.err
}

func (m *mockDigestService) ThemeTrends(_ context.Context, weeks int, theme domain.Theme) ([]domain.ThemeTrendPoint, error) {
	m.lastArgs.weeks = weeks
	m.lastArgs.theme = theme
	return m.trend, m.err
}

func (m *mockDigestService) Framework() domain.AnalysisFramework {
	return domain.DefaultFramework()
}

func (m *mockDigestService) Registry() domain.SourceRegistry {
	return domain.DefaultSourceRegistry()
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	items    []domain.RawItem
	warnings []string
	err      error
	category string
	window   domain.SearchWindow
}

func (m *mockRetrievalService) Collect(_ context.Context, _ domain.SearchWindow) (map[string][]domain.RawItem, []string, error) {
	return map[string][]domain.RawItem{m.category: m.items}, m.warnings, m.err
}

func (m *mockRetrievalService) SearchCategory(_ context.Context, category string, window domain.SearchWindow) ([]domain.RawItem, []string, error) {
	m.category = category
	m.window = window
	return m.items, m.warnings, m.err
}

// mockRenderer is a mock MarkdownRenderer.
type mockRenderer struct{}

func (mockRenderer) Markdown(d *domain.Digest) string {
	return "# Digest " + d.WeekEnding.String()
}

var (
	_ driving.DigestService    = (*mockDigestService)(nil)
	_ driving.RetrievalService = (*mockRetrievalService)(nil)
	_ MarkdownRenderer         = mockRenderer{}
)

func mustDay(s string) domain.Day {
	d, err := domain.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleDigest() *domain.Digest {
	d := domain.NewEmptyDigest(mustDay("2026-01-08"), 5)
	d.ItemsIncluded = 1
	d.TopStories = []domain.DigestItem{{
		Title:      "SFDR review launched",
		URL:        "https://finance.example.eu/sfdr",
		Source:     "European Commission",
		Theme:      domain.ThemeRegulationCompliance,
		Importance: domain.ImportanceHigh,
		Geography:  domain.GeographyEU,
	}}
	d.ByTheme = map[domain.Theme]domain.ThemeSummary{domain.ThemeRegulationCompliance: {Count: 1}}
	return d
}

func samplePublished() *time.Time {
	t := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
	return &t
}
