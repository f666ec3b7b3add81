package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// Tool defaults.
const (
	DefaultRecentDigests = 5
	DefaultTrendWeeks    = 12
)

// SearchCategoryInput is the input schema for esg_search_category.
type SearchCategoryInput struct {
	Category string `json:"category" jsonschema:"registry category to search, e.g. news, regulatory, research, market"`
	DaysBack int    `json:"days_back,omitempty" jsonschema:"lookback window in days (default 7, max 14)"`
}

// SearchCategoryOutput is the output schema for esg_search_category.
type SearchCategoryOutput struct {
	Category string       `json:"category"`
	Items    []ItemOutput `json:"items"`
	Count    int          `json:"count"`
	Warnings []string     `json:"warnings"`
}

// ItemOutput is one retrieved item.
type ItemOutput struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet,omitempty"`
	Source      string `json:"source,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// GenerateDigestInput is the input schema for esg_generate_digest.
type GenerateDigestInput struct {
	WeekEnding string `json:"week_ending,omitempty" jsonschema:"last day covered, YYYY-MM-DD (default today)"`
	Days       int    `json:"days,omitempty" jsonschema:"lookback window in days (default 7, max 14)"`
	Overwrite  bool   `json:"overwrite,omitempty" jsonschema:"replace an existing digest for the same week"`
	DryRun     bool   `json:"dry_run,omitempty" jsonschema:"synthesise without storing or publishing"`
}

// GenerateDigestOutput is the output schema for esg_generate_digest.
type GenerateDigestOutput struct {
	RunID           string       `json:"run_id"`
	Persisted       bool         `json:"persisted"`
	RawCount        int          `json:"raw_count"`
	NormalisedCount int          `json:"normalised_count"`
	Files           []string     `json:"files"`
	Warnings        []string     `json:"warnings"`
	Digest          DigestOutput `json:"digest"`
}

// GetDigestInput is the input schema for esg_get_digest.
type GetDigestInput struct {
	WeekEnding string `json:"week_ending" jsonschema:"week ending date, YYYY-MM-DD"`
}

// DigestOutput mirrors the stored digest with a plain string date.
type DigestOutput struct {
	WeekEnding       string                               `json:"week_ending"`
	ItemsAnalyzed    int                                  `json:"items_analyzed"`
	ItemsIncluded    int                                  `json:"items_included"`
	TopStories       []domain.DigestItem                  `json:"top_stories"`
	ByTheme          map[domain.Theme]domain.ThemeSummary `json:"by_theme"`
	RegulatoryAlerts []domain.RegulatoryAlert             `json:"regulatory_alerts"`
	KeyStatistics    []domain.KeyStatistic                `json:"key_statistics"`
	Markdown         string                               `json:"markdown,omitempty"`
}

// ThemeTrendsInput is the input schema for esg_get_theme_trends.
type ThemeTrendsInput struct {
	Weeks int    `json:"weeks,omitempty" jsonschema:"number of weeks to look back (default 12)"`
	Theme string `json:"theme,omitempty" jsonschema:"limit to one taxonomy theme, e.g. green_finance"`
}

// ThemeTrendsOutput is the output schema for esg_get_theme_trends.
type ThemeTrendsOutput struct {
	Weeks  int                `json:"weeks"`
	Totals map[string]int     `json:"totals"`
	Series []TrendPointOutput `json:"series"`
}

// TrendPointOutput is one weekly theme count.
type TrendPointOutput struct {
	WeekEnding string `json:"week_ending"`
	Theme      string `json:"theme"`
	Count      int    `json:"count"`
}

// RecentDigestsInput is the input schema for esg_get_recent_digests.
type RecentDigestsInput struct {
	N int `json:"n,omitempty" jsonschema:"number of digests to return (default 5)"`
}

// RecentDigestsOutput is the output schema for esg_get_recent_digests.
type RecentDigestsOutput struct {
	Digests []DigestSummaryOutput `json:"digests"`
	Count   int                   `json:"count"`
}

// DigestSummaryOutput is a stored digest listing entry.
type DigestSummaryOutput struct {
	WeekEnding    string `json:"week_ending"`
	ItemsAnalyzed int    `json:"items_analyzed"`
	ItemsIncluded int    `json:"items_included"`
	CreatedAt     string `json:"created_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "esg_search_category",
		Description: "Search one ESG source category for recent real estate items",
	}, s.handleSearchCategory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "esg_generate_digest",
		Description: "Collect, analyse and store the weekly ESG real estate digest",
	}, s.handleGenerateDigest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "esg_get_digest",
		Description: "Get the stored digest for a week",
	}, s.handleGetDigest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "esg_get_theme_trends",
		Description: "Get weekly ESG theme counts across stored digests",
	}, s.handleThemeTrends)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "esg_get_recent_digests",
		Description: "List the most recent stored digests",
	}, s.handleRecentDigests)
}

// handleSearchCategory handles the esg_search_category tool invocation.
func (s *Server) handleSearchCategory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchCategoryInput,
) (*mcp.CallToolResult, SearchCategoryOutput, error) {
	if s.ports.Retrieval == nil {
		return nil, SearchCategoryOutput{}, ErrRetrievalUnavailable
	}

	window := domain.NewSearchWindow(domain.Today(), s.ports.Digests.Framework().EffectiveWindow(input.DaysBack))
	items, warnings, err := s.ports.Retrieval.SearchCategory(ctx, input.Category, window)
	if err != nil {
		return nil, SearchCategoryOutput{}, err
	}

	output := SearchCategoryOutput{
		Category: input.Category,
		Items:    make([]ItemOutput, len(items)),
		Count:    len(items),
		Warnings: nonNil(warnings),
	}
	for i, item := range items {
		output.Items[i] = ItemOutput{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Snippet,
			Source:  item.Source,
		}
		if item.PublishedAt != nil {
			output.Items[i].PublishedAt = item.PublishedAt.Format("2006-01-02")
		}
	}
	return nil, output, nil
}

// handleGenerateDigest handles the esg_generate_digest tool invocation.
func (s *Server) handleGenerateDigest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateDigestInput,
) (*mcp.CallToolResult, GenerateDigestOutput, error) {
	opts := driving.RunOptions{
		WindowDays:  input.Days,
		DryRun:      input.DryRun,
		SkipPublish: true,
	}
	if input.WeekEnding != "" {
		week, err := domain.ParseDay(input.WeekEnding)
		if err != nil {
			return nil, GenerateDigestOutput{}, err
		}
		opts.WeekEnding = week
	}
	if input.Overwrite {
		opts.Policy = domain.ConflictOverwrite
	}

	result, err := s.ports.Digests.Run(ctx, opts)
	if err != nil {
		return nil, GenerateDigestOutput{}, err
	}

	return nil, GenerateDigestOutput{
		RunID:           result.RunID,
		Persisted:       result.Persisted,
		RawCount:        result.RawCount,
		NormalisedCount: result.NormalisedCount,
		Files:           nonNil(result.Files),
		Warnings:        nonNil(result.Warnings),
		Digest:          s.digestOutput(result.Digest),
	}, nil
}

// handleGetDigest handles the esg_get_digest tool invocation.
func (s *Server) handleGetDigest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDigestInput,
) (*mcp.CallToolResult, DigestOutput, error) {
	week, err := domain.ParseDay(input.WeekEnding)
	if err != nil {
		return nil, DigestOutput{}, err
	}
	digest, err := s.ports.Digests.Get(ctx, week)
	if err != nil {
		return nil, DigestOutput{}, err
	}
	return nil, s.digestOutput(digest), nil
}

// handleThemeTrends handles the esg_get_theme_trends tool invocation.
func (s *Server) handleThemeTrends(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ThemeTrendsInput,
) (*mcp.CallToolResult, ThemeTrendsOutput, error) {
	weeks := input.Weeks
	if weeks <= 0 {
		weeks = DefaultTrendWeeks
	}

	points, err := s.ports.Digests.ThemeTrends(ctx, weeks, domain.Theme(input.Theme))
	if err != nil {
		return nil, ThemeTrendsOutput{}, err
	}

	output := ThemeTrendsOutput{
		Weeks:  weeks,
		Totals: make(map[string]int),
		Series: make([]TrendPointOutput, len(points)),
	}
	for i, p := range points {
		output.Series[i] = TrendPointOutput{WeekEnding: p.WeekEnding.String(), Theme: string(p.Theme), Count: p.Count}
		output.Totals[string(p.Theme)] += p.Count
	}
	return nil, output, nil
}

// handleRecentDigests handles the esg_get_recent_digests tool invocation.
func (s *Server) handleRecentDigests(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecentDigestsInput,
) (*mcp.CallToolResult, RecentDigestsOutput, error) {
	n := input.N
	if n <= 0 {
		n = DefaultRecentDigests
	}

	summaries, err := s.ports.Digests.Recent(ctx, n)
	if err != nil {
		return nil, RecentDigestsOutput{}, err
	}

	output := RecentDigestsOutput{
		Digests: make([]DigestSummaryOutput, len(summaries)),
		Count:   len(summaries),
	}
	for i, sum := range summaries {
		output.Digests[i] = DigestSummaryOutput{
			WeekEnding:    sum.WeekEnding.String(),
			ItemsAnalyzed: sum.ItemsAnalyzed,
			ItemsIncluded: sum.ItemsIncluded,
			CreatedAt:     sum.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}
	return nil, output, nil
}

func (s *Server) digestOutput(d *domain.Digest) DigestOutput {
	if d == nil {
		return DigestOutput{}
	}
	out := DigestOutput{
		WeekEnding:       d.WeekEnding.String(),
		ItemsAnalyzed:    d.ItemsAnalyzed,
		ItemsIncluded:    d.ItemsIncluded,
		TopStories:       nonNil(d.TopStories),
		ByTheme:          make(map[domain.Theme]domain.ThemeSummary, len(d.ByTheme)),
		RegulatoryAlerts: nonNil(d.RegulatoryAlerts),
		KeyStatistics:    nonNil(d.KeyStatistics),
	}
	for theme, summary := range d.ByTheme {
		summary.Highlights = nonNil(summary.Highlights)
		out.ByTheme[theme] = summary
	}
	if s.ports.Renderer != nil {
		out.Markdown = s.ports.Renderer.Markdown(d)
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
