package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Query defaults.
const (
	DefaultLimit = 5
	MaxLimit     = 104
	DefaultWeeks = 12
)

// DigestSummaryResponse is a stored digest listing entry.
type DigestSummaryResponse struct {
	WeekEnding    string `json:"week_ending"`
	ItemsAnalyzed int    `json:"items_analyzed"`
	ItemsIncluded int    `json:"items_included"`
	CreatedAt     string `json:"created_at"`
}

// DigestsResponse lists stored digests.
type DigestsResponse struct {
	Digests []DigestSummaryResponse `json:"digests"`
	Count   int                     `json:"count"`
}

// RunRequest starts a digest run.
type RunRequest struct {
	WeekEnding string `json:"week_ending"`
	Days       int    `json:"days"`
	Overwrite  bool   `json:"overwrite"`
	DryRun     bool   `json:"dry_run"`
}

// RunResponse describes a completed run.
type RunResponse struct {
	RunID           string         `json:"run_id"`
	Persisted       bool           `json:"persisted"`
	RawCount        int            `json:"raw_count"`
	NormalisedCount int            `json:"normalised_count"`
	Files           []string       `json:"files"`
	Warnings        []string       `json:"warnings"`
	Digest          *domain.Digest `json:"digest"`
}

// TrendPointResponse is one weekly theme count.
type TrendPointResponse struct {
	WeekEnding string `json:"week_ending"`
	Theme      string `json:"theme"`
	Count      int    `json:"count"`
}

// TrendsResponse is the weekly theme series.
type TrendsResponse struct {
	Weeks  int                  `json:"weeks"`
	Series []TrendPointResponse `json:"series"`
}

// SourcesResponse is the serialised registry.
type SourcesResponse struct {
	Categories    []domain.SourceCategory `json:"categories"`
	DirectSources []domain.DirectSource   `json:"direct_sources"`
	QueryCount    int                     `json:"query_count"`
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getFramework(c *gin.Context) {
	c.JSON(http.StatusOK, s.digests.Framework())
}

func (s *Server) getSources(c *gin.Context) {
	reg := s.digests.Registry()
	direct := reg.DirectSources()
	if direct == nil {
		direct = []domain.DirectSource{}
	}
	c.JSON(http.StatusOK, SourcesResponse{
		Categories:    reg.Categories(),
		DirectSources: direct,
		QueryCount:    reg.QueryCount(),
	})
}

func (s *Server) listDigests(c *gin.Context) {
	limit := min(getQueryInt("limit", DefaultLimit, c), MaxLimit)

	summaries, err := s.digests.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	res := DigestsResponse{
		Digests: make([]DigestSummaryResponse, len(summaries)),
		Count:   len(summaries),
	}
	for i, sum := range summaries {
		res.Digests[i] = DigestSummaryResponse{
			WeekEnding:    sum.WeekEnding.String(),
			ItemsAnalyzed: sum.ItemsAnalyzed,
			ItemsIncluded: sum.ItemsIncluded,
			CreatedAt:     sum.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getDigest(c *gin.Context) {
	week, err := domain.ParseDay(c.Param("week"))
	if err != nil {
		writeError(c, err)
		return
	}

	digest, err := s.digests.Get(c.Request.Context(), week)
	if err != nil {
		writeError(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "markdown", "md":
		if s.renderer == nil {
			c.JSON(http.StatusNotAcceptable, gin.H{"error": "markdown rendering not available"})
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(s.renderer.Markdown(digest)))
	case "json":
		c.JSON(http.StatusOK, digest)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or markdown"})
	}
}

func (s *Server) runDigest(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	opts := driving.RunOptions{WindowDays: req.Days, DryRun: req.DryRun}
	if req.WeekEnding != "" {
		week, err := domain.ParseDay(req.WeekEnding)
		if err != nil {
			writeError(c, err)
			return
		}
		opts.WeekEnding = week
	}
	if req.Overwrite {
		opts.Policy = domain.ConflictOverwrite
	}

	result, err := s.digests.Run(c.Request.Context(), opts)
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Persisted {
		status = http.StatusOK
	}
	c.JSON(status, RunResponse{
		RunID:           result.RunID,
		Persisted:       result.Persisted,
		RawCount:        result.RawCount,
		NormalisedCount: result.NormalisedCount,
		Files:           nonNil(result.Files),
		Warnings:        nonNil(result.Warnings),
		Digest:          result.Digest,
	})
}

func (s *Server) getThemeFrequency(c *gin.Context) {
	weeks := getQueryInt("weeks", DefaultWeeks, c)

	freq, err := s.digests.ThemeFrequency(c.Request.Context(), weeks)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weeks": weeks, "counts": freq})
}

func (s *Server) getThemeTrends(c *gin.Context) {
	weeks := getQueryInt("weeks", DefaultWeeks, c)

	points, err := s.digests.ThemeTrends(c.Request.Context(), weeks, domain.Theme(c.Query("theme")))
	if err != nil {
		writeError(c, err)
		return
	}

	res := TrendsResponse{Weeks: weeks, Series: make([]TrendPointResponse, len(points))}
	for i, p := range points {
		res.Series[i] = TrendPointResponse{WeekEnding: p.WeekEnding.String(), Theme: string(p.Theme), Count: p.Count}
	}
	c.JSON(http.StatusOK, res)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateWeek):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrDelegationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrRetrievalFailure),
		errors.Is(err, domain.ErrDelegationFailure),
		errors.Is(err, domain.ErrEmptyResponse),
		errors.Is(err, domain.ErrMalformedResponse),
		errors.Is(err, domain.ErrSchemaViolation),
		errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("httpapi: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func getQueryInt(name string, defaultValue int, c *gin.Context) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		logger.Warn("httpapi: invalid %s=%q, using %d", name, raw, defaultValue)
		return defaultValue
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
