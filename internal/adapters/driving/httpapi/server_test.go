package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

type fakeDigests struct {
	digest  *domain.Digest
	recent  []domain.DigestSummary
	trend   []domain.ThemeTrendPoint
	freq    map[domain.Theme]int
	result  *driving.RunResult
	err     error
	lastRun driving.RunOptions
	lastN   int
	weeks   int
	theme   domain.Theme
}

func (f *fakeDigests) Run(_ context.Context, opts driving.RunOptions) (*driving.RunResult, error) {
	f.lastRun = opts
	return f.result, f.err
}

func (f *fakeDigests) Get(_ context.Context, _ domain.Day) (*domain.Digest, error) {
	return f.digest, f.err
}

func (f *fakeDigests) Recent(_ context.Context, n int) ([]domain.DigestSummary, error) {
	f.lastN = n
	return f.recent, f.err
}

func (f *fakeDigests) ThemeFrequency(_ context.Context, weeks int) (map[domain.Theme]int, error) {
	f.weeks = weeks
	return f.freq, f.err
}

func (f *fakeDigests) ThemeTrends(_ context.Context, weeks int, theme domain.Theme) ([]domain.ThemeTrendPoint, error) {
	f.weeks, f.theme = weeks, theme
	return f.trend, f.err
}

func (f *fakeDigests) Framework() domain.AnalysisFramework { return domain.DefaultFramework() }

func (f *fakeDigests) Registry() domain.SourceRegistry { return domain.DefaultSourceRegistry() }

type fakeRenderer struct{}

func (fakeRenderer) Markdown(d *domain.Digest) string { return "# Digest " + d.WeekEnding.String() }

func (fakeRenderer) JSON(d *domain.Digest) ([]byte, error) { return json.Marshal(d) }

func mustDay(t *testing.T, s string) domain.Day {
	t.Helper()
	d, err := domain.ParseDay(s)
	require.NoError(t, err)
	return d
}

func newTestServer(t *testing.T, f *fakeDigests) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := NewServer(f, fakeRenderer{}, Config{AllowedOrigins: []string{"http://localhost:3000"}})
	require.NoError(t, err)
	return s
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestNewServer(t *testing.T) {
	s, err := NewServer(&fakeDigests{}, nil, Config{})

	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, s.Addr())
}

func TestNewServer_MissingDigests(t *testing.T) {
	s, err := NewServer(nil, nil, Config{})

	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrMissingDigestService)
}

func TestHealth(t *testing.T) {
	w := do(newTestServer(t, &fakeDigests{}), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCORS_AllowedOrigin(t *testing.T) {
	s := newTestServer(t, &fakeDigests{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestListDigests(t *testing.T) {
	created := time.Date(2026, 1, 8, 9, 30, 0, 0, time.UTC)
	f := &fakeDigests{recent: []domain.DigestSummary{
		{WeekEnding: mustDay(t, "2026-01-08"), ItemsAnalyzed: 37, ItemsIncluded: 23, CreatedAt: created},
	}}

	w := do(newTestServer(t, f), http.MethodGet, "/api/digests?limit=3", "")

	require.Equal(t, http.StatusOK, w.Code)
	var res DigestsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 3, f.lastN)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "2026-01-08", res.Digests[0].WeekEnding)
	assert.Equal(t, "2026-01-08T09:30:00Z", res.Digests[0].CreatedAt)
}

func TestListDigests_LimitDefaultsAndCap(t *testing.T) {
	f := &fakeDigests{}
	s := newTestServer(t, f)

	w := do(s, http.MethodGet, "/api/digests?limit=abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, DefaultLimit, f.lastN)
	assert.JSONEq(t, `{"digests":[],"count":0}`, w.Body.String())

	do(s, http.MethodGet, "/api/digests?limit=5000", "")
	assert.Equal(t, MaxLimit, f.lastN)
}

func TestGetDigest(t *testing.T) {
	week := mustDay(t, "2026-01-08")
	f := &fakeDigests{digest: domain.NewEmptyDigest(week, 4)}
	s := newTestServer(t, f)

	w := do(s, http.MethodGet, "/api/digests/2026-01-08", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Digest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.WeekEnding.Equal(week))
	assert.Equal(t, 4, got.ItemsAnalyzed)

	w = do(s, http.MethodGet, "/api/digests/2026-01-08?format=markdown", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Digest 2026-01-08", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")

	w = do(s, http.MethodGet, "/api/digests/2026-01-08?format=pdf", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDigest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{name: "bad week", target: "/api/digests/last-week", want: http.StatusBadRequest},
		{name: "not found", target: "/api/digests/2026-01-08", err: fmt.Errorf("get: %w", domain.ErrNotFound), want: http.StatusNotFound},
		{name: "store failure", target: "/api/digests/2026-01-08", err: errors.New("disk I/O"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newTestServer(t, &fakeDigests{err: tt.err}), http.MethodGet, tt.target, "")

			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "disk I/O")
		})
	}
}

func TestGetDigest_MarkdownWithoutRenderer(t *testing.T) {
	f := &fakeDigests{digest: domain.NewEmptyDigest(mustDay(t, "2026-01-08"), 0)}
	s, err := NewServer(f, nil, Config{})
	require.NoError(t, err)

	w := do(s, http.MethodGet, "/api/digests/2026-01-08?format=md", "")

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
}

func TestRunDigest(t *testing.T) {
	week := mustDay(t, "2026-01-08")
	f := &fakeDigests{result: &driving.RunResult{
		RunID:     "run-1",
		Persisted: true,
		RawCount:  45,
		Digest:    domain.NewEmptyDigest(week, 37),
	}}

	w := do(newTestServer(t, f), http.MethodPost, "/api/digests",
		`{"week_ending":"2026-01-08","days":10,"overwrite":true}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, f.lastRun.WeekEnding.Equal(week))
	assert.Equal(t, 10, f.lastRun.WindowDays)
	assert.Equal(t, domain.ConflictOverwrite, f.lastRun.Policy)

	var res RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 45, res.RawCount)
	assert.Equal(t, []string{}, res.Files)
	assert.Equal(t, 37, res.Digest.ItemsAnalyzed)
}

func TestRunDigest_EmptyBodyDryRun(t *testing.T) {
	f := &fakeDigests{result: &driving.RunResult{RunID: "run-2"}}

	w := do(newTestServer(t, f), http.MethodPost, "/api/digests", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, driving.RunOptions{}, f.lastRun)
}

func TestRunDigest_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{name: "malformed body", body: `{"days":`, want: http.StatusBadRequest},
		{name: "bad week", body: `{"week_ending":"08/01/2026"}`, want: http.StatusBadRequest},
		{name: "duplicate week", body: `{}`, err: domain.ErrDuplicateWeek, want: http.StatusConflict},
		{name: "retrieval failure", body: `{}`, err: domain.ErrRetrievalFailure, want: http.StatusBadGateway},
		{name: "delegation timeout", body: `{}`, err: domain.ErrDelegationTimeout, want: http.StatusGatewayTimeout},
		{name: "rate limited", body: `{}`, err: domain.ErrRateLimited, want: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newTestServer(t, &fakeDigests{err: tt.err}), http.MethodPost, "/api/digests", tt.body)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestThemeFrequency(t *testing.T) {
	f := &fakeDigests{freq: map[domain.Theme]int{domain.ThemeGreenFinance: 7}}

	w := do(newTestServer(t, f), http.MethodGet, "/api/themes/frequency?weeks=4", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, f.weeks)
	assert.JSONEq(t, `{"weeks":4,"counts":{"green_finance":7}}`, w.Body.String())
}

func TestThemeTrends(t *testing.T) {
	f := &fakeDigests{trend: []domain.ThemeTrendPoint{
		{WeekEnding: mustDay(t, "2026-01-08"), Theme: domain.ThemeClimateRisk, Count: 2},
	}}

	w := do(newTestServer(t, f), http.MethodGet, "/api/themes/trends?theme=climate_risk", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, DefaultWeeks, f.weeks)
	assert.Equal(t, domain.ThemeClimateRisk, f.theme)
	assert.JSONEq(t,
		`{"weeks":12,"series":[{"week_ending":"2026-01-08","theme":"climate_risk","count":2}]}`,
		w.Body.String())
}

func TestThemeTrends_UnknownTheme(t *testing.T) {
	f := &fakeDigests{err: fmt.Errorf("%w: unknown theme", domain.ErrInvalidInput)}

	w := do(newTestServer(t, f), http.MethodGet, "/api/themes/trends?theme=biodiversity", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFrameworkAndSources(t *testing.T) {
	s := newTestServer(t, &fakeDigests{})

	w := do(s, http.MethodGet, "/api/framework", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "green_finance")

	w = do(s, http.MethodGet, "/api/sources", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res SourcesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, domain.DefaultSourceRegistry().QueryCount(), res.QueryCount)
	assert.NotEmpty(t, res.Categories)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s, err := NewServer(&fakeDigests{}, nil, Config{Addr: "127.0.0.1:0"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_MCPMount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var hits []string
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.Method)
		w.WriteHeader(http.StatusAccepted)
	})

	s, err := NewServer(&fakeDigests{}, nil, Config{MCP: mcpHandler})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, do(s, http.MethodPost, "/mcp", `{"jsonrpc":"2.0"}`).Code)
	assert.Equal(t, http.StatusAccepted, do(s, http.MethodGet, "/mcp", "").Code)
	assert.Equal(t, []string{http.MethodPost, http.MethodGet}, hits)

	plain := newTestServer(t, &fakeDigests{})
	assert.Equal(t, http.StatusNotFound, do(plain, http.MethodPost, "/mcp", `{}`).Code)
}
