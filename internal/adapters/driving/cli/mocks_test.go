package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// mockDigestService implements driving.DigestService.
type mockDigestService struct {
	runFunc    func(ctx context.Context, opts driving.RunOptions) (*driving.RunResult, error)
	getFunc    func(ctx context.Context, week domain.Day) (*domain.Digest, error)
	recentFunc func(ctx context.Context, n int) ([]domain.DigestSummary, error)
	freqFunc   func(ctx context.Context, weeks int) (map[domain.Theme]int, error)
	trendsFunc func(ctx context.Context, weeks int, theme domain.Theme) ([]domain.ThemeTrendPoint, error)
	registry   *domain.SourceRegistry

	runOpts []driving.RunOptions
}

func (m *mockDigestService) Run(ctx context.Context, opts driving.RunOptions) (*driving.RunResult, error) {
	m.runOpts = append(m.runOpts, opts)
	if m.runFunc != nil {
		return m.runFunc(ctx, opts)
	}
	week := opts.WeekEnding
	if week.IsZero() {
		week = domain.Today()
	}
	return &driving.RunResult{RunID: "run-1", Digest: domain.NewEmptyDigest(week, 0), Persisted: !opts.DryRun}, nil
}

func (m *mockDigestService) Get(ctx context.Context, week domain.Day) (*domain.Digest, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, week)
	}
	return nil, domain.ErrNotFound
}

func (m *mockDigestService) Recent(ctx context.Context, n int) ([]domain.DigestSummary, error) {
	if m.recentFunc != nil {
		return m.recentFunc(ctx, n)
	}
	return nil, nil
}

func (m *mockDigestService) ThemeFrequency(ctx context.Context, weeks int) (map[domain.Theme]int, error) {
	if m.freqFunc != nil {
		return m.freqFunc(ctx, weeks)
	}
	return map[domain.Theme]int{}, nil
}

func (m *mockDigestService) ThemeTrends(
	ctx context.Context, weeks int, theme domain.Theme,
) ([]domain.ThemeTrendPoint, error) {
	if m.trendsFunc != nil {
		return m.trendsFunc(ctx, weeks, theme)
	}
	return nil, nil
}

func (m *mockDigestService) Framework() domain.AnalysisFramework {
	return domain.DefaultFramework()
}

func (m *mockDigestService) Registry() domain.SourceRegistry {
	if m.registry != nil {
		return *m.registry
	}
	return domain.DefaultSourceRegistry()
}

// mockRetrievalService implements driving.RetrievalService.
type mockRetrievalService struct {
	items    []domain.RawItem
	warnings []string
	err      error

	category string
	window   domain.SearchWindow
}

func (m *mockRetrievalService) Collect(context.Context, domain.SearchWindow) (map[string][]domain.RawItem, []string, error) {
	return nil, nil, m.err
}

func (m *mockRetrievalService) SearchCategory(
	_ context.Context, category string, window domain.SearchWindow,
) ([]domain.RawItem, []string, error) {
	m.category = category
	m.window = window
	return m.items, m.warnings, m.err
}

// mockSettingsService implements driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	llmErr      error

	set       map[string]string
	llm       []string
	retrieval []domain.RetrievalProvider
}

func newMockSettings() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), set: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if !strings.Contains(key, ".") {
		return domain.ErrInvalidInput
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"llm.provider", "digest.window_days"}
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(p), model, apiKey}
	return nil
}

func (m *mockSettingsService) SetRetrievalProviders(providers []domain.RetrievalProvider) error {
	m.retrieval = providers
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateLLMConfig() error { return m.llmErr }

// mockRenderer implements DigestRenderer.
type mockRenderer struct{}

func (mockRenderer) Markdown(d *domain.Digest) string {
	return "# Digest " + d.WeekEnding.String() + "\n"
}

func (mockRenderer) JSON(d *domain.Digest) ([]byte, error) {
	return []byte(`{"week_ending":"` + d.WeekEnding.String() + `"}`), nil
}

func (mockRenderer) Terminal(d *domain.Digest, _ int) string {
	return "TERMINAL " + d.WeekEnding.String()
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	digests   *mockDigestService
	retrieval *mockRetrievalService
	settings  *mockSettingsService
}

// setupTestServices installs mock services and resets command flags.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		digests:   &mockDigestService{},
		retrieval: &mockRetrievalService{},
		settings:  newMockSettings(),
	}

	prevServices, prevBootstrap := services, bootstrap
	services = &Services{
		Digests:   ts.digests,
		Retrieval: ts.retrieval,
		Settings:  ts.settings,
		Renderer:  mockRenderer{},
	}
	bootstrap = nil
	resetFlags()

	t.Cleanup(func() {
		services, bootstrap = prevServices, prevBootstrap
		resetFlags()
	})
	return ts
}

// resetFlags restores flag variables, which cobra keeps between executions.
func resetFlags() {
	runDays, runStart, runEnd, runFormat = 0, "", "", ""
	runOverwrite, runDryRun, runNoPublish, runShowDigest = false, false, false, false
	showFormat = "terminal"
	digestsLimit, digestsJSON = defaultDigestLimit, false
	trendsWeeks, trendsTheme = defaultTrendWeeks, ""
	sourcesSearchDays = 0
	scheduleHistory = defaultHistoryLimit
	serveAddr, serveCORS, serveMCP = "", nil, false
	versionJSON = false
	verbose, ephemeral = false, false
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func mustDay(t *testing.T, s string) domain.Day {
	t.Helper()
	d, err := domain.ParseDay(s)
	require.NoError(t, err)
	return d
}
