package reasoning

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	answer   string
	err      error
	messages []driven.ChatMessage
	opts     driven.ChatOptions
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.messages = messages
	m.opts = opts
	return m.answer, m.err
}

func (m *mockLLM) ModelName() string           { return "mock-model" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mockPrompts implements driven.PromptStore for testing.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("missing")
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

func testRequest(t *testing.T) driven.AnalysisRequest {
	t.Helper()
	week, err := domain.ParseDay("2026-01-08")
	require.NoError(t, err)
	published := time.Date(2026, 1, 6, 15, 0, 0, 0, time.UTC)
	return driven.AnalysisRequest{
		Items: []domain.RawItem{
			{Title: "EU adopts EPBD recast", URL: "https://ec.example.com/epbd", Category: "regulatory", PublishedAt: &published},
			{Title: "GRESB 2026 results", URL: "https://gresb.example.com/r", Snippet: "Scores rose"},
		},
		Framework:  domain.DefaultFramework(),
		Registry:   domain.DefaultSourceRegistry(),
		WeekEnding: week,
		WindowDays: 7,
		Chunk:      2,
		Chunks:     3,
	}
}

func TestLLMReasoner_Analyze(t *testing.T) {
	llm := &mockLLM{answer: `{"top_stories":[]}`}
	prompts := &mockPrompts{prompts: map[string]string{
		driven.PromptDigestSystem: "SYSTEM",
		driven.PromptDigestUser:   "week={week_ending} window={window_days} chunk={chunk}/{chunks} items={items}",
	}}
	r := NewLLMReasoner(llm, prompts, Config{MaxTokens: 1234})

	answer, err := r.Analyze(context.Background(), testRequest(t))

	require.NoError(t, err)
	assert.Equal(t, `{"top_stories":[]}`, answer)
	assert.Equal(t, 1234, llm.opts.MaxTokens)
	assert.InDelta(t, DefaultTemperature, llm.opts.Temperature, 0.0001)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.True(t, strings.HasPrefix(llm.messages[0].Content, "SYSTEM\n\n"))
	assert.Contains(t, llm.messages[0].Content, "carbon_emissions")

	user := llm.messages[1].Content
	assert.Contains(t, user, "week=2026-01-08 window=7 chunk=2/3")
	assert.Contains(t, user, `"url": "https://ec.example.com/epbd"`)
	assert.Contains(t, user, `"published": "2026-01-06"`)
	assert.Contains(t, user, `"snippet": "Scores rose"`)
}

func TestLLMReasoner_Analyze_Errors(t *testing.T) {
	t.Run("no llm", func(t *testing.T) {
		_, err := NewLLMReasoner(nil, nil, Config{}).Analyze(context.Background(), testRequest(t))
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("provider error keeps cause", func(t *testing.T) {
		llm := &mockLLM{err: domain.ErrRateLimited}
		_, err := NewLLMReasoner(llm, nil, Config{}).Analyze(context.Background(), testRequest(t))
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.Contains(t, err.Error(), "mock-model")
	})

	t.Run("prompt load error", func(t *testing.T) {
		llm := &mockLLM{}
		_, err := NewLLMReasoner(llm, &mockPrompts{}, Config{}).Analyze(context.Background(), testRequest(t))
		assert.ErrorContains(t, err, "digest_system")
	})
}

func TestLLMReasoner_EditedUserPromptKeepsPercent(t *testing.T) {
	prompts := &mockPrompts{prompts: map[string]string{
		driven.PromptDigestSystem: "SYSTEM",
		driven.PromptDigestUser:   "40% of buildings miss EPC C. Week {week_ending}, 100%% sure.",
	}}
	r := NewLLMReasoner(&mockLLM{}, prompts, Config{})

	messages, err := r.Messages(testRequest(t))

	require.NoError(t, err)
	user := messages[1].Content
	assert.True(t, strings.HasPrefix(user, "40% of buildings miss EPC C. Week 2026-01-08, 100%% sure."))
	assert.NotContains(t, user, "%!")
	assert.Contains(t, user, `"url": "https://ec.example.com/epbd"`)
}

func TestFillUserPrompt(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"all placeholders", "{week_ending}|{window_days}|{chunk}/{chunks}|{items}", "2026-01-08|7|2/3|[X]"},
		{"repeated", "{chunk}{chunk}", "22\n\n[X]"},
		{"items appended when missing", "Week {week_ending}", "Week 2026-01-08\n\n[X]"},
		{"unknown braces kept", "{other} {items}", "{other} [X]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fillUserPrompt(tt.tmpl, "2026-01-08", 7, 2, 3, "[X]"))
		})
	}

	assert.Equal(t, "items: {week_ending}", fillUserPrompt("items: {items}", "2026-01-08", 7, 1, 1, "{week_ending}"))
}

func TestLLMReasoner_BuiltinPrompts(t *testing.T) {
	r := NewLLMReasoner(&mockLLM{}, nil, Config{})
	req := testRequest(t)
	req.Chunk, req.Chunks = 0, 0

	messages, err := r.Messages(req)

	require.NoError(t, err)
	assert.Contains(t, messages[0].Content, "key_statistics")
	assert.Contains(t, messages[1].Content, "Batch 1 of 1")
	assert.NotContains(t, messages[1].Content, "{items}")
	assert.Equal(t, domain.DefaultMaxTokens, r.config.MaxTokens)
}

func TestRubric(t *testing.T) {
	reg, err := domain.NewSourceRegistry([]domain.SourceCategory{
		{Name: "regulatory", Description: "Regulators and standard setters", Queries: []string{"q"}, Weight: 1},
	}, nil)
	require.NoError(t, err)

	rubric := Rubric(domain.DefaultFramework(), reg)

	assert.Contains(t, rubric, "Exclude items scoring below 0.4.")
	for _, theme := range domain.DefaultFramework().Themes() {
		assert.Contains(t, rubric, "- "+string(theme)+":")
	}
	assert.Contains(t, rubric, "- high:")
	assert.Contains(t, rubric, "GEOGRAPHY: one of UK, EU, US, APAC, Global")
	assert.Contains(t, rubric, "more than 14 days")
	assert.Contains(t, rubric, "- regulatory (weight 1.0): Regulators and standard setters")
}
