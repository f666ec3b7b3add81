// Package reasoning adapts an LLM service into the digest Reasoner port.
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Ensure LLMReasoner implements the interface.
var _ driven.Reasoner = (*LLMReasoner)(nil)

// DefaultTemperature keeps classification close to deterministic.
const DefaultTemperature = 0.2

// Config tunes the requests sent to the model.
type Config struct {
	// MaxTokens bounds the answer length (default: domain.DefaultMaxTokens).
	MaxTokens int

	// Temperature is passed through to the provider (default: 0.2).
	Temperature float64
}

// LLMReasoner asks a chat model to classify a batch of items.
type LLMReasoner struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	config  Config
}

// NewLLMReasoner creates a reasoner. prompts may be nil, in which case the
// built-in templates are used.
func NewLLMReasoner(llm driven.LLMService, prompts driven.PromptStore, cfg Config) *LLMReasoner {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = domain.DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &LLMReasoner{llm: llm, prompts: prompts, config: cfg}
}

// Analyze sends one batch and returns the model's raw answer.
func (r *LLMReasoner) Analyze(ctx context.Context, req driven.AnalysisRequest) (string, error) {
	if r.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	messages, err := r.Messages(req)
	if err != nil {
		return "", err
	}

	answer, err := r.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   r.config.MaxTokens,
		Temperature: r.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", r.llm.ModelName(), err)
	}
	return answer, nil
}

// Messages builds the system and user turns for a request.
func (r *LLMReasoner) Messages(req driven.AnalysisRequest) ([]driven.ChatMessage, error) {
	system, err := r.load(driven.PromptDigestSystem)
	if err != nil {
		return nil, err
	}
	userTmpl, err := r.load(driven.PromptDigestUser)
	if err != nil {
		return nil, err
	}

	items, err := json.MarshalIndent(promptItems(req.Items), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	chunk, chunks := req.Chunk, req.Chunks
	if chunks <= 0 {
		chunk, chunks = 1, 1
	}

	return []driven.ChatMessage{
		{Role: "system", Content: system + "\n\n" + Rubric(req.Framework, req.Registry)},
		{Role: "user", Content: fillUserPrompt(userTmpl, req.WeekEnding.String(), req.WindowDays, chunk, chunks, string(items))},
	}, nil
}

// fillUserPrompt substitutes the placeholders in one pass, so item text that
// happens to contain a placeholder is left alone. A template that dropped
// {items} still gets the batch appended.
func fillUserPrompt(tmpl, week string, window, chunk, chunks int, items string) string {
	if !strings.Contains(tmpl, driven.PromptVarItems) {
		tmpl += "\n\n" + driven.PromptVarItems
	}
	return strings.NewReplacer(
		driven.PromptVarWeekEnding, week,
		driven.PromptVarWindowDays, strconv.Itoa(window),
		driven.PromptVarChunk, strconv.Itoa(chunk),
		driven.PromptVarChunks, strconv.Itoa(chunks),
		driven.PromptVarItems, items,
	).Replace(tmpl)
}

func (r *LLMReasoner) load(name string) (string, error) {
	if r.prompts == nil {
		return builtinPrompt(name)
	}
	prompt, err := r.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", name, err)
	}
	return prompt, nil
}

// promptItem is the per-item view the model sees.
type promptItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet,omitempty"`
	Source    string `json:"source,omitempty"`
	Category  string `json:"category,omitempty"`
	Published string `json:"published,omitempty"`
}

func promptItems(items []domain.RawItem) []promptItem {
	out := make([]promptItem, len(items))
	for i, it := range items {
		out[i] = promptItem{
			Title:    it.Title,
			URL:      it.URL,
			Snippet:  it.Snippet,
			Source:   it.Source,
			Category: it.Category,
		}
		if it.PublishedAt != nil {
			out[i].Published = it.PublishedAt.UTC().Format("2006-01-02")
		}
	}
	return out
}

// Rubric renders the framework and category weights as prompt text.
func Rubric(fw domain.AnalysisFramework, registry domain.SourceRegistry) string {
	var b strings.Builder

	b.WriteString("RELEVANCE (score each item 0.0 to 1.0)\n")
	for _, band := range fw.RelevanceBands() {
		fmt.Fprintf(&b, "- %.1f-%.1f %s: %s\n", band.Min, band.Max, band.Label, band.Description)
	}
	fmt.Fprintf(&b, "Exclude items scoring below %.1f.\n\n", fw.ExclusionFloor())

	b.WriteString("THEMES (use these exact keys for theme and by_theme)\n")
	for _, def := range fw.ThemeDefinitions() {
		fmt.Fprintf(&b, "- %s: %s\n", def.Theme, strings.Join(def.Keywords, ", "))
	}
	b.WriteString("\n")

	b.WriteString("IMPORTANCE\n")
	for _, band := range fw.ImportanceBands() {
		fmt.Fprintf(&b, "- %s:\n", band.Level)
		for _, c := range band.Conditions {
			fmt.Fprintf(&b, "  * %s\n", c)
		}
	}
	b.WriteString("\n")

	geos := fw.Geographies()
	names := make([]string, len(geos))
	for i, g := range geos {
		names[i] = string(g)
	}
	fmt.Fprintf(&b, "GEOGRAPHY: one of %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "RECENCY: ignore items published more than %d days before the week ending date.\n", fw.MaxWindowDays())

	if cats := registry.Categories(); len(cats) > 0 {
		b.WriteString("\nSOURCE CATEGORIES (weight is how much to trust the category)\n")
		for _, c := range cats {
			fmt.Fprintf(&b, "- %s (weight %.1f)", c.Name, c.Weight)
			if c.Description != "" {
				fmt.Fprintf(&b, ": %s", c.Description)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
