// Package websearch retrieves items through the Anthropic messages API web search tool.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/YX-UOM/Plithos/internal/adapters/driven/llm/anthropic"
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Ensure Retriever implements the interface.
var _ driven.Retriever = (*Retriever)(nil)

// Name is the retriever name used in item sources and warnings.
const Name = "websearch"

// Default configuration values.
const (
	DefaultModel     = anthropic.DefaultModel
	DefaultMaxUses   = 3
	DefaultMaxTokens = 2048
	DefaultTimeout   = 120 * time.Second

	toolType = "web_search_20250305"
	toolName = "web_search"
)

// Config holds web search settings.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	BaseURL string
	Model   string

	// MaxUses caps searches the model may run per query.
	MaxUses int

	Timeout time.Duration
}

// Retriever runs one web-search-enabled message per query.
type Retriever struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	maxUses int
	now     func() time.Time
}

type tool struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Tools     []tool    `json:"tools"`
	Messages  []message `json:"messages"`
}

// searchResult is one entry of a web_search_tool_result block.
type searchResult struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	PageAge string `json:"page_age"`
}

type citation struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	CitedText string `json:"cited_text"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Content   json.RawMessage `json:"content"`
	Citations []citation      `json:"citations"`
}

type response struct {
	Content []contentBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates a web search retriever.
func New(cfg Config) (*Retriever, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("websearch: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = anthropic.DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxUses <= 0 {
		cfg.MaxUses = DefaultMaxUses
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Retriever{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		maxUses: cfg.MaxUses,
		now:     time.Now,
	}, nil
}

// Name returns the retriever name.
func (r *Retriever) Name() string {
	return Name
}

// Search asks the model to search for one query and returns the raw search
// results it saw, with cited text as snippets.
func (r *Retriever) Search(ctx context.Context, query string, window domain.SearchWindow) ([]domain.RawItem, error) {
	after, before := window.Start().String(), window.End.AddDays(1).String()
	reqBody := request{
		Model:     r.model,
		MaxTokens: DefaultMaxTokens,
		Tools:     []tool{{Type: toolType, Name: toolName, MaxUses: r.maxUses}},
		Messages: []message{{
			Role: "user",
			Content: fmt.Sprintf("Search the web for news published from %s to %s (after:%s before:%s) about: %s\n"+
				"Cite each relevant article you find.", after, window.End, after, before, query),
		}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", anthropic.AnthropicVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: send request: %w", Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%s: %w", Name, domain.ErrRateLimited)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", Name, err)
	}

	var msg response
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", Name, resp.StatusCode, err)
	}
	if msg.Error != nil {
		return nil, fmt.Errorf("%s: %s", Name, msg.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", Name, resp.StatusCode)
	}

	return extractItems(msg, r.now()), nil
}

// extractItems collects search results in the order the tool returned them.
// Tool errors (an object instead of a list) are skipped.
func extractItems(msg response, now time.Time) []domain.RawItem {
	cited := make(map[string][]string)
	for _, block := range msg.Content {
		for _, c := range block.Citations {
			if text := strings.TrimSpace(c.CitedText); text != "" && c.URL != "" {
				cited[c.URL] = append(cited[c.URL], text)
			}
		}
	}

	items := []domain.RawItem{}
	seen := make(map[string]bool)
	for _, block := range msg.Content {
		if block.Type != "web_search_tool_result" {
			continue
		}
		var results []searchResult
		if err := json.Unmarshal(block.Content, &results); err != nil {
			continue
		}
		for _, res := range results {
			if res.URL == "" || seen[res.URL] {
				continue
			}
			seen[res.URL] = true
			item := domain.RawItem{
				Title:   strings.TrimSpace(res.Title),
				URL:     res.URL,
				Snippet: strings.Join(cited[res.URL], " "),
			}
			if published, ok := parsePageAge(res.PageAge, now); ok {
				item.PublishedAt = &published
			}
			items = append(items, item)
		}
	}
	return items
}

var pageAgeLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01-02",
	time.RFC3339,
}

// parsePageAge reads page_age values such as "3 days ago" or "January 5, 2026".
func parsePageAge(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d %s ago", &n, &unit); err == nil {
		unit = strings.TrimSuffix(unit, "s")
		switch unit {
		case "hour", "minute":
			return now.UTC(), true
		case "day":
			return now.UTC().AddDate(0, 0, -n), true
		case "week":
			return now.UTC().AddDate(0, 0, -7*n), true
		case "month":
			return now.UTC().AddDate(0, -n, 0), true
		}
		return time.Time{}, false
	}

	for _, layout := range pageAgeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
