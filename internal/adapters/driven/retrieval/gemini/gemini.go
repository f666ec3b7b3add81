// Package gemini retrieves items through Gemini with Google Search grounding.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Ensure Retriever implements the interface.
var _ driven.Retriever = (*Retriever)(nil)

// Name is the retriever name used in item sources and warnings.
const Name = "gemini"

// DefaultTimeout bounds one grounded search.
const DefaultTimeout = 90 * time.Second

// Config holds Gemini grounding settings.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model must support the google_search tool (default: domain.DefaultGeminiModel).
	Model string

	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL string

	Timeout time.Duration
}

// Retriever asks Gemini to search and returns the grounding sources it cites.
type Retriever struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// New creates a grounded search retriever.
func New(ctx context.Context, cfg Config) (*Retriever, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Retriever{client: client, model: cfg.Model, timeout: cfg.Timeout}, nil
}

// Name returns the retriever name.
func (r *Retriever) Name() string {
	return Name
}

// Search grounds one query on Google Search. The model's prose is discarded;
// only the cited web sources become items.
func (r *Retriever) Search(ctx context.Context, query string, window domain.SearchWindow) ([]domain.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Search the web for news published between %s and %s inclusive about: %s\n"+
			"List each relevant article with its headline and a one sentence summary.",
		window.Start(), window.End, query)

	resp, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%s: %w", Name, domain.ErrRateLimited)
		}
		return nil, fmt.Errorf("%s: %w", Name, err)
	}

	return groundedItems(resp), nil
}

// groundedItems turns grounding chunks into items, using the supported
// answer segments as snippets.
func groundedItems(resp *genai.GenerateContentResponse) []domain.RawItem {
	items := []domain.RawItem{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return items
	}
	meta := resp.Candidates[0].GroundingMetadata

	snippets := make(map[int][]string)
	for _, support := range meta.GroundingSupports {
		if support == nil || support.Segment == nil {
			continue
		}
		text := strings.TrimSpace(support.Segment.Text)
		if text == "" {
			continue
		}
		for _, idx := range support.GroundingChunkIndices {
			snippets[int(idx)] = append(snippets[int(idx)], text)
		}
	}

	seen := make(map[string]bool)
	for i, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		title := strings.TrimSpace(chunk.Web.Title)
		items = append(items, domain.RawItem{
			Title:   title,
			URL:     chunk.Web.URI,
			Snippet: strings.Join(snippets[i], " "),
			Source:  title,
		})
	}
	return items
}
