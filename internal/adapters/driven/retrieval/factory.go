// Package retrieval wires the configured search backends behind a shared
// rate limiter.
package retrieval

import (
	"context"
	"fmt"

	"github.com/YX-UOM/Plithos/internal/adapters/driven/retrieval/customsearch"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/retrieval/direct"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/retrieval/gemini"
	"github.com/YX-UOM/Plithos/internal/adapters/driven/retrieval/websearch"
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Backends is the result of Build.
type Backends struct {
	Retrievers []driven.Retriever
	// Fetcher is nil when direct sources are disabled.
	Fetcher driven.SourceFetcher
	// Warnings name providers that were enabled but could not be built.
	Warnings []string
}

// Build creates every enabled provider. A provider missing its credentials
// is skipped with a warning; having none at all is ErrRetrievalFailure.
func Build(ctx context.Context, settings domain.RetrievalSettings) (*Backends, error) {
	limiter := NewRateLimiter(settings.RequestsPerMinute)
	b := &Backends{}

	for _, provider := range settings.Providers {
		r, err := create(ctx, provider, settings)
		if err != nil {
			b.Warnings = append(b.Warnings, fmt.Sprintf("%s: %v", provider, err))
			continue
		}
		b.Retrievers = append(b.Retrievers, WithRateLimit(r, limiter))
	}

	if settings.DirectSources {
		b.Fetcher = direct.New(nil, 0)
	}

	if len(b.Retrievers) == 0 && b.Fetcher == nil {
		return b, fmt.Errorf("%w: no search provider is configured (set retrieval.providers and its API keys)",
			domain.ErrRetrievalFailure)
	}
	return b, nil
}

func create(ctx context.Context, provider domain.RetrievalProvider, s domain.RetrievalSettings) (driven.Retriever, error) {
	switch provider {
	case domain.RetrievalCustomSearch:
		return customsearch.New(ctx, customsearch.Config{
			APIKey:   s.GoogleAPIKey,
			EngineID: s.GoogleCSEID,
			Results:  s.ResultsPerQuery,
		})
	case domain.RetrievalGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey: s.GeminiAPIKey,
			Model:  s.GeminiModel,
		})
	case domain.RetrievalWebSearch:
		return websearch.New(websearch.Config{APIKey: s.AnthropicAPIKey})
	default:
		return nil, fmt.Errorf("unsupported retrieval provider: %s", provider)
	}
}
