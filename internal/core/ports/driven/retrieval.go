package driven

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// Retriever is a web search backend.
//
// Implementations may include:
//   - Google Programmable Search (customsearch)
//   - Gemini with Google Search grounding
//   - Anthropic messages API with the web search tool
type Retriever interface {
	// Name identifies the backend in logs and item sources.
	Name() string

	// Search returns raw items for one query published within the window.
	// No results is an empty slice, not an error. Errors mean transport or API failure.
	Search(ctx context.Context, query string, window domain.SearchWindow) ([]domain.RawItem, error)
}

// SourceFetcher retrieves items directly from a publisher page.
type SourceFetcher interface {
	// Fetch returns items linked from the source page.
	// Items without a known date are kept; the normalisation stage decides.
	Fetch(ctx context.Context, source domain.DirectSource, window domain.SearchWindow) ([]domain.RawItem, error)
}
