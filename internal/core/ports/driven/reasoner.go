package driven

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// Reasoner is the external classification step.
// Its answer is untrusted text that must be validated before use.
type Reasoner interface {
	// Analyze returns a digest-shaped JSON answer for the request.
	// An empty string with a nil error means the collaborator answered with nothing.
	Analyze(ctx context.Context, req AnalysisRequest) (string, error)
}

// AnalysisRequest is one call to the reasoning collaborator.
type AnalysisRequest struct {
	// Items are the normalised items for this call.
	Items []domain.RawItem

	// Framework is the rubric the answer must follow.
	Framework domain.AnalysisFramework

	// Registry supplies category weights and descriptions.
	Registry domain.SourceRegistry

	WeekEnding domain.Day
	WindowDays int

	// Chunk is the 1-based index of this call; Chunks is the total.
	Chunk  int
	Chunks int
}
