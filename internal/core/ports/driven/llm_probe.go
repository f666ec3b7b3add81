package driven

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// LLMProbe checks that LLM settings reach a working model before they are
// relied on. An unconfigured provider passes.
type LLMProbe interface {
	Probe(ctx context.Context, settings domain.LLMSettings) error
}
