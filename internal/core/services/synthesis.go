package services

import (
	"context"
	"fmt"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Synthesis is the outcome of one synthesis pass.
type Synthesis struct {
	Digest *domain.Digest

	// Items are the normalised items handed to the reasoner.
	Items []domain.RawItem

	// RawCount is the number of items before normalisation.
	RawCount int

	Report *ValidationReport
}

// SynthesisEngine turns raw items into one validated digest:
// normalise, delegate, then validate and repair.
type SynthesisEngine struct {
	framework domain.AnalysisFramework
	registry  domain.SourceRegistry
	delegator *Delegator
	validator *Validator
}

// NewSynthesisEngine creates an engine. The framework is fixed for its lifetime.
func NewSynthesisEngine(fw domain.AnalysisFramework, registry domain.SourceRegistry, delegator *Delegator) *SynthesisEngine {
	return &SynthesisEngine{
		framework: fw,
		registry:  registry,
		delegator: delegator,
		validator: NewValidator(fw),
	}
}

// Framework returns the engine's analysis framework.
func (e *SynthesisEngine) Framework() domain.AnalysisFramework {
	return e.framework
}

// Synthesise produces a digest for the week. An empty normalised set yields an
// empty digest without calling the reasoner.
func (e *SynthesisEngine) Synthesise(
	ctx context.Context,
	raw map[string][]domain.RawItem,
	weekEnding domain.Day,
	windowDays int,
) (*Synthesis, error) {
	if weekEnding.IsZero() {
		return nil, fmt.Errorf("%w: week ending is required", domain.ErrInvalidInput)
	}

	rawCount := 0
	for _, items := range raw {
		rawCount += len(items)
	}

	done := logger.Timed("normalise")
	items := Normalise(raw, weekEnding, windowDays, e.framework)
	done()
	logger.Info("normalise: %d raw items -> %d unique in-window items", rawCount, len(items))

	result := &Synthesis{Items: items, RawCount: rawCount}
	if len(items) == 0 {
		result.Digest = domain.NewEmptyDigest(weekEnding, 0)
		result.Report = &ValidationReport{}
		return result, nil
	}

	done = logger.Timed("delegate")
	responses, err := e.delegator.Delegate(ctx, items, e.framework, e.registry, weekEnding, e.framework.EffectiveWindow(windowDays))
	done()
	if err != nil {
		return nil, err
	}

	digest, report, err := e.validator.Validate(responses, weekEnding, len(items))
	if err != nil {
		return nil, err
	}
	if err := digest.CheckInvariants(e.framework); err != nil {
		return nil, err
	}
	logger.Info("validate: %d of %d items included, %d repairs", digest.ItemsIncluded, digest.ItemsAnalyzed, len(report.Repairs()))

	result.Digest = digest
	result.Report = report
	return result, nil
}
