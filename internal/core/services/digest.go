package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Ensure DigestService implements the interface.
var _ driving.DigestService = (*DigestService)(nil)

// DigestServiceConfig holds run defaults.
type DigestServiceConfig struct {
	// WindowDays is used when a run does not specify one.
	WindowDays int

	// Policy is used when a run does not specify one.
	Policy domain.ConflictPolicy
}

// DigestService runs the weekly pipeline: retrieve, synthesise, persist,
// then export and publish.
type DigestService struct {
	retrieval  driving.RetrievalService
	engine     *SynthesisEngine
	store      driven.DigestStore
	exporter   driven.DigestExporter
	publishers []driven.Publisher
	registry   domain.SourceRegistry
	config     DigestServiceConfig

	now   func() time.Time
	newID func() string
}

// NewDigestService creates a digest service.
// exporter and publishers are optional.
func NewDigestService(
	retrieval driving.RetrievalService,
	engine *SynthesisEngine,
	store driven.DigestStore,
	registry domain.SourceRegistry,
	config DigestServiceConfig,
) *DigestService {
	if config.WindowDays <= 0 {
		config.WindowDays = domain.DefaultWindowDays
	}
	if !config.Policy.IsValid() {
		config.Policy = domain.ConflictReject
	}
	return &DigestService{
		retrieval: retrieval,
		engine:    engine,
		store:     store,
		registry:  registry,
		config:    config,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SetExporter sets the file exporter used after a successful persist.
func (s *DigestService) SetExporter(exporter driven.DigestExporter) {
	s.exporter = exporter
}

// AddPublisher registers a delivery channel used after a successful persist.
func (s *DigestService) AddPublisher(p driven.Publisher) {
	if p != nil {
		s.publishers = append(s.publishers, p)
	}
}

// Framework returns the analysis framework in use.
func (s *DigestService) Framework() domain.AnalysisFramework {
	return s.engine.Framework()
}

// Registry returns the source registry in use.
func (s *DigestService) Registry() domain.SourceRegistry {
	return s.registry
}

// Run executes one digest run. The store write is the last core step: any
// failure before it leaves the store untouched. Export and publish failures
// after it are reported as warnings.
func (s *DigestService) Run(ctx context.Context, opts driving.RunOptions) (*driving.RunResult, error) {
	week := opts.WeekEnding
	if week.IsZero() {
		week = domain.NewDay(s.now())
	}
	window := opts.WindowDays
	if window <= 0 {
		window = s.config.WindowDays
	}
	policy := opts.Policy
	if policy == "" {
		policy = s.config.Policy
	}
	if !policy.IsValid() {
		return nil, fmt.Errorf("%w: conflict policy %q", domain.ErrInvalidInput, policy)
	}

	result := &driving.RunResult{RunID: s.newID()}
	logger.Section(fmt.Sprintf("Digest run %s (week ending %s, %d days)", result.RunID, week, window))

	// A rejected week is detected before any retrieval or model call.
	if !opts.DryRun && policy == domain.ConflictReject {
		if _, err := s.store.Get(ctx, week); err == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateWeek, week)
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("check existing digest: %w", err)
		}
	}

	raw, warnings, err := s.retrieval.Collect(ctx, domain.NewSearchWindow(week, s.engine.Framework().EffectiveWindow(window)))
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return nil, err
	}

	synthesis, err := s.engine.Synthesise(ctx, raw, week, window)
	if err != nil {
		return nil, err
	}
	result.Digest = synthesis.Digest
	result.RawCount = synthesis.RawCount
	result.NormalisedCount = len(synthesis.Items)

	if opts.DryRun {
		return result, nil
	}

	record, err := domain.NewDigestRecord(s.newID(), synthesis.Digest, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, record, policy); err != nil {
		return nil, err
	}
	result.Record = &record
	result.Persisted = true
	logger.Info("digest: persisted week %s (%d/%d items)", week, record.ItemsIncluded, record.ItemsAnalyzed)

	if s.exporter != nil {
		files, err := s.exporter.Write(ctx, synthesis.Digest, opts.Formats)
		result.Files = files
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("export: %v", err))
		}
	}

	if !opts.SkipPublish {
		for _, p := range s.publishers {
			if err := p.Publish(ctx, synthesis.Digest); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("publish %s: %v", p.Name(), err))
				logger.Warn("publish %s: %v", p.Name(), err)
			}
		}
	}
	return result, nil
}

// Get returns the stored digest for a week.
func (s *DigestService) Get(ctx context.Context, weekEnding domain.Day) (*domain.Digest, error) {
	record, err := s.store.Get(ctx, weekEnding)
	if err != nil {
		return nil, err
	}
	return record.Decode()
}

// Recent returns summaries of the latest n digests, newest first.
func (s *DigestService) Recent(ctx context.Context, n int) ([]domain.DigestSummary, error) {
	if n <= 0 {
		n = 5
	}
	records, err := s.store.List(ctx, n)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.DigestSummary, len(records))
	for i, r := range records {
		summaries[i] = r.Summary()
	}
	return summaries, nil
}

// ThemeFrequency totals story counts per theme over the last n weeks.
func (s *DigestService) ThemeFrequency(ctx context.Context, weeks int) (map[domain.Theme]int, error) {
	return s.store.ThemeFrequency(ctx, s.since(weeks))
}

// ThemeTrends returns weekly theme counts over the last n weeks.
func (s *DigestService) ThemeTrends(ctx context.Context, weeks int, theme domain.Theme) ([]domain.ThemeTrendPoint, error) {
	if theme != "" && !s.engine.Framework().IsTheme(theme) {
		return nil, fmt.Errorf("%w: unknown theme %q", domain.ErrInvalidInput, theme)
	}
	return s.store.ThemeTrend(ctx, s.since(weeks), theme)
}

func (s *DigestService) since(weeks int) domain.Day {
	if weeks <= 0 {
		weeks = 12
	}
	return domain.NewDay(s.now()).AddDays(-7 * weeks)
}
