package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService fans registry queries out to every configured retriever.
type RetrievalService struct {
	registry    domain.SourceRegistry
	retrievers  []driven.Retriever
	fetcher     driven.SourceFetcher
	concurrency int
}

// NewRetrievalService creates a retrieval service.
// fetcher may be nil, in which case direct sources are skipped.
func NewRetrievalService(
	registry domain.SourceRegistry,
	retrievers []driven.Retriever,
	fetcher driven.SourceFetcher,
	concurrency int,
) *RetrievalService {
	if concurrency <= 0 {
		concurrency = domain.DefaultConcurrency
	}
	return &RetrievalService{
		registry:    registry,
		retrievers:  retrievers,
		fetcher:     fetcher,
		concurrency: concurrency,
	}
}

// retrievalJob is one query against one retriever, or one direct source fetch.
type retrievalJob struct {
	category  string
	query     string
	retriever driven.Retriever
	direct    *domain.DirectSource
}

func (j retrievalJob) label() string {
	if j.direct != nil {
		return fmt.Sprintf("direct %s", j.direct.Name)
	}
	return fmt.Sprintf("%s %q via %s", j.category, j.query, j.retriever.Name())
}

type jobResult struct {
	items []domain.RawItem
	err   error
}

// Collect runs every registry query and direct source.
func (s *RetrievalService) Collect(ctx context.Context, window domain.SearchWindow) (map[string][]domain.RawItem, []string, error) {
	var jobs []retrievalJob
	for _, category := range s.registry.Categories() {
		jobs = append(jobs, s.queryJobs(category)...)
	}
	if s.fetcher != nil {
		for _, source := range s.registry.DirectSources() {
			source := source
			jobs = append(jobs, retrievalJob{category: source.Category, direct: &source})
		}
	}
	return s.run(ctx, jobs, window)
}

// SearchCategory runs the queries of a single category.
func (s *RetrievalService) SearchCategory(ctx context.Context, category string, window domain.SearchWindow) ([]domain.RawItem, []string, error) {
	cat, ok := s.registry.Category(category)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown category %q (available: %s)",
			domain.ErrInvalidInput, category, strings.Join(s.registry.CategoryNames(), ", "))
	}
	byCategory, warnings, err := s.run(ctx, s.queryJobs(cat), window)
	if err != nil {
		return nil, warnings, err
	}
	return byCategory[cat.Name], warnings, nil
}

func (s *RetrievalService) queryJobs(category domain.SourceCategory) []retrievalJob {
	var jobs []retrievalJob
	for _, query := range category.Queries {
		for _, r := range s.retrievers {
			jobs = append(jobs, retrievalJob{category: category.Name, query: query, retriever: r})
		}
	}
	return jobs
}

// run executes jobs with bounded concurrency. Results are assembled in job
// order so output does not depend on completion order.
func (s *RetrievalService) run(ctx context.Context, jobs []retrievalJob, window domain.SearchWindow) (map[string][]domain.RawItem, []string, error) {
	if len(jobs) == 0 {
		return nil, nil, fmt.Errorf("%w: no retrievers configured", domain.ErrRetrievalFailure)
	}

	done := logger.Timed(fmt.Sprintf("retrieval (%d jobs, %s)", len(jobs), window))
	defer done()

	results := make([]jobResult, len(jobs))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range jobs {
		select {
		case <-ctx.Done():
			results[i].err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = s.runJob(ctx, jobs[i], window)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailure, err)
	}

	byCategory := make(map[string][]domain.RawItem)
	var warnings []string
	var lastErr error
	failed := 0

	for i, res := range results {
		job := jobs[i]
		if res.err != nil {
			failed++
			lastErr = res.err
			warning := fmt.Sprintf("%s: %v", job.label(), res.err)
			warnings = append(warnings, warning)
			logger.Warn("retrieval: %s", warning)
			continue
		}
		for _, item := range res.items {
			item.Category = job.category
			if item.Source == "" {
				if job.direct != nil {
					item.Source = job.direct.Name
				} else {
					item.Source = job.retriever.Name()
				}
			}
			byCategory[job.category] = append(byCategory[job.category], item)
		}
	}

	if failed == len(jobs) {
		return nil, warnings, fmt.Errorf("%w: all %d queries failed: %w", domain.ErrRetrievalFailure, failed, lastErr)
	}
	logger.Info("retrieval: %d/%d jobs succeeded", len(jobs)-failed, len(jobs))
	return byCategory, warnings, nil
}

func (s *RetrievalService) runJob(ctx context.Context, job retrievalJob, window domain.SearchWindow) jobResult {
	var items []domain.RawItem
	var err error
	if job.direct != nil {
		items, err = s.fetcher.Fetch(ctx, *job.direct, window)
	} else {
		items, err = job.retriever.Search(ctx, job.query, window)
	}
	return jobResult{items: items, err: err}
}
