package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// DelegatorConfig bounds calls to the reasoning collaborator.
type DelegatorConfig struct {
	// Timeout applies to each attempt separately.
	Timeout time.Duration

	// MaxAttempts is the total number of tries per request.
	MaxAttempts int

	// Backoff is the wait before the second attempt; it doubles afterwards.
	Backoff time.Duration

	// ChunkSize is the maximum number of items per request.
	ChunkSize int
}

// DefaultDelegatorConfig returns the default delegation bounds.
func DefaultDelegatorConfig() DelegatorConfig {
	return DelegatorConfig{
		Timeout:     domain.DefaultDelegationTimeout,
		MaxAttempts: domain.DefaultMaxAttempts,
		Backoff:     domain.DefaultBackoff,
		ChunkSize:   domain.DefaultChunkSize,
	}
}

// Delegator hands normalised items to the reasoning collaborator with a
// per-attempt timeout and bounded retries.
type Delegator struct {
	reasoner driven.Reasoner
	config   DelegatorConfig
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewDelegator creates a delegator. Zero config fields take defaults.
func NewDelegator(reasoner driven.Reasoner, config DelegatorConfig) *Delegator {
	defaults := DefaultDelegatorConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.Backoff < 0 {
		config.Backoff = 0
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaults.ChunkSize
	}
	return &Delegator{
		reasoner: reasoner,
		config:   config,
		sleep:    sleepContext,
	}
}

// Config returns the effective configuration.
func (d *Delegator) Config() DelegatorConfig {
	return d.config
}

// Delegate sends the items in ceil(n/ChunkSize) requests and returns one
// response per request. Zero items make no call and return no responses.
//
// Errors wrap ErrDelegationTimeout, ErrDelegationFailure or ErrEmptyResponse
// according to the last failed attempt. An ErrLLMUnavailable answer is not
// retried.
func (d *Delegator) Delegate(
	ctx context.Context,
	items []domain.RawItem,
	fw domain.AnalysisFramework,
	registry domain.SourceRegistry,
	weekEnding domain.Day,
	windowDays int,
) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if d.reasoner == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDelegationFailure, domain.ErrLLMUnavailable)
	}

	chunks := chunkItems(items, d.config.ChunkSize)
	responses := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		req := driven.AnalysisRequest{
			Items:      chunk,
			Framework:  fw,
			Registry:   registry,
			WeekEnding: weekEnding,
			WindowDays: windowDays,
			Chunk:      i + 1,
			Chunks:     len(chunks),
		}
		resp, err := d.analyzeWithRetry(ctx, req)
		if err != nil {
			if len(chunks) > 1 {
				return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (d *Delegator) analyzeWithRetry(ctx context.Context, req driven.AnalysisRequest) (string, error) {
	var lastErr error
	backoff := d.config.Backoff

	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
		resp, err := d.reasoner.Analyze(attemptCtx, req)
		deadlineHit := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		cancel()

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrDelegationFailure, ctx.Err())
		}

		switch {
		case err == nil && strings.TrimSpace(resp) != "":
			if attempt > 1 {
				logger.Info("delegation: chunk %d/%d succeeded on attempt %d", req.Chunk, req.Chunks, attempt)
			}
			return resp, nil
		case err == nil:
			lastErr = fmt.Errorf("%w: attempt %d", domain.ErrEmptyResponse, attempt)
		case deadlineHit || errors.Is(err, context.DeadlineExceeded):
			lastErr = fmt.Errorf("%w: attempt %d exceeded %s", domain.ErrDelegationTimeout, attempt, d.config.Timeout)
		case errors.Is(err, domain.ErrLLMUnavailable):
			// Bad key, unknown model or nothing listening.
			return "", fmt.Errorf("%w: attempt %d: %w", domain.ErrDelegationFailure, attempt, err)
		default:
			lastErr = fmt.Errorf("%w: attempt %d: %w", domain.ErrDelegationFailure, attempt, err)
		}
		logger.Warn("delegation: chunk %d/%d: %v", req.Chunk, req.Chunks, lastErr)

		if attempt < d.config.MaxAttempts && backoff > 0 {
			if err := d.sleep(ctx, backoff); err != nil {
				return "", fmt.Errorf("%w: %w", domain.ErrDelegationFailure, err)
			}
			backoff *= 2
		}
	}
	return "", lastErr
}

func chunkItems(items []domain.RawItem, size int) [][]domain.RawItem {
	var chunks [][]domain.RawItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
