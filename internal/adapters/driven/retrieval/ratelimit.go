package retrieval

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// DefaultRateLimitBackoff is the pause after a provider reports a rate limit.
const DefaultRateLimitBackoff = 60 * time.Second

// RateLimiter is a token bucket shared by every retriever, with a backoff
// window that opens when any provider answers 429.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	backoff time.Duration
}

// NewRateLimiter allows perMinute requests per minute with a burst of one.
// Zero or negative disables the token bucket but keeps the backoff.
func NewRateLimiter(perMinute int) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(limit, 1),
		backoff: DefaultRateLimitBackoff,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError pushes every caller back by the backoff period.
func (r *RateLimiter) RecordRateLimitError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(r.backoff)
}

// limited wraps a Retriever so each search waits on the shared limiter.
type limited struct {
	driven.Retriever
	limiter *RateLimiter
}

// WithRateLimit returns r throttled by limiter.
func WithRateLimit(r driven.Retriever, limiter *RateLimiter) driven.Retriever {
	if limiter == nil {
		return r
	}
	return &limited{Retriever: r, limiter: limiter}
}

func (l *limited) Search(ctx context.Context, query string, window domain.SearchWindow) ([]domain.RawItem, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	items, err := l.Retriever.Search(ctx, query, window)
	if errors.Is(err, domain.ErrRateLimited) {
		logger.Warn("retrieval: %s rate limited, backing off %s", l.Name(), l.limiter.backoff)
		l.limiter.RecordRateLimitError()
	}
	return items, err
}
