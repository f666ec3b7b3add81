package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

var _ driven.LLMProbe = (*Prober)(nil)

// Prober builds a throwaway client for the settings and pings it.
type Prober struct {
	Timeout time.Duration
}

// NewProber returns a prober using the default ping timeout.
func NewProber() *Prober {
	return &Prober{Timeout: pingTimeout}
}

// Probe returns an ErrLLMUnavailable error when the provider cannot be
// built or does not answer within the timeout.
func (p *Prober) Probe(ctx context.Context, settings domain.LLMSettings) error {
	if !settings.IsConfigured() {
		return nil
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = pingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	svc, err := New(ctx, &settings)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	defer svc.Close()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s did not answer: %w", domain.ErrLLMUnavailable, settings.Provider, err)
	}
	return nil
}
