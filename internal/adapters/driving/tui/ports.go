// Package tui provides an interactive terminal browser for stored digests.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// TerminalRenderer renders a digest for the terminal.
type TerminalRenderer interface {
	Terminal(d *domain.Digest, width int) string
}

// Ports aggregates the driving ports and helpers required by the TUI.
type Ports struct {
	// Digests runs the pipeline and serves stored digests.
	Digests driving.DigestService

	// Renderer formats a digest for display.
	Renderer TerminalRenderer
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Digests == nil {
		return ErrMissingDigestService
	}
	if p.Renderer == nil {
		return ErrMissingRenderer
	}
	return nil
}
