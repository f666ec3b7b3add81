package mcp

import (
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// MarkdownRenderer renders a digest as Markdown.
type MarkdownRenderer interface {
	Markdown(d *domain.Digest) string
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Digests runs the pipeline and serves stored digests.
	Digests driving.DigestService

	// Retrieval runs ad hoc category searches. Optional.
	Retrieval driving.RetrievalService

	// Renderer adds Markdown to digest outputs. Optional.
	Renderer MarkdownRenderer
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Digests == nil {
		return ErrMissingDigestService
	}
	return nil
}
