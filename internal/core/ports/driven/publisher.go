package driven

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// DigestExporter writes rendered digest files.
type DigestExporter interface {
	// Write renders the digest and returns the paths written.
	// Nil formats use the exporter's configured formats.
	Write(ctx context.Context, digest *domain.Digest, formats []domain.DigestFormat) ([]string, error)
}

// Publisher delivers a persisted digest to readers.
type Publisher interface {
	// Name identifies the channel in warnings.
	Name() string

	// Publish delivers the digest.
	Publish(ctx context.Context, digest *domain.Digest) error
}
