package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Ensure FileExporter implements the interface.
var _ driven.DigestExporter = (*FileExporter)(nil)

// FilePrefix starts every exported digest file name.
const FilePrefix = "esg_re_digest_"

// FileName returns the file name for a week and format, e.g. esg_re_digest_2026-01-08.md.
func FileName(weekEnding domain.Day, format domain.DigestFormat) string {
	ext := "md"
	if format == domain.FormatJSON {
		ext = "json"
	}
	return FilePrefix + weekEnding.String() + "." + ext
}

// FileExporter writes rendered digests into an output directory.
type FileExporter struct {
	renderer *Renderer
	dir      string
	formats  []domain.DigestFormat
}

// NewFileExporter creates an exporter. Empty formats default to markdown and json.
func NewFileExporter(renderer *Renderer, dir string, formats []domain.DigestFormat) *FileExporter {
	if dir == "" {
		dir = domain.DefaultOutputDir
	}
	if len(formats) == 0 {
		formats = []domain.DigestFormat{domain.FormatMarkdown, domain.FormatJSON}
	}
	return &FileExporter{renderer: renderer, dir: dir, formats: formats}
}

// Dir returns the output directory.
func (e *FileExporter) Dir() string {
	return e.dir
}

// Write renders the digest in each requested format and returns the written paths.
// Nil formats fall back to the configured ones.
func (e *FileExporter) Write(ctx context.Context, digest *domain.Digest, formats []domain.DigestFormat) ([]string, error) {
	if digest == nil {
		return nil, fmt.Errorf("%w: nil digest", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if formats == nil {
		formats = e.formats
	}

	var paths []string
	for _, format := range formats {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		var data []byte
		switch format {
		case domain.FormatMarkdown:
			data = []byte(e.renderer.Markdown(digest))
		case domain.FormatJSON:
			encoded, err := e.renderer.JSON(digest)
			if err != nil {
				return paths, err
			}
			data = encoded
		default:
			return paths, &domain.FormatError{Name: string(format)}
		}

		path := filepath.Join(e.dir, FileName(digest.WeekEnding, format))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debug("wrote %s (%d bytes)", path, len(data))
		paths = append(paths, path)
	}
	return paths, nil
}
