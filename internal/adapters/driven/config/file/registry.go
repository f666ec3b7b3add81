package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// RegistryFile is the default overlay file name inside HomeDir().
const RegistryFile = "sources.yaml"

// registryDoc is the on-disk shape of a registry overlay.
type registryDoc struct {
	// Replace discards the base registry instead of merging into it.
	Replace       bool                    `yaml:"replace,omitempty"`
	Categories    []domain.SourceCategory `yaml:"categories,omitempty"`
	DirectSources []domain.DirectSource   `yaml:"direct_sources,omitempty"`
}

// DefaultRegistryPath returns HomeDir()/sources.yaml.
func DefaultRegistryPath() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, RegistryFile), nil
}

// LoadRegistry overlays the YAML file at path onto base.
// Categories and direct sources replace base entries of the same name and
// are appended otherwise. A missing file returns base unchanged.
func LoadRegistry(path string, base domain.SourceRegistry) (domain.SourceRegistry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return base, nil
	}
	if err != nil {
		return domain.SourceRegistry{}, fmt.Errorf("read registry %s: %w", path, err)
	}

	var doc registryDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return domain.SourceRegistry{}, fmt.Errorf("%w: parse registry %s: %w", domain.ErrInvalidInput, path, err)
	}

	categories := doc.Categories
	direct := doc.DirectSources
	if !doc.Replace {
		categories = mergeCategories(base.Categories(), doc.Categories)
		direct = mergeDirect(base.DirectSources(), doc.DirectSources)
	}

	reg, err := domain.NewSourceRegistry(categories, direct)
	if err != nil {
		return domain.SourceRegistry{}, fmt.Errorf("registry %s: %w", path, err)
	}
	return reg, nil
}

// SaveRegistry writes reg as a full replacement overlay. Used to seed a file
// the user can edit.
func SaveRegistry(path string, reg domain.SourceRegistry) error {
	doc := registryDoc{
		Replace:       true,
		Categories:    reg.Categories(),
		DirectSources: reg.DirectSources(),
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0600)
}

func mergeCategories(base, overlay []domain.SourceCategory) []domain.SourceCategory {
	index := make(map[string]int, len(base))
	merged := append([]domain.SourceCategory(nil), base...)
	for i, c := range merged {
		index[c.Name] = i
	}
	for _, c := range overlay {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if i, ok := index[key]; ok {
			merged[i] = c
			continue
		}
		index[key] = len(merged)
		merged = append(merged, c)
	}
	return merged
}

func mergeDirect(base, overlay []domain.DirectSource) []domain.DirectSource {
	index := make(map[string]int, len(base))
	merged := append([]domain.DirectSource(nil), base...)
	for i, d := range merged {
		index[strings.ToLower(d.Name)] = i
	}
	for _, d := range overlay {
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if i, ok := index[key]; ok {
			merged[i] = d
			continue
		}
		index[key] = len(merged)
		merged = append(merged, d)
	}
	return merged
}
