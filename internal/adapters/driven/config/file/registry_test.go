package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), RegistryFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadRegistry_MissingFileReturnsBase(t *testing.T) {
	base := domain.DefaultSourceRegistry()

	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"), base)

	require.NoError(t, err)
	assert.Equal(t, base.CategoryNames(), reg.CategoryNames())
	assert.Equal(t, base.QueryCount(), reg.QueryCount())
}

func TestLoadRegistry_Merge(t *testing.T) {
	path := writeRegistry(t, `
categories:
  - name: Regulatory
    description: UK only
    queries:
      - "MEES 2027 consultation"
      - "MEES 2027 consultation"
    jurisdictions: [UK]
    weight: 1
  - name: local
    queries: ["London retrofit grants"]
    weight: 0.5
direct_sources:
  - name: GRESB Insights
    url: https://gresb.example.com/insights
    category: industry
  - name: BPF
    url: https://bpf.example.com/news
    category: industry
`)
	base := domain.DefaultSourceRegistry()

	reg, err := LoadRegistry(path, base)

	require.NoError(t, err)
	assert.Len(t, reg.CategoryNames(), len(base.CategoryNames())+1)

	regulatory, ok := reg.Category(domain.CategoryRegulatory)
	require.True(t, ok)
	assert.Equal(t, "UK only", regulatory.Description)
	assert.Equal(t, []string{"MEES 2027 consultation"}, regulatory.Queries)
	assert.Equal(t, []domain.Geography{domain.GeographyUK}, regulatory.Jurisdictions)

	local, ok := reg.Category("local")
	require.True(t, ok)
	assert.InDelta(t, 0.5, local.Weight, 0.001)

	direct := reg.DirectSources()
	assert.Len(t, direct, len(base.DirectSources())+1)
	var gresbURL string
	for _, d := range direct {
		if d.Name == "GRESB Insights" {
			gresbURL = d.URL
		}
	}
	assert.Equal(t, "https://gresb.example.com/insights", gresbURL)
}

func TestLoadRegistry_Replace(t *testing.T) {
	path := writeRegistry(t, `
replace: true
categories:
  - name: news
    queries: ["green lease"]
    weight: 0.8
`)

	reg, err := LoadRegistry(path, domain.DefaultSourceRegistry())

	require.NoError(t, err)
	assert.Equal(t, []string{"news"}, reg.CategoryNames())
	assert.Empty(t, reg.DirectSources())
}

func TestLoadRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "categorys: []\n"},
		{"bad yaml", "categories: [\n"},
		{"weight out of range", "categories:\n  - name: news\n    weight: 3\n"},
		{"direct without url", "direct_sources:\n  - name: nowhere\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry(writeRegistry(t, tt.content), domain.DefaultSourceRegistry())
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestLoadRegistry_EmptyFileReturnsBase(t *testing.T) {
	base := domain.DefaultSourceRegistry()

	reg, err := LoadRegistry(writeRegistry(t, ""), base)

	require.NoError(t, err)
	assert.Equal(t, base.QueryCount(), reg.QueryCount())
}

func TestSaveRegistry_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", RegistryFile)
	base := domain.DefaultSourceRegistry()

	require.NoError(t, SaveRegistry(path, base))

	// Replace mode means the saved file stands alone.
	empty, err := domain.NewSourceRegistry(nil, nil)
	require.NoError(t, err)
	reg, err := LoadRegistry(path, empty)
	require.NoError(t, err)
	assert.Equal(t, base.Categories(), reg.Categories())
	assert.Equal(t, base.DirectSources(), reg.DirectSources())
}

func TestDefaultRegistryPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv(HomeEnv, home)

	path, err := DefaultRegistryPath()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, RegistryFile), path)
}
