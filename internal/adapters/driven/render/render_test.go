package render

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

func mustDay(t *testing.T, s string) domain.Day {
	t.Helper()
	d, err := domain.ParseDay(s)
	require.NoError(t, err)
	return d
}

func testDigest(t *testing.T) *domain.Digest {
	t.Helper()
	d := domain.NewEmptyDigest(mustDay(t, "2026-01-08"), 12)
	d.ItemsIncluded = 2
	d.TopStories = []domain.DigestItem{
		{
			Title:      "EU adopts [revised] EPBD",
			Source:     "European Commission",
			URL:        "https://ec.example.eu/epbd",
			Summary:    "Zero-emission buildings required for new builds from 2030.",
			Theme:      domain.ThemeRegulationCompliance,
			Importance: domain.ImportanceHigh,
			Geography:  domain.GeographyEU,
		},
		{
			Title:      "GRESB publishes 2026 scoring changes",
			Source:     "GRESB",
			URL:        "https://gresb.example.com/2026",
			Theme:      domain.ThemeCertificationRatings,
			Importance: domain.ImportanceMedium,
		},
	}
	d.ByTheme = map[domain.Theme]domain.ThemeSummary{
		domain.ThemeCertificationRatings: {Count: 1, Highlights: []string{"GRESB scoring update"}},
		domain.ThemeRegulationCompliance: {Count: 1, Highlights: []string{"EPBD recast adopted"}},
	}
	d.RegulatoryAlerts = []domain.RegulatoryAlert{
		{Title: "MEES | EPC C", Deadline: "2027-04-01", ActionRequired: "Audit lettable stock"},
	}
	d.KeyStatistics = []domain.KeyStatistic{
		{Metric: "Green bond issuance", Value: "$12bn", Source: "BloombergNEF"},
	}
	return d
}

func newTestRenderer() *Renderer {
	r := New(domain.DefaultFramework())
	r.now = func() time.Time { return time.Date(2026, 1, 9, 8, 0, 0, 0, time.UTC) }
	return r
}

func TestPeriod(t *testing.T) {
	assert.Equal(t, "January 02 - January 08, 2026", Period(mustDay(t, "2026-01-08")))
	assert.Equal(t, "December 29 - January 04, 2026", Period(mustDay(t, "2026-01-04")))
}

func TestFileName(t *testing.T) {
	week := mustDay(t, "2026-01-08")

	assert.Equal(t, "esg_re_digest_2026-01-08.md", FileName(week, domain.FormatMarkdown))
	assert.Equal(t, "esg_re_digest_2026-01-08.json", FileName(week, domain.FormatJSON))
}

func TestRenderer_Markdown(t *testing.T) {
	md := newTestRenderer().Markdown(testDigest(t))

	assert.True(t, strings.HasPrefix(md, "# ESG in Real Estate Weekly Digest\n## January 02 - January 08, 2026\n"))
	assert.Contains(t, md, "**Items analyzed:** 12 | **Items included:** 2")
	assert.Contains(t, md, `### 1. [EU adopts \[revised\] EPBD](https://ec.example.eu/epbd)`)
	assert.Contains(t, md, "**Importance:** High | **Theme:** Regulation Compliance | **Geography:** EU | **Source:** European Commission")
	assert.Contains(t, md, "| MEES \\| EPC C | 2027-04-01 | Audit lettable stock |")
	assert.Contains(t, md, "- **Green bond issuance:** $12bn (BloombergNEF)")
	assert.Contains(t, md, "*Generated 2026-01-09*")

	// Sections appear in a fixed order.
	order := []string{"## Top Stories", "## By Theme", "## Regulatory Alerts", "## Key Statistics", "## Sources"}
	last := -1
	for _, heading := range order {
		idx := strings.Index(md, heading)
		require.NotEqual(t, -1, idx, heading)
		assert.Greater(t, idx, last, heading)
		last = idx
	}

	// Themes follow taxonomy order, not map order.
	assert.Less(t, strings.Index(md, "### Regulation Compliance (1)"), strings.Index(md, "### Certification Ratings (1)"))
}

func TestRenderer_Markdown_Empty(t *testing.T) {
	md := newTestRenderer().Markdown(domain.NewEmptyDigest(mustDay(t, "2026-01-08"), 0))

	assert.Contains(t, md, "**Items analyzed:** 0 | **Items included:** 0")
	assert.Equal(t, 5, strings.Count(md, noItems))
}

func TestRenderer_JSON(t *testing.T) {
	data, err := newTestRenderer().JSON(testDigest(t))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"week_ending", "items_analyzed", "items_included", "top_stories", "by_theme", "regulatory_alerts", "key_statistics"} {
		assert.Contains(t, decoded, key)
	}
	assert.Len(t, decoded, 7)
	assert.Equal(t, "2026-01-08", decoded["week_ending"])
}

func TestRenderer_Email(t *testing.T) {
	msg, err := newTestRenderer().Email(testDigest(t))
	require.NoError(t, err)

	assert.Equal(t, "ESG in Real Estate Weekly Digest: week ending 2026-01-08 (2 items)", msg.Subject)
	assert.Contains(t, msg.Text, "## Top Stories")
	assert.Contains(t, msg.HTML, "January 02 - January 08, 2026")
	assert.Contains(t, msg.HTML, `class="badge badge-high"`)
	assert.Contains(t, msg.HTML, "MEES | EPC C")
	assert.Contains(t, msg.HTML, "Regulation Compliance")
	assert.Contains(t, msg.HTML, "2 of 12 items included")
}

func TestRenderer_Email_EscapesContent(t *testing.T) {
	d := testDigest(t)
	d.TopStories[0].Summary = "<script>alert(1)</script>"

	msg, err := newTestRenderer().Email(d)
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>alert(1)</script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestRenderer_Terminal(t *testing.T) {
	out := newTestRenderer().Terminal(testDigest(t), 0)

	assert.Contains(t, out, Title)
	assert.Contains(t, out, "EU adopts [revised] EPBD")
	assert.Contains(t, out, "Regulatory Alerts")
	assert.Contains(t, out, "Green bond issuance")
}

func TestRenderer_Terminal_Empty(t *testing.T) {
	out := newTestRenderer().Terminal(domain.NewEmptyDigest(mustDay(t, "2026-01-08"), 0), 60)

	assert.Contains(t, out, "nothing reported")
	assert.NotContains(t, out, "Regulatory Alerts")
}

func TestFileExporter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	exporter := NewFileExporter(newTestRenderer(), dir, nil)

	paths, err := exporter.Write(context.Background(), testDigest(t), nil)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "esg_re_digest_2026-01-08.md"),
		filepath.Join(dir, "esg_re_digest_2026-01-08.json"),
	}, paths)

	md, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(md), "# ESG in Real Estate Weekly Digest")

	raw, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	var decoded domain.Digest
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 2, decoded.ItemsIncluded)
}

func TestFileExporter_Write_SingleFormat(t *testing.T) {
	dir := t.TempDir()
	exporter := NewFileExporter(newTestRenderer(), dir, []domain.DigestFormat{domain.FormatJSON})

	paths, err := exporter.Write(context.Background(), testDigest(t), nil)

	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ".json", filepath.Ext(paths[0]))
	assert.Equal(t, dir, exporter.Dir())
}

func TestFileExporter_Write_FormatOverride(t *testing.T) {
	exporter := NewFileExporter(newTestRenderer(), t.TempDir(), nil)

	paths, err := exporter.Write(context.Background(), testDigest(t), []domain.DigestFormat{domain.FormatMarkdown})

	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, ".md", filepath.Ext(paths[0]))
}

func TestFileExporter_Write_Errors(t *testing.T) {
	t.Run("nil digest", func(t *testing.T) {
		_, err := NewFileExporter(newTestRenderer(), t.TempDir(), nil).Write(context.Background(), nil, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown format", func(t *testing.T) {
		exporter := NewFileExporter(newTestRenderer(), t.TempDir(), []domain.DigestFormat{"pdf"})
		_, err := exporter.Write(context.Background(), testDigest(t), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		paths, err := NewFileExporter(newTestRenderer(), t.TempDir(), nil).Write(ctx, testDigest(t), nil)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, paths)
	})
}
