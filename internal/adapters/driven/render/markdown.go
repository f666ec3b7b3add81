// Package render turns validated digests into Markdown, JSON, HTML email and
// terminal output, and writes digest files to disk.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// Title is the heading used by every rendered digest.
const Title = "ESG in Real Estate Weekly Digest"

const noItems = "_Nothing reported this week._"

// Renderer renders digests against an analysis framework.
type Renderer struct {
	fw   domain.AnalysisFramework
	now  func() time.Time
	tmpl *template.Template
}

// New creates a renderer. The framework decides theme order in every output.
func New(fw domain.AnalysisFramework) *Renderer {
	r := &Renderer{fw: fw, now: time.Now}
	r.tmpl = template.Must(template.New("email").Funcs(template.FuncMap{
		"label": func(t domain.Theme) string { return t.Label() },
	}).Parse(emailHTMLTemplate))
	return r
}

// Period returns the covered range, e.g. "January 02 - January 08, 2026".
func Period(weekEnding domain.Day) string {
	start := weekEnding.AddDays(-6)
	return fmt.Sprintf("%s - %s", start.Format("January 02"), weekEnding.Format("January 02, 2006"))
}

// Markdown renders the digest as a Markdown document.
func (r *Renderer) Markdown(d *domain.Digest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n", Title)
	fmt.Fprintf(&sb, "## %s\n\n", Period(d.WeekEnding))
	fmt.Fprintf(&sb, "**Items analyzed:** %d | **Items included:** %d\n\n", d.ItemsAnalyzed, d.ItemsIncluded)
	sb.WriteString("---\n\n")

	sb.WriteString("## Top Stories\n\n")
	if len(d.TopStories) == 0 {
		sb.WriteString(noItems + "\n\n")
	}
	for i, story := range d.TopStories {
		fmt.Fprintf(&sb, "### %d. %s\n", i+1, mdLink(story.Title, story.URL))
		meta := []string{
			"**Importance:** " + story.Importance.Label(),
			"**Theme:** " + story.Theme.Label(),
		}
		if story.Geography != "" {
			meta = append(meta, "**Geography:** "+string(story.Geography))
		}
		if story.Source != "" {
			meta = append(meta, "**Source:** "+story.Source)
		}
		sb.WriteString(strings.Join(meta, " | ") + "\n\n")
		if story.Summary != "" {
			sb.WriteString(story.Summary + "\n\n")
		}
	}

	sb.WriteString("## By Theme\n\n")
	themes := r.themes(d)
	if len(themes) == 0 {
		sb.WriteString(noItems + "\n\n")
	}
	for _, theme := range themes {
		summary := d.ByTheme[theme]
		fmt.Fprintf(&sb, "### %s (%d)\n", theme.Label(), summary.Count)
		for _, h := range summary.Highlights {
			fmt.Fprintf(&sb, "- %s\n", h)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Regulatory Alerts\n\n")
	if len(d.RegulatoryAlerts) == 0 {
		sb.WriteString(noItems + "\n\n")
	} else {
		sb.WriteString("| Alert | Deadline | Action Required |\n")
		sb.WriteString("|---|---|---|\n")
		for _, alert := range d.RegulatoryAlerts {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", cell(alert.Title), cell(alert.Deadline), cell(alert.ActionRequired))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Key Statistics\n\n")
	if len(d.KeyStatistics) == 0 {
		sb.WriteString(noItems + "\n\n")
	}
	for _, stat := range d.KeyStatistics {
		line := fmt.Sprintf("- **%s:** %s", stat.Metric, stat.Value)
		if stat.Source != "" {
			line += " (" + stat.Source + ")"
		}
		sb.WriteString(line + "\n")
	}
	if len(d.KeyStatistics) > 0 {
		sb.WriteString("\n")
	}

	sb.WriteString("## Sources\n\n")
	if len(d.TopStories) == 0 {
		sb.WriteString(noItems + "\n\n")
	}
	for _, story := range d.TopStories {
		line := "- " + mdLink(story.Title, story.URL)
		if story.Source != "" {
			line += " (" + story.Source + ")"
		}
		sb.WriteString(line + "\n")
	}
	if len(d.TopStories) > 0 {
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "---\n*Generated %s*\n", r.now().Format("2006-01-02"))
	return sb.String()
}

// JSON renders the digest as indented JSON with the stable top-level keys.
func (r *Renderer) JSON(d *domain.Digest) ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode digest: %w", err)
	}
	return append(data, '\n'), nil
}

// themes returns the digest's themes in taxonomy order.
func (r *Renderer) themes(d *domain.Digest) []domain.Theme {
	var themes []domain.Theme
	for _, theme := range r.fw.Themes() {
		if _, ok := d.ByTheme[theme]; ok {
			themes = append(themes, theme)
		}
	}
	return themes
}

func mdLink(title, url string) string {
	title = strings.NewReplacer("[", `\[`, "]", `\]`).Replace(title)
	if url == "" {
		return title
	}
	return fmt.Sprintf("[%s](%s)", title, url)
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
