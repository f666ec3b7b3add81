package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// DefaultTerminalWidth is used when the terminal size is unknown.
const DefaultTerminalWidth = 80

var (
	termTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1"))
	termHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4")).MarginTop(1)
	termMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	termLink    = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")).Underline(true)

	importanceStyles = map[domain.Importance]lipgloss.Style{
		domain.ImportanceHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
		domain.ImportanceMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")),
		domain.ImportanceLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#89DCEB")),
	}
)

// Terminal renders the digest for a terminal of the given width.
func (r *Renderer) Terminal(d *domain.Digest, width int) string {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	body := lipgloss.NewStyle().Width(width).PaddingLeft(2)

	var sb strings.Builder
	sb.WriteString(termTitle.Render(Title) + "\n")
	sb.WriteString(termMuted.Render(fmt.Sprintf("%s  |  %d of %d items included",
		Period(d.WeekEnding), d.ItemsIncluded, d.ItemsAnalyzed)) + "\n")

	sb.WriteString(termHeading.Render("Top Stories") + "\n")
	if len(d.TopStories) == 0 {
		sb.WriteString(termMuted.Render("  nothing reported") + "\n")
	}
	for i, story := range d.TopStories {
		style, ok := importanceStyles[story.Importance]
		if !ok {
			style = termMuted
		}
		tags := story.Theme.Label()
		if story.Geography != "" {
			tags += " · " + string(story.Geography)
		}
		if story.Source != "" {
			tags += " · " + story.Source
		}
		fmt.Fprintf(&sb, "%2d. %s %s\n", i+1, style.Render(strings.ToUpper(string(story.Importance))), story.Title)
		sb.WriteString(body.Render(termMuted.Render(tags)) + "\n")
		if story.Summary != "" {
			sb.WriteString(body.Render(story.Summary) + "\n")
		}
		if story.URL != "" {
			sb.WriteString(body.Render(termLink.Render(story.URL)) + "\n")
		}
	}

	sb.WriteString(termHeading.Render("By Theme") + "\n")
	themes := r.themes(d)
	if len(themes) == 0 {
		sb.WriteString(termMuted.Render("  nothing reported") + "\n")
	}
	for _, theme := range themes {
		summary := d.ByTheme[theme]
		fmt.Fprintf(&sb, "  %-24s %d\n", theme.Label(), summary.Count)
		for _, h := range summary.Highlights {
			sb.WriteString(body.Render(termMuted.Render("- "+h)) + "\n")
		}
	}

	if len(d.RegulatoryAlerts) > 0 {
		sb.WriteString(termHeading.Render("Regulatory Alerts") + "\n")
		for _, alert := range d.RegulatoryAlerts {
			fmt.Fprintf(&sb, "  %s %s\n", importanceStyles[domain.ImportanceHigh].Render("["+alert.Deadline+"]"), alert.Title)
			if alert.ActionRequired != "" {
				sb.WriteString(body.Render(termMuted.Render(alert.ActionRequired)) + "\n")
			}
		}
	}

	if len(d.KeyStatistics) > 0 {
		sb.WriteString(termHeading.Render("Key Statistics") + "\n")
		for _, stat := range d.KeyStatistics {
			line := fmt.Sprintf("%s: %s", stat.Metric, stat.Value)
			if stat.Source != "" {
				line += termMuted.Render(" (" + stat.Source + ")")
			}
			sb.WriteString(body.Render(line) + "\n")
		}
	}

	return sb.String()
}
