// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colours the styles draw from. Each colour adapts to
// light and dark terminals.
type Palette struct {
	Accent    lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Subtle    lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Alert     lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor
	BarFill   lipgloss.AdaptiveColor
}

// DefaultPalette is green and teal, for an ESG tool.
func DefaultPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#1B5E20", Dark: "#66BB6A"},
		Secondary: lipgloss.AdaptiveColor{Light: "#006064", Dark: "#4DD0E1"},
		Text:      lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"},
		Subtle:    lipgloss.AdaptiveColor{Light: "#8C8FA1", Dark: "#6C7086"},
		Good:      lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"},
		Caution:   lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"},
		Alert:     lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"},
		Frame:     lipgloss.AdaptiveColor{Light: "#BCC0CC", Dark: "#45475A"},
		BarFill:   lipgloss.AdaptiveColor{Light: "#E6E9EF", Dark: "#181825"},
	}
}

// Styles are the rendered styles every view shares.
type Styles struct {
	palette Palette

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style

	// Bar draws trend histogram bars.
	Bar lipgloss.Style
}

// NewStyles builds styles from a palette.
func NewStyles(p Palette) *Styles {
	fg := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		palette: p,

		Title:    fg(p.Accent).Bold(true),
		Subtitle: fg(p.Secondary).Bold(true),
		Normal:   fg(p.Text),
		Muted:    fg(p.Subtle),
		Selected: fg(p.Text).Bold(true).Background(p.Frame),
		Error:    fg(p.Alert),
		Success:  fg(p.Good),
		Warning:  fg(p.Caution),
		Help:     fg(p.Subtle),
		Bar:      fg(p.Secondary),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),

		StatusBar: fg(p.Subtle).
			Background(p.BarFill).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles for the default palette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the colours these styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}
