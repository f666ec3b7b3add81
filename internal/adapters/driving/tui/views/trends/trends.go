// Package trends provides the weekly theme frequency view for the TUI.
package trends

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/keymap"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/messages"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// Window bounds in weeks.
const (
	DefaultWeeks = 8
	MinWeeks     = 1
	MaxWeeks     = 52
)

// maxBar is the widest totals bar in cells.
const maxBar = 20

// View shows story counts per theme per week.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keys    *keymap.KeyMap
	service driving.DigestService

	weeks   int
	points  []domain.ThemeTrendPoint
	loading bool
	err     error
	width   int
	height  int
}

// NewView creates a new trends view.
func NewView(s *styles.Styles, service driving.DigestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:     context.Background(),
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		service: service,
		weeks:   DefaultWeeks,
		width:   80,
		height:  24,
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the trend series.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	ctx, service, weeks := v.ctx, v.service, v.weeks
	return func() tea.Msg {
		if service == nil {
			return messages.TrendsLoaded{Weeks: weeks, Err: fmt.Errorf("digest service not available")}
		}
		points, err := service.ThemeTrends(ctx, weeks, "")
		return messages.TrendsLoaded{Weeks: weeks, Points: points, Err: err}
	}
}

// Update handles messages for the trends view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		case key.Matches(msg, v.keys.Wider):
			if v.weeks < MaxWeeks {
				v.weeks++
				return v, v.Init()
			}
		case key.Matches(msg, v.keys.Narrower):
			if v.weeks > MinWeeks {
				v.weeks--
				return v, v.Init()
			}
		}
		return v, nil

	case messages.TrendsLoaded:
		if msg.Weeks != v.weeks {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		v.points = msg.Points
		return v, nil
	}
	return v, nil
}

// View renders the trend table.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Theme trends, last %d weeks", v.weeks)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.points) == 0:
		b.WriteString(v.styles.Muted.Render("No stored digests in this window."))
	default:
		b.WriteString(v.table())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[+/-] weeks  [esc] back"))
	return b.String()
}

func (v *View) table() string {
	counts := make(map[domain.Theme]map[string]int)
	totals := make(map[domain.Theme]int)
	weekSet := make(map[string]bool)
	for _, p := range v.points {
		week := p.WeekEnding.String()
		weekSet[week] = true
		if counts[p.Theme] == nil {
			counts[p.Theme] = make(map[string]int)
		}
		counts[p.Theme][week] += p.Count
		totals[p.Theme] += p.Count
	}

	weeks := make([]string, 0, len(weekSet))
	for w := range weekSet {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)
	// Keep the most recent columns that fit beside the label and totals.
	fit := max((v.width-24-maxBar-6)/6, 1)
	if len(weeks) > fit {
		weeks = weeks[len(weeks)-fit:]
	}

	peak := 0
	for _, n := range totals {
		peak = max(peak, n)
	}

	var b strings.Builder
	header := fmt.Sprintf("%-24s", "Theme")
	for _, w := range weeks {
		header += fmt.Sprintf(" %5s", w[5:])
	}
	b.WriteString(v.styles.Subtitle.Render(header + "  Total"))
	b.WriteString("\n")

	fw := domain.DefaultFramework()
	if v.service != nil {
		fw = v.service.Framework()
	}
	for _, theme := range fw.Themes() {
		row := fmt.Sprintf("%-24s", theme.Label())
		for _, w := range weeks {
			row += fmt.Sprintf(" %5d", counts[theme][w])
		}
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", totals[theme]*maxBar/peak)
		}
		b.WriteString(v.styles.Normal.Render(row))
		b.WriteString(fmt.Sprintf("  %5d ", totals[theme]))
		b.WriteString(v.styles.Bar.Render(bar))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Weeks returns the current window in weeks.
func (v *View) Weeks() int {
	return v.weeks
}

// Points returns the loaded series.
func (v *View) Points() []domain.ThemeTrendPoint {
	return v.points
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
