// Package sources provides the read-only source registry view for the TUI.
package sources

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/keymap"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/messages"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// View lists registry categories, their queries and direct sources.
type View struct {
	styles       *styles.Styles
	keys         *keymap.KeyMap
	registry     domain.SourceRegistry
	lines        []string
	scrollOffset int
	width        int
	height       int
}

// NewView creates a new sources view.
func NewView(s *styles.Styles, registry domain.SourceRegistry) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{
		styles:   s,
		keys:     keymap.DefaultKeyMap(),
		registry: registry,
		width:    80,
		height:   24,
	}
	v.lines = v.build()
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	v.scrollOffset = 0
	return nil
}

func (v *View) build() []string {
	var lines []string
	for _, c := range v.registry.Categories() {
		head := fmt.Sprintf("%s (%d queries)", c.Name, len(c.Queries))
		lines = append(lines, v.styles.Subtitle.Render(head))
		if c.Description != "" {
			lines = append(lines, v.styles.Muted.Render("  "+c.Description))
		}
		for _, q := range c.Queries {
			lines = append(lines, "  - "+q)
		}
		lines = append(lines, "")
	}

	direct := v.registry.DirectSources()
	if len(direct) > 0 {
		lines = append(lines, v.styles.Subtitle.Render(fmt.Sprintf("Direct sources (%d)", len(direct))))
		for _, d := range direct {
			lines = append(lines, fmt.Sprintf("  - %s [%s] %s", d.Name, d.Category, v.styles.Muted.Render(d.URL)))
		}
	}
	return lines
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.scrollOffset = max(v.scrollOffset-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.scrollOffset = min(v.scrollOffset+1, v.maxScrollOffset())
		case key.Matches(msg, v.keys.Top):
			v.scrollOffset = 0
		case key.Matches(msg, v.keys.Bottom):
			v.scrollOffset = v.maxScrollOffset()
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
		}
	}
	return v, nil
}

func (v *View) visibleLines() int {
	return max(v.height-4, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the registry.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Sources: %d queries across %d categories",
		v.registry.QueryCount(), len(v.registry.CategoryNames()))))
	b.WriteString("\n\n")

	end := min(v.scrollOffset+v.visibleLines(), len(v.lines))
	b.WriteString(strings.Join(v.lines[v.scrollOffset:end], "\n"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[j/k] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}
