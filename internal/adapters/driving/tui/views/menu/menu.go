// Package menu is the TUI start screen.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/keymap"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/messages"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// Item is one menu entry. Quit entries exit instead of switching views.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// DefaultItems are the entries shown on the start screen.
func DefaultItems() []Item {
	return []Item{
		{Label: "Digests", Hint: "browse stored weeks or run this week", View: messages.ViewDigests},
		{Label: "Theme trends", Hint: "story counts per theme over time", View: messages.ViewTrends},
		{Label: "Sources", Hint: "search categories and direct publishers", View: messages.ViewSources},
		{Label: "Help", Hint: "key bindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View is the start screen.
type View struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	items  []Item
	latest *domain.DigestSummary

	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the start screen with the default entries.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items:  DefaultItems(),
		width:  80,
		height: 24,
	}
}

// Init implements the view contract; the menu loads nothing itself.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and turns a choice into a view change.
// Digits 1-9 choose an entry directly.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DigestsLoaded:
		if msg.Err == nil {
			v.SetLatest(msg.Digests)
		}
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.selected = max(v.selected-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case key.Matches(msg, v.keys.Select):
			return v, v.choose(v.selected)
		case key.Matches(msg, v.keys.Help):
			return v, changeView(messages.ViewHelp)
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		default:
			if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(v.items) {
				v.selected = n - 1
				return v, v.choose(v.selected)
			}
		}
	}
	return v, nil
}

func (v *View) choose(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return changeView(item.View)
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg { return messages.ViewChanged{View: view} }
}

// SetLatest records the newest stored digest from a listing, newest first.
func (v *View) SetLatest(digests []domain.DigestSummary) {
	if len(digests) == 0 {
		v.latest = nil
		return
	}
	latest := digests[0]
	v.latest = &latest
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("esgmon"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render("ESG in Real Estate Weekly Digest"))
	b.WriteString("\n\n")
	b.WriteString(v.latestLine())
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%d  %s", i+1, item.Label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Subtitle.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if item.Hint != "" && v.width >= 60 {
			b.WriteString("  " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] move  [1-5/enter] open  [?] help  [q] quit"))
	return b.String()
}

func (v *View) latestLine() string {
	if v.latest == nil {
		return v.styles.Muted.Render("No digests stored yet.")
	}
	return v.styles.Normal.Render(fmt.Sprintf("Latest: week ending %s, %d of %d items included",
		v.latest.WeekEnding, v.latest.ItemsIncluded, v.latest.ItemsAnalyzed))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the highlighted entry index.
func (v *View) Selected() int {
	return v.selected
}
