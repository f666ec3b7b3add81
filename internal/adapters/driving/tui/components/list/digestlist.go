// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/keymap"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// DigestList displays stored digest summaries in a navigable list.
type DigestList struct {
	digests  []domain.DigestSummary
	selected int
	styles   *styles.Styles
	keys     *keymap.KeyMap
	width    int
	height   int
}

// NewDigestList creates a new digest list component.
func NewDigestList(s *styles.Styles) *DigestList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &DigestList{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *DigestList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *DigestList) Update(msg tea.Msg) (*DigestList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, l.keys.Up):
			l.MoveUp()
		case key.Matches(msg, l.keys.Down):
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *DigestList) View() string {
	if len(l.digests) == 0 {
		return l.styles.Muted.Render("No digests stored yet. Press r to run one.")
	}

	lines := make([]string, 0, len(l.digests)+2)
	lines = append(lines,
		l.styles.Subtitle.Render(fmt.Sprintf("Stored digests (%d)", len(l.digests))),
		"",
	)

	visible := l.height - 4
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.digests) {
		end = len(l.digests)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderRow(i, l.digests[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *DigestList) renderRow(index int, d domain.DigestSummary) string {
	row := fmt.Sprintf("%s  %3d of %3d items  created %s",
		d.WeekEnding, d.ItemsIncluded, d.ItemsAnalyzed, d.CreatedAt.Local().Format("2006-01-02 15:04"))
	if index == l.selected {
		return l.styles.Selected.Render("> " + row)
	}
	return l.styles.Normal.Render("  " + row)
}

// SetDigests replaces the listed digests.
func (l *DigestList) SetDigests(digests []domain.DigestSummary) {
	l.digests = digests
	l.selected = 0
}

// Digests returns the listed digests.
func (l *DigestList) Digests() []domain.DigestSummary {
	return l.digests
}

// Selected returns the index of the selected row.
func (l *DigestList) Selected() int {
	return l.selected
}

// SelectedDigest returns the selected summary, or nil if the list is empty.
func (l *DigestList) SelectedDigest() *domain.DigestSummary {
	if len(l.digests) == 0 || l.selected < 0 || l.selected >= len(l.digests) {
		return nil
	}
	return &l.digests[l.selected]
}

// MoveUp moves selection up.
func (l *DigestList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *DigestList) MoveDown() {
	if l.selected < len(l.digests)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *DigestList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of digests.
func (l *DigestList) Count() int {
	return len(l.digests)
}

// IsEmpty returns whether the list is empty.
func (l *DigestList) IsEmpty() bool {
	return len(l.digests) == 0
}
