// Package digest provides the single digest view for the TUI.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/keymap"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/messages"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// Renderer formats a digest for the terminal.
type Renderer interface {
	Terminal(d *domain.Digest, width int) string
}

// View shows one stored digest with scrolling.
type View struct {
	ctx      context.Context
	styles   *styles.Styles
	keys     *keymap.KeyMap
	service  driving.DigestService
	renderer Renderer

	week         domain.Day
	digest       *domain.Digest
	lines        []string
	scrollOffset int
	width        int
	height       int
	loading      bool
	err          error
}

// NewView creates a new digest view.
func NewView(s *styles.Styles, service driving.DigestService, renderer Renderer) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:      context.Background(),
		styles:   s,
		keys:     keymap.DefaultKeyMap(),
		service:  service,
		renderer: renderer,
		width:    80,
		height:   24,
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetWeek resets the view and loads the digest for a week.
func (v *View) SetWeek(week domain.Day) tea.Cmd {
	v.week = week
	v.digest = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true

	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.DigestLoaded{WeekEnding: week, Err: fmt.Errorf("digest service not available")}
		}
		d, err := service.Get(ctx, week)
		return messages.DigestLoaded{WeekEnding: week, Digest: d, Err: err}
	}
}

// Update handles messages for the digest view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DigestLoaded:
		if !msg.WeekEnding.Equal(v.week) {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.digest = msg.Digest
		v.render()
		return v, nil

	case messages.ErrorOccurred:
		v.loading = false
		v.err = msg.Err
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Up):
		v.scrollOffset = max(v.scrollOffset-1, 0)
	case key.Matches(msg, v.keys.Down):
		v.scrollOffset = min(v.scrollOffset+1, v.maxScrollOffset())
	case key.Matches(msg, v.keys.PageUp):
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case key.Matches(msg, v.keys.PageDown):
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case key.Matches(msg, v.keys.Top):
		v.scrollOffset = 0
	case key.Matches(msg, v.keys.Bottom):
		v.scrollOffset = v.maxScrollOffset()
	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDigests}
		}
	}
	return v, nil
}

func (v *View) render() {
	if v.digest == nil || v.renderer == nil {
		v.lines = nil
		return
	}
	out := strings.TrimRight(v.renderer.Terminal(v.digest, v.width-2), "\n")
	v.lines = strings.Split(out, "\n")
	v.scrollOffset = min(v.scrollOffset, v.maxScrollOffset())
}

// visibleLines returns the number of content lines that fit.
func (v *View) visibleLines() int {
	// title, blank, scroll indicator, blank, help
	return max(v.height-5, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the digest.
func (v *View) View() string {
	var b strings.Builder

	title := "Digest"
	if !v.week.IsZero() {
		title = "Week ending " + v.week.String()
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading digest..."))
	case errors.Is(v.err, domain.ErrNotFound):
		b.WriteString(v.styles.Warning.Render("No digest stored for this week."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(empty)"))
	default:
		visible := v.visibleLines()
		end := min(v.scrollOffset+visible, len(v.lines))
		b.WriteString(strings.Join(v.lines[v.scrollOffset:end], "\n"))
		if len(v.lines) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  Line %d-%d of %d",
				v.scrollOffset+1, end, len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions and re-renders for the new width.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.render()
}

// Digest returns the loaded digest.
func (v *View) Digest() *domain.Digest {
	return v.digest
}

// Week returns the requested week.
func (v *View) Week() domain.Day {
	return v.week
}

// ScrollOffset returns the first visible line.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
