// Package status renders the one-line status bar under the digest listing.
package status

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/keymap"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
)

// State is what the listing is doing.
type State string

const (
	StateReady   State = "ready"
	StateLoading State = "loading"
	StateRunning State = "running"
	StateError   State = "error"
	StateListing State = "listing"
)

// Bar shows the listing state on the left and key hints on the right.
// It is passive: views push state into it.
type Bar struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model
	now    func() time.Time

	state   State
	message string
	count   int
	started time.Time
	width   int
}

// NewBar creates a status bar. Nil arguments fall back to defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.ShortSeparator = "  "
	h.Styles.ShortKey = s.Subtitle
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{
		styles: s,
		keys:   km,
		help:   h,
		now:    time.Now,
		state:  StateReady,
		width:  80,
	}
}

// View renders the bar padded to its width.
func (b *Bar) View() string {
	left := b.renderState()
	right := b.renderHints()

	gap := max(b.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) renderState() string {
	switch b.state {
	case StateLoading:
		return b.styles.Muted.Render("Loading...")
	case StateRunning:
		return b.styles.Warning.Render("Running digest pipeline since " + b.started.Format("15:04"))
	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	case StateReady, StateListing:
	}

	switch {
	case b.message != "":
		return b.styles.Success.Render(b.message)
	case b.count == 1:
		return b.styles.Normal.Render("1 digest")
	case b.count > 1:
		return b.styles.Normal.Render(strconv.Itoa(b.count) + " digests")
	default:
		return b.styles.Muted.Render("Ready")
	}
}

func (b *Bar) renderHints() string {
	var bindings []key.Binding
	if b.state == StateListing {
		bindings = b.keys.ListHelp()
	} else {
		bindings = b.keys.ShortHelp()
	}
	return b.help.ShortHelpView(bindings)
}

// SetState sets the current state. Entering StateRunning stamps the start time.
func (b *Bar) SetState(state State) {
	if state == StateRunning && b.state != StateRunning {
		b.started = b.now()
	}
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State { return b.state }

// SetMessage sets a one-off message shown instead of the digest count.
func (b *Bar) SetMessage(message string) { b.message = message }

// Message returns the current message.
func (b *Bar) Message() string { return b.message }

// SetCount sets the number of listed digests.
func (b *Bar) SetCount(count int) { b.count = count }

// Count returns the listed digest count.
func (b *Bar) Count() int { return b.count }

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
	b.help.Width = width / 2
}

// Width returns the bar width.
func (b *Bar) Width() int { return b.width }

// Clear resets the bar to its initial state.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.count = 0
	b.started = time.Time{}
}
