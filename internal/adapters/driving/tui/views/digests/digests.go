// Package digests provides the stored digest listing view for the TUI.
package digests

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/components/input"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/components/list"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/components/status"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/keymap"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/messages"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// DefaultLimit is the number of digests listed.
const DefaultLimit = 52

// View lists stored digests and can start a new run.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	service driving.DigestService

	list   *list.DigestList
	input  *input.WeekInput
	status *status.Bar

	width   int
	height  int
	running bool
	err     error
}

// NewView creates a new digest listing view.
func NewView(s *styles.Styles, service driving.DigestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	return &View{
		ctx:     context.Background(),
		styles:  s,
		keymap:  km,
		service: service,
		list:    list.NewDigestList(s),
		input:   input.NewWeekInput(s),
		status:  status.NewBar(s, km),
		width:   80,
		height:  24,
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init loads the listing.
func (v *View) Init() tea.Cmd {
	v.err = nil
	v.status.SetState(status.StateLoading)
	return v.load()
}

func (v *View) load() tea.Cmd {
	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.DigestsLoaded{Err: fmt.Errorf("digest service not available")}
		}
		digests, err := service.Recent(ctx, DefaultLimit)
		return messages.DigestsLoaded{Digests: digests, Err: err}
	}
}

func (v *View) run() tea.Cmd {
	ctx, service := v.ctx, v.service
	return func() tea.Msg {
		if service == nil {
			return messages.RunCompleted{Err: fmt.Errorf("digest service not available")}
		}
		result, err := service.Run(ctx, driving.RunOptions{})
		return messages.RunCompleted{Result: result, Err: err}
	}
}

// Update handles messages for the listing view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.input.Focused() {
			return v.handleInputKey(msg)
		}
		return v.handleKey(msg)

	case messages.DigestsLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.list.SetDigests(msg.Digests)
		v.status.SetCount(len(msg.Digests))
		v.status.SetState(status.StateListing)
		return v, nil

	case messages.RunCompleted:
		v.running = false
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.status.SetMessage(runSummary(msg.Result))
		v.status.SetState(status.StateListing)
		return v, v.load()

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}
	return v, nil
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }

	case key.Matches(msg, v.keymap.Select):
		selected := v.list.SelectedDigest()
		if selected == nil {
			return v, nil
		}
		week := selected.WeekEnding
		return v, func() tea.Msg { return messages.DigestSelected{WeekEnding: week} }

	case key.Matches(msg, v.keymap.GoTo):
		v.input.Reset()
		return v, v.input.Focus()

	case key.Matches(msg, v.keymap.Run):
		if v.running {
			return v, nil
		}
		v.running = true
		v.err = nil
		v.status.SetMessage("")
		v.status.SetState(status.StateRunning)
		return v, v.run()

	case key.Matches(msg, v.keymap.Refresh):
		v.status.SetMessage("")
		return v, v.Init()
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // only enter and esc leave the input
	switch msg.Type {
	case tea.KeyEsc:
		v.input.Blur()
		return v, nil
	case tea.KeyEnter:
		week, err := v.input.Week()
		if err != nil {
			v.setError(err)
			return v, nil
		}
		v.input.Blur()
		return v, func() tea.Msg { return messages.DigestSelected{WeekEnding: week} }
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) setError(err error) {
	v.err = err
	v.status.SetMessage(err.Error())
	v.status.SetState(status.StateError)
}

func runSummary(result *driving.RunResult) string {
	if result == nil || result.Digest == nil {
		return "Run finished"
	}
	msg := fmt.Sprintf("Saved %s: %d of %d items", result.Digest.WeekEnding,
		result.Digest.ItemsIncluded, result.Digest.ItemsAnalyzed)
	if len(result.Warnings) > 0 {
		msg += fmt.Sprintf(" (%d warnings)", len(result.Warnings))
	}
	return msg
}

// View renders the listing.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Digests"))
	b.WriteString("\n\n")

	if v.input.Focused() {
		b.WriteString(v.input.View())
		b.WriteString("\n\n")
	}

	b.WriteString(v.list.View())
	b.WriteString("\n\n")
	b.WriteString(v.status.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height-6)
	v.input.SetWidth(width)
	v.status.SetWidth(width)
}

// List returns the digest list component.
func (v *View) List() *list.DigestList {
	return v.list
}

// Status returns the status bar component.
func (v *View) Status() *status.Bar {
	return v.status
}

// Running reports whether a run is in flight.
func (v *View) Running() bool {
	return v.running
}

// InputFocused reports whether the week input has focus.
func (v *View) InputFocused() bool {
	return v.input.Focused()
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

