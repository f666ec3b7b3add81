// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// weekLayoutLen is len("YYYY-MM-DD").
const weekLayoutLen = 10

// WeekInput wraps a bubbles textinput for entering a week-ending date.
type WeekInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewWeekInput creates a new week input component.
func NewWeekInput(s *styles.Styles) *WeekInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "YYYY-MM-DD"
	ti.CharLimit = weekLayoutLen
	ti.Width = weekLayoutLen + 2

	return &WeekInput{
		textinput: ti,
		styles:    s,
		width:     40,
	}
}

// Init initialises the input.
func (w *WeekInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (w *WeekInput) Update(msg tea.Msg) (*WeekInput, tea.Cmd) {
	var cmd tea.Cmd
	w.textinput, cmd = w.textinput.Update(msg)
	return w, cmd
}

// View renders the input.
func (w *WeekInput) View() string {
	label := w.styles.Title.Render("Week ending: ")
	field := w.styles.InputField.Render(w.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (w *WeekInput) Value() string {
	return w.textinput.Value()
}

// SetValue sets the input value.
func (w *WeekInput) SetValue(value string) {
	w.textinput.SetValue(value)
}

// Week parses the entered date.
func (w *WeekInput) Week() (domain.Day, error) {
	return domain.ParseDay(w.textinput.Value())
}

// Focus sets focus on the input.
func (w *WeekInput) Focus() tea.Cmd {
	return w.textinput.Focus()
}

// Blur removes focus from the input.
func (w *WeekInput) Blur() {
	w.textinput.Blur()
}

// Focused returns whether the input is focused.
func (w *WeekInput) Focused() bool {
	return w.textinput.Focused()
}

// SetWidth sets the width of the component.
func (w *WeekInput) SetWidth(width int) {
	w.width = width
}

// Width returns the current width.
func (w *WeekInput) Width() int {
	return w.width
}

// Reset clears the input.
func (w *WeekInput) Reset() {
	w.textinput.Reset()
}
