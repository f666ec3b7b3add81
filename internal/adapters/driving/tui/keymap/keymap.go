// Package keymap holds the TUI key bindings. Views match keys against these
// bindings with key.Matches, and the help screen renders them.
package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

var _ help.KeyMap = (*KeyMap)(nil)

// KeyMap is the full set of bindings shared by every view.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	Select  key.Binding
	Run     key.Binding
	Refresh key.Binding
	GoTo    key.Binding

	// Wider and Narrower change the trend window.
	Wider    key.Binding
	Narrower key.Binding
}

func binding(keys []string, helpKey, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(helpKey, desc))
}

// DefaultKeyMap returns vim-flavoured bindings with arrow key fallbacks.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: binding([]string{"q", "ctrl+c"}, "q", "quit"),
		Help: binding([]string{"?"}, "?", "help"),
		Back: binding([]string{"esc"}, "esc", "back"),

		Up:       binding([]string{"up", "k"}, "↑/k", "up"),
		Down:     binding([]string{"down", "j"}, "↓/j", "down"),
		PageUp:   binding([]string{"pgup", "ctrl+u"}, "pgup", "page up"),
		PageDown: binding([]string{"pgdown", "ctrl+d"}, "pgdn", "page down"),
		Top:      binding([]string{"home", "g"}, "g", "top"),
		Bottom:   binding([]string{"end", "G"}, "G", "bottom"),

		Select:  binding([]string{"enter"}, "enter", "open"),
		Run:     binding([]string{"r"}, "r", "run now"),
		Refresh: binding([]string{"R", "ctrl+r"}, "R", "refresh"),
		GoTo:    binding([]string{"/"}, "/", "go to week"),

		Wider:    binding([]string{"+", "right", "l"}, "+", "more weeks"),
		Narrower: binding([]string{"-", "left", "h"}, "-", "fewer weeks"),
	}
}

// ShortHelp is shown in status bars.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ListHelp is shown under the digest listing.
func (k *KeyMap) ListHelp() []key.Binding {
	return []key.Binding{k.Select, k.GoTo, k.Run, k.Refresh, k.Back}
}

// FullHelp groups every binding into columns for the help screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back},
		{k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.GoTo, k.Run, k.Refresh},
		{k.Wider, k.Narrower, k.Help, k.Quit},
	}
}
