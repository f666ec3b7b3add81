package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/keymap"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/messages"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/styles"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/views/digest"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/views/digests"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/views/menu"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/views/sources"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui/views/trends"
)

// App owns every screen and routes messages to the active one. Data
// messages go to the screen that asked for them even after the user has
// moved on, so returning to a screen never shows stale state.
type App struct {
	ports *Ports
	ctx   context.Context

	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	menuView    *menu.View
	digestsView *digests.View
	digestView  *digest.View
	trendsView  *trends.View
	sourcesView *sources.View

	currentView messages.ViewType
	err         error

	width, height int
	ready         bool // set by the first WindowSizeMsg
}

var _ tea.Model = (*App)(nil)

// sized is what every screen implements for resizing.
type sized interface {
	SetDimensions(width, height int)
}

// NewApp builds the app. Ports must carry a digest service.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingDigestService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = s.Subtitle
	h.Styles.FullDesc = s.Normal
	h.Styles.FullSeparator = s.Muted
	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keys:        keymap.DefaultKeyMap(),
		help:        h,
		menuView:    menu.NewView(s),
		digestsView: digests.NewView(s, ports.Digests),
		digestView:  digest.NewView(s, ports.Digests, ports.Renderer),
		trendsView:  trends.NewView(s, ports.Digests),
		sourcesView: sources.NewView(s, ports.Digests.Registry()),
		currentView: messages.ViewMenu,
	}, nil
}

// WithContext bounds the program and every service call made by a screen.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	for _, v := range []interface{ SetContext(context.Context) }{a.digestsView, a.digestView, a.trendsView} {
		v.SetContext(ctx)
	}
	return a
}

// Init loads the digest listing straight away so the menu can show the
// latest week.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("esgmon"),
		a.digestsView.Init(),
	)
}

//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if key.Matches(msg, a.keys.Back) || key.Matches(msg, a.keys.Help) {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewDigests:
			return a, a.digestsView.Init()
		case messages.ViewTrends:
			return a, a.trendsView.Init()
		case messages.ViewSources:
			return a, a.sourcesView.Init()
		case messages.ViewMenu, messages.ViewDigest, messages.ViewHelp:
		}
		return a, nil

	case messages.DigestSelected:
		a.currentView = messages.ViewDigest
		return a, a.digestView.SetWeek(msg.WeekEnding)

	case messages.DigestsLoaded:
		a.menuView, _ = a.menuView.Update(msg)
		a.digestsView, cmd = a.digestsView.Update(msg)
		a.err = a.digestsView.Err()
		return a, cmd

	case messages.RunCompleted:
		a.digestsView, cmd = a.digestsView.Update(msg)
		a.err = a.digestsView.Err()
		return a, cmd

	case messages.DigestLoaded:
		a.digestView, cmd = a.digestView.Update(msg)
		return a, cmd

	case messages.TrendsLoaded:
		a.trendsView, cmd = a.trendsView.Update(msg)
		a.err = a.trendsView.Err()
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward routes a message to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewDigests:
		a.digestsView, cmd = a.digestsView.Update(msg)
	case messages.ViewDigest:
		a.digestView, cmd = a.digestView.Update(msg)
	case messages.ViewTrends:
		a.trendsView, cmd = a.trendsView.Update(msg)
	case messages.ViewSources:
		a.sourcesView, cmd = a.sourcesView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

func (a *App) View() string {
	if !a.ready {
		return "Loading esgmon..."
	}

	switch a.currentView {
	case messages.ViewDigests:
		return a.digestsView.View()
	case messages.ViewDigest:
		return a.digestView.View()
	case messages.ViewTrends:
		return a.trendsView.View()
	case messages.ViewSources:
		return a.sourcesView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders every key binding in columns.
func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + "\n\n" +
		a.help.View(a.keys) + "\n\n" +
		a.styles.Muted.Render("Digests: / jumps to a week, r runs the pipeline for this week.") + "\n" +
		a.styles.Muted.Render("Trends: +/- change the number of weeks shown.") + "\n\n" +
		a.styles.Help.Render("[esc] back to menu")
}

// Run blocks until the user quits or the context ends.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

func (a *App) CurrentView() messages.ViewType { return a.currentView }

// Err is the last error reported by a screen, if any.
func (a *App) Err() error { return a.err }

func (a *App) Ready() bool { return a.ready }

// SetDimensions resizes the app and every screen.
func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	a.help.Width = width
	for _, v := range []sized{a.menuView, a.digestsView, a.digestView, a.trendsView, a.sourcesView} {
		v.SetDimensions(width, height)
	}
}
