// Package messages holds the tea.Msg types passed between TUI views.
package messages

import (
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// ViewType names a screen.
type ViewType int

const (
	ViewMenu ViewType = iota
	ViewDigests
	ViewDigest
	ViewTrends
	ViewSources
	ViewHelp
)

var viewNames = [...]string{
	ViewMenu:    "menu",
	ViewDigests: "digests",
	ViewDigest:  "digest",
	ViewTrends:  "trends",
	ViewSources: "sources",
	ViewHelp:    "help",
}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// ViewChanged switches the active screen.
type ViewChanged struct {
	View ViewType
}

// ErrorOccurred is shown in the status bar of the active view.
type ErrorOccurred struct {
	Err error
}

type Quit struct{}

type DigestsLoaded struct {
	Digests []domain.DigestSummary
	Err     error
}

// DigestSelected opens one week in the digest view.
type DigestSelected struct {
	WeekEnding domain.Day
}

type DigestLoaded struct {
	WeekEnding domain.Day
	Digest     *domain.Digest
	Err        error
}

// RunCompleted ends a digest run started with the Run binding.
type RunCompleted struct {
	Result *driving.RunResult
	Err    error
}

type TrendsLoaded struct {
	Weeks  int
	Points []domain.ThemeTrendPoint
	Err    error
}
