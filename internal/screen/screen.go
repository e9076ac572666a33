package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/parley/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// EscapeHandler is implemented by screens that handle Esc themselves
// instead of being popped by the app, e.g. to confirm ending a session.
type EscapeHandler interface {
	HandlesEscape() bool
}

// HeaderProvider is an optional interface for screens that show their
// mode and a live status in the header.
type HeaderProvider interface {
	HeaderStatus() (mode, status string)
}

// Resumer is implemented by screens that refresh when they become active
// again after the screen above them closes.
type Resumer interface {
	Resume() tea.Cmd
}
