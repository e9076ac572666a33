package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/audio"
	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/screen"
	"github.com/abhisek/parley/internal/screens/conversation"
	"github.com/abhisek/parley/internal/screens/home"
	"github.com/abhisek/parley/internal/session"
	"github.com/abhisek/parley/internal/store"
	"github.com/abhisek/parley/internal/ui/layout"
)

// Options are the dependencies of the terminal UI.
type Options struct {
	// Session configures the controller. Notify is set by Run.
	Session session.Options

	Catalog  *catalog.Catalog
	Store    *store.Store
	Recorder *audio.Recorder // nil without a microphone

	BackendName string
	Ready       bool // false when no AI backend is configured
	Logger      logging.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel creates a new AppModel showing initial.
func newAppModel(initial screen.Screen) AppModel {
	return AppModel{
		router: router.New(initial),
	}
}

func (m AppModel) Init() tea.Cmd {
	return nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEscape() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title, mode, status := "", "", ""
	if active != nil {
		title = active.Title()
	}
	if hp, ok := active.(screen.HeaderProvider); ok {
		mode, status = hp.HeaderStatus()
	}

	header := layout.RenderHeader(title, mode, status, m.width)

	var footerHints []layout.KeyHint
	switch {
	case active != nil && hasHints(active):
		footerHints = append(active.(screen.KeyHintProvider).KeyHints(),
			layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	case m.router.Depth() > 1:
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	default:
		footerHints = []layout.KeyHint{
			{Key: "↑↓", Description: "Navigate"},
			{Key: "Enter", Description: "Select"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func hasHints(s screen.Screen) bool {
	kp, ok := s.(screen.KeyHintProvider)
	return ok && len(kp.KeyHints()) > 0
}

// Run starts the Bubble Tea program. Session events are forwarded to the
// active screen as session.Event messages.
func Run(opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	events := make(chan session.Event, 64)
	done := make(chan struct{})
	so := opts.Session
	so.Notify = func(e session.Event) {
		select {
		case events <- e:
		case <-done:
		}
	}
	ctrl := session.New(so)

	var rec conversation.Recorder
	if opts.Recorder != nil {
		rec = opts.Recorder
	}

	var generate func(ctx context.Context, sessionID string) (collab.Report, error)
	if opts.Store != nil && so.Backend != nil {
		generate = func(ctx context.Context, sessionID string) (collab.Report, error) {
			r, _, err := session.ReportFor(ctx, so.Backend, opts.Store, sessionID)
			return r, err
		}
	}

	homeScreen := home.New(home.Options{
		Catalog:    opts.Catalog,
		Controller: ctrl,
		Recorder:   rec,
		Store:      opts.Store,
		Generate:   generate,
		Backend:    opts.BackendName,
		Audio:      !so.Mute && so.Player != nil,
		Ready:      opts.Ready,
		Logger:     logger,
	})

	p := tea.NewProgram(newAppModel(homeScreen))
	go func() {
		for {
			select {
			case e := <-events:
				p.Send(e)
			case <-done:
				return
			}
		}
	}()

	_, err := p.Run()
	close(done)
	if cerr := ctrl.Close(context.Background()); cerr != nil {
		logger.Warn("close session on exit", "error", cerr)
	}
	if opts.Recorder != nil && opts.Recorder.Recording() {
		opts.Recorder.Cancel()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
