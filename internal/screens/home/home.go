package home

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/screen"
	"github.com/abhisek/parley/internal/screens/conversation"
	"github.com/abhisek/parley/internal/screens/history"
	"github.com/abhisek/parley/internal/screens/topics"
	"github.com/abhisek/parley/internal/session"
	"github.com/abhisek/parley/internal/store"
	"github.com/abhisek/parley/internal/ui/components"
)

// Options wires the home screen to the rest of the app.
type Options struct {
	Catalog    *catalog.Catalog
	Controller conversation.Controller
	Recorder   conversation.Recorder // nil without a microphone

	// Store may be nil; history is then unavailable.
	Store    *store.Store
	Generate history.GenerateFunc

	Backend string // shown in the stats bar
	Audio   bool
	Ready   bool // false when no AI backend is configured
	Logger  logging.Logger
}

// HomeScreen is the main menu.
type HomeScreen struct {
	opts          Options
	menu          components.Menu
	menuLabels    []string
	disabled      map[int]bool
	stats         stats
	mascotVariant MascotVariant
}

var (
	_ screen.Screen  = (*HomeScreen)(nil)
	_ screen.Resumer = (*HomeScreen)(nil)
)

// New creates a new HomeScreen.
func New(opts Options) *HomeScreen {
	h := &HomeScreen{
		opts:       opts,
		menuLabels: []string{"FREE TALK", "LESSONS", "SCENARIO CHAT", "HISTORY", "EXIT"},
		disabled:   make(map[int]bool),
	}
	h.refresh()

	practice := opts.Ready && opts.Controller != nil
	items := []components.MenuItem{
		{Label: h.menuLabels[0], Disabled: !practice, Action: func() tea.Cmd {
			return push(h.conversation(session.ModeFree, "", "Free conversation"))
		}},
		{Label: h.menuLabels[1], Disabled: !practice || opts.Catalog == nil, Action: func() tea.Cmd {
			return push(topics.New("Lessons", topics.LessonTopics(opts.Catalog), func(t topics.Topic) screen.Screen {
				return h.conversation(session.ModeLesson, t.ID, t.Title)
			}))
		}},
		{Label: h.menuLabels[2], Disabled: !practice || opts.Catalog == nil, Action: func() tea.Cmd {
			return push(topics.New("Scenarios", topics.ScenarioTopics(opts.Catalog), func(t topics.Topic) screen.Screen {
				return h.conversation(session.ModeChat, t.ID, t.Title)
			}))
		}},
		{Label: h.menuLabels[3], Disabled: opts.Store == nil, Action: func() tea.Cmd {
			return push(history.New(opts.Store.SessionRepo(), opts.Store.ReportRepo(), opts.Generate))
		}},
		{Label: h.menuLabels[4], Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	for i, it := range items {
		h.disabled[i] = it.Disabled
	}
	h.menu = components.NewMenu(items)
	return h
}

// refresh reloads the dashboard counters and picks the mascot.
func (h *HomeScreen) refresh() {
	st := stats{backend: h.opts.Backend, audio: h.opts.Audio}
	recentReport := false

	if h.opts.Store != nil {
		ctx := context.Background()
		if list, err := h.opts.Store.SessionRepo().ListSessions(ctx, 0); err == nil {
			st.sessions = len(list)
		}
		if reps, err := h.opts.Store.ReportRepo().ListReports(ctx, 0); err == nil {
			st.reports = len(reps)
			recentReport = len(reps) > 0 && time.Since(reps[0].CreatedAt) < 24*time.Hour
		}
	}
	h.stats = st

	switch {
	case !h.opts.Ready:
		h.mascotVariant = MascotAlert
	case recentReport:
		h.mascotVariant = MascotCelebrating
	default:
		h.mascotVariant = MascotIdle
	}
}

// Resume refreshes the counters after a session or report.
func (h *HomeScreen) Resume() tea.Cmd {
	h.refresh()
	return nil
}

func (h *HomeScreen) conversation(mode session.Mode, topic, title string) screen.Screen {
	return conversation.New(h.opts.Controller, mode, topic, title, h.opts.Recorder, h.opts.Logger)
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: s}
	}
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	// height is the content area; estimate full terminal height
	// by adding back header (3) + footer (3) + frame gaps
	termHeight := height + 8
	compact := termHeight < 30 || width < 100

	cw := components.ContentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	if !compact {
		sections = append(sections, renderMascotBox(h.mascotVariant, cw))
	}
	if !h.opts.Ready {
		sections = append(sections, renderBanner("Set an AI API key to start practicing (see parley --help)", cw))
	}
	sections = append(sections, renderStatsBar(h.stats, cw, compact))

	sections = append(sections, renderMenu(h.menuLabels, h.menu.Selected, cw, h.disabled, compact))

	return components.Frame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}
