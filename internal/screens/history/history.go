package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/convlog"
	"github.com/abhisek/parley/internal/report"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/screen"
	reportscreen "github.com/abhisek/parley/internal/screens/report"
	"github.com/abhisek/parley/internal/store"
	"github.com/abhisek/parley/internal/ui/layout"
	"github.com/abhisek/parley/internal/ui/theme"
)

// GenerateFunc produces and stores a report for a past session.
type GenerateFunc func(ctx context.Context, sessionID string) (collab.Report, error)

type historyLoadedMsg struct {
	Sessions []store.Session
	Reports  map[string]store.Report // sessionID → latest report
	Err      error
}

type turnsLoadedMsg struct {
	SessionID string
	Turns     []store.Turn
	Err       error
}

type reportDoneMsg struct {
	Report   collab.Report
	Subtitle string
	Err      error
}

// HistoryScreen lists past sessions with their transcripts and reports.
type HistoryScreen struct {
	sessions store.SessionRepo
	reports  store.ReportRepo
	generate GenerateFunc

	list       []store.Session
	latest     map[string]store.Report
	turns      map[string][]store.Turn
	selected   int
	expanded   map[int]bool
	loaded     bool
	generating bool
	errMsg     string
	notice     string
}

var (
	_ screen.Screen          = (*HistoryScreen)(nil)
	_ screen.KeyHintProvider = (*HistoryScreen)(nil)
	_ screen.Resumer         = (*HistoryScreen)(nil)
)

// New creates a new HistoryScreen. generate may be nil, which hides report
// generation.
func New(sessions store.SessionRepo, reports store.ReportRepo, generate GenerateFunc) *HistoryScreen {
	return &HistoryScreen{
		sessions: sessions,
		reports:  reports,
		generate: generate,
		latest:   make(map[string]store.Report),
		turns:    make(map[string][]store.Turn),
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		list, err := s.sessions.ListSessions(ctx, 50)
		if err != nil {
			return historyLoadedMsg{Err: err}
		}

		// Reports come newest first; keep the first seen per session.
		latest := make(map[string]store.Report)
		if s.reports != nil {
			recs, err := s.reports.ListReports(ctx, 200)
			if err != nil {
				return historyLoadedMsg{Sessions: list, Reports: latest}
			}
			for _, r := range recs {
				if _, ok := latest[r.SessionID]; !ok {
					latest[r.SessionID] = r
				}
			}
		}
		return historyLoadedMsg{Sessions: list, Reports: latest}
	}
}

// Resume reloads the list so a report generated from a pushed screen shows up.
func (s *HistoryScreen) Resume() tea.Cmd {
	return s.Init()
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Transcript"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "V", Description: "View report"},
	}
	if s.generate != nil {
		hints = append(hints, layout.KeyHint{Key: "G", Description: "New report"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.list = msg.Sessions
			s.latest = msg.Reports
		}
		s.loaded = true
		return s, nil

	case turnsLoadedMsg:
		if msg.Err != nil {
			s.notice = "Could not load transcript: " + msg.Err.Error()
			return s, nil
		}
		s.turns[msg.SessionID] = msg.Turns
		return s, nil

	case reportDoneMsg:
		s.generating = false
		if msg.Err != nil {
			s.notice = "Report failed: " + msg.Err.Error()
			return s, nil
		}
		s.notice = ""
		r, sub := msg.Report, msg.Subtitle
		return s, func() tea.Msg {
			return router.PushScreenMsg{Screen: reportscreen.New(r, sub)}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.list)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			return s, s.toggle()
		case "v":
			return s, s.viewReport()
		case "g":
			return s, s.generateReport()
		}
	}
	return s, nil
}

func (s *HistoryScreen) current() (store.Session, bool) {
	if s.selected < 0 || s.selected >= len(s.list) {
		return store.Session{}, false
	}
	return s.list[s.selected], true
}

func (s *HistoryScreen) toggle() tea.Cmd {
	sess, ok := s.current()
	if !ok {
		return nil
	}
	s.expanded[s.selected] = !s.expanded[s.selected]
	if !s.expanded[s.selected] {
		return nil
	}
	if _, loaded := s.turns[sess.ID]; loaded {
		return nil
	}
	repo, id := s.sessions, sess.ID
	return func() tea.Msg {
		turns, err := repo.Turns(context.Background(), id)
		return turnsLoadedMsg{SessionID: id, Turns: turns, Err: err}
	}
}

func (s *HistoryScreen) viewReport() tea.Cmd {
	sess, ok := s.current()
	if !ok {
		return nil
	}
	rec, ok := s.latest[sess.ID]
	if !ok {
		s.notice = "No report yet for this session."
		if s.generate != nil {
			s.notice += " Press G to create one."
		}
		return nil
	}
	r, err := report.Decode(rec)
	if err != nil {
		s.notice = "Stored report is unreadable: " + err.Error()
		return nil
	}
	sub := subtitle(sess)
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: reportscreen.New(r, sub)}
	}
}

func (s *HistoryScreen) generateReport() tea.Cmd {
	sess, ok := s.current()
	if !ok || s.generate == nil || s.generating {
		return nil
	}
	s.generating = true
	s.notice = "Writing your report..."
	gen, id, sub := s.generate, sess.ID, subtitle(sess)
	return func() tea.Msg {
		r, err := gen(context.Background(), id)
		return reportDoneMsg{Report: r, Subtitle: sub, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.list) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No conversations yet. Start practicing!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sess := range s.list {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		reportMark := ""
		if rec, ok := s.latest[sess.ID]; ok {
			reportMark = "  ★ " + rec.Title
		}
		line := fmt.Sprintf("%s%s  %-14s %-24s %3d turns  %s%s",
			prefix, sess.StartedAt.Format("Jan 02 15:04"), modeName(sess.Mode), truncate(sess.Topic, 24),
			sess.Turns, duration(sess), reportMark)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(renderTurns(s.turns[sess.ID], width))
		}
	}

	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Render("  " + s.notice))
		b.WriteString("\n")
	}

	return b.String()
}

func renderTurns(turns []store.Turn, width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)
	if turns == nil {
		return dim.Render("      loading...") + "\n"
	}
	if len(turns) == 0 {
		return dim.Render("      Nothing was said in this session") + "\n"
	}

	textWidth := width - 18
	if textWidth < 20 {
		textWidth = 20
	}
	var b strings.Builder
	for _, t := range turns {
		who := "      Partner  "
		color := theme.Partner
		switch t.Sender {
		case convlog.SenderUser:
			who = "      You      "
			color = theme.Learner
		case convlog.SenderSystem:
			who = "               "
			color = theme.TextDim
		}
		label := lipgloss.NewStyle().Foreground(color).Render(who)
		body := lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text).Render(t.Text)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, label, body))
		b.WriteString("\n")
	}
	return b.String()
}

func subtitle(sess store.Session) string {
	return fmt.Sprintf("%s · %s · %s", modeName(sess.Mode), sess.Topic, sess.StartedAt.Format("Jan 02, 2006"))
}

func modeName(mode string) string {
	switch mode {
	case "free":
		return "Free talk"
	case "lesson":
		return "Lesson"
	case "chat":
		return "Scenario"
	}
	return mode
}

func duration(sess store.Session) string {
	if sess.EndedAt.IsZero() {
		return "open"
	}
	d := sess.EndedAt.Sub(sess.StartedAt)
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", mins, secs)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
