// Package topics lets the learner pick a lesson or a chat scenario.
package topics

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/screen"
	"github.com/abhisek/parley/internal/ui/components"
	"github.com/abhisek/parley/internal/ui/layout"
	"github.com/abhisek/parley/internal/ui/theme"
)

// Topic is one pickable entry.
type Topic struct {
	ID     string
	Title  string
	Detail string
}

// OpenFunc builds the screen for a picked topic.
type OpenFunc func(t Topic) screen.Screen

// LessonTopics lists the catalog's lessons in order.
func LessonTopics(cat *catalog.Catalog) []Topic {
	var out []Topic
	for _, l := range cat.Lessons() {
		out = append(out, Topic{
			ID:     l.ID,
			Title:  l.Title,
			Detail: fmt.Sprintf("%d steps · %s", len(l.Layers), l.Scenario),
		})
	}
	return out
}

// ScenarioTopics lists the catalog's chat scenarios in order.
func ScenarioTopics(cat *catalog.Catalog) []Topic {
	var out []Topic
	for _, s := range cat.Scenarios() {
		detail := s.Description
		if s.Role != "" {
			detail = "Your partner: " + s.Role
		}
		out = append(out, Topic{ID: s.ID, Title: s.Title, Detail: detail})
	}
	return out
}

// TopicsScreen shows a list of topics as cards.
type TopicsScreen struct {
	title    string
	topics   []Topic
	selected int
	open     OpenFunc
}

var _ screen.Screen = (*TopicsScreen)(nil)
var _ screen.KeyHintProvider = (*TopicsScreen)(nil)

// New creates a new TopicsScreen.
func New(title string, topics []Topic, open OpenFunc) *TopicsScreen {
	return &TopicsScreen{title: title, topics: topics, open: open}
}

func (s *TopicsScreen) Init() tea.Cmd {
	return nil
}

func (s *TopicsScreen) Title() string {
	return s.title
}

func (s *TopicsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Start"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *TopicsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch kmsg.String() {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
	case "down", "j":
		if s.selected < len(s.topics)-1 {
			s.selected++
		}
	case "enter":
		if s.selected < len(s.topics) && s.open != nil {
			next := s.open(s.topics[s.selected])
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	}
	return s, nil
}

func (s *TopicsScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	if len(s.topics) == 0 {
		return components.Frame(
			lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("Nothing here yet."),
			width, height)
	}

	// Cards are 4 rows each; scroll to keep the selection visible.
	visible := max((height-4)/5, 1)
	first := 0
	if s.selected >= visible {
		first = s.selected - visible + 1
	}
	last := min(first+visible, len(s.topics))

	var cards []string
	for i := first; i < last; i++ {
		t := s.topics[i]
		title := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(t.Title)
		if i == s.selected {
			title = theme.Selected.Render("▸ " + t.Title)
		}
		detail := lipgloss.NewStyle().Foreground(theme.TextDim).Render(t.Detail)
		cards = append(cards, components.Card(title+"\n"+detail, cw, i == s.selected))
	}
	if last < len(s.topics) {
		cards = append(cards, theme.Hint.Render(fmt.Sprintf("%d more below", len(s.topics)-last)))
	}
	return components.Frame(strings.Join(cards, "\n"), width, height)
}
