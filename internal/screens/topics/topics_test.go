package topics

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/screen"
)

type stubScreen struct{ title string }

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }

func TestLessonTopicsFromCatalog(t *testing.T) {
	cat, err := catalog.Load("dev")
	if err != nil {
		t.Fatal(err)
	}
	lessons := LessonTopics(cat)
	if len(lessons) == 0 {
		t.Fatal("expected embedded lessons")
	}
	if !strings.Contains(lessons[0].Detail, "steps") {
		t.Errorf("detail = %q", lessons[0].Detail)
	}
	if len(ScenarioTopics(cat)) == 0 {
		t.Fatal("expected embedded scenarios")
	}
}

func TestTopicsScreen_OpenSelected(t *testing.T) {
	var picked Topic
	s := New("Lessons", []Topic{{ID: "a", Title: "First"}, {ID: "b", Title: "Second"}}, func(tp Topic) screen.Screen {
		picked = tp
		return &stubScreen{title: tp.Title}
	})

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown}) // clamps at the end
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if picked.ID != "b" || push.Screen.Title() != "Second" {
		t.Errorf("picked %+v, pushed %q", picked, push.Screen.Title())
	}
}

func TestTopicsScreen_View(t *testing.T) {
	s := New("Scenarios", []Topic{{ID: "a", Title: "Coffee shop", Detail: "Your partner: barista"}}, nil)
	view := s.View(100, 30)
	if !strings.Contains(view, "Coffee shop") || !strings.Contains(view, "barista") {
		t.Errorf("unexpected view:\n%s", view)
	}
	if !strings.Contains(New("Empty", nil, nil).View(100, 30), "Nothing here yet") {
		t.Error("expected empty message")
	}
}
