package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/parley/internal/screen"
)

// stubScreen is a minimal screen that counts lifecycle calls.
type stubScreen struct {
	title   string
	inits   int
	resumes int
}

func (s *stubScreen) Init() tea.Cmd {
	s.inits++
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }

// resumingScreen also implements screen.Resumer.
type resumingScreen struct{ stubScreen }

func (s *resumingScreen) Resume() tea.Cmd {
	s.resumes++
	return nil
}

func stack(titles ...string) *Router {
	r := New(&stubScreen{title: titles[0]})
	for _, t := range titles[1:] {
		r.Push(&stubScreen{title: t})
	}
	return r
}

func TestPushRunsInit(t *testing.T) {
	r := New(&stubScreen{title: "home"})
	topics := &stubScreen{title: "topics"}
	r.Update(PushScreenMsg{Screen: topics})

	if r.Depth() != 2 || r.Active() != topics {
		t.Fatalf("depth=%d active=%q", r.Depth(), r.Active().Title())
	}
	if topics.inits != 1 {
		t.Errorf("Init ran %d times", topics.inits)
	}
}

func TestPop(t *testing.T) {
	tests := []struct {
		name   string
		stack  []string
		msg    tea.Msg
		depth  int
		active string
	}{
		{"pop one", []string{"home", "topics", "chat"}, PopScreenMsg{}, 2, "topics"},
		{"pop at bottom", []string{"home"}, PopScreenMsg{}, 1, "home"},
		{"pop to root", []string{"home", "topics", "report"}, PopToRootMsg{}, 1, "home"},
		{"pop to root at bottom", []string{"home"}, PopToRootMsg{}, 1, "home"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := stack(tt.stack...)
			r.Update(tt.msg)
			if r.Depth() != tt.depth {
				t.Errorf("depth = %d, want %d", r.Depth(), tt.depth)
			}
			if got := r.Active().Title(); got != tt.active {
				t.Errorf("active = %q, want %q", got, tt.active)
			}
		})
	}
}

func TestPopResumesScreenBelow(t *testing.T) {
	home := &resumingScreen{stubScreen{title: "home"}}
	r := New(home)
	r.Push(&stubScreen{title: "history"})
	r.Push(&stubScreen{title: "report"})

	r.Pop()
	if home.resumes != 0 {
		t.Fatal("home is not active yet and must not resume")
	}
	r.Pop()
	if home.resumes != 1 {
		t.Errorf("resumes = %d, want 1", home.resumes)
	}

	r.Pop()
	if home.resumes != 1 {
		t.Error("pop at bottom must not resume")
	}
}

func TestPopToRootResumes(t *testing.T) {
	home := &resumingScreen{stubScreen{title: "home"}}
	r := New(home)
	r.Push(&stubScreen{title: "topics"})
	r.Push(&stubScreen{title: "report"})

	r.Update(PopToRootMsg{})
	if home.resumes != 1 {
		t.Errorf("resumes = %d, want 1", home.resumes)
	}
}

func TestReplaceKeepsDepth(t *testing.T) {
	r := stack("home", "conversation")
	report := &stubScreen{title: "report"}
	r.Update(ReplaceScreenMsg{Screen: report})

	if r.Depth() != 2 {
		t.Errorf("depth = %d, want 2", r.Depth())
	}
	if r.Active() != report || report.inits != 1 {
		t.Errorf("active=%q inits=%d", r.Active().Title(), report.inits)
	}

	// Popping the report returns past the replaced conversation.
	r.Pop()
	if r.Active().Title() != "home" {
		t.Errorf("after pop active = %q", r.Active().Title())
	}
}

func TestViewRendersActive(t *testing.T) {
	r := stack("home", "lessons")
	if got := r.View(80, 24); got != "lessons" {
		t.Errorf("View = %q", got)
	}
}
