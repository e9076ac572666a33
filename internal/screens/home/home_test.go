package home

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/parley/internal/catalog"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/session"
	"github.com/abhisek/parley/internal/store"
)

func testOptions(t *testing.T, ready bool) Options {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "home.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	cat, err := catalog.Load("dev")
	if err != nil {
		t.Fatal(err)
	}
	return Options{
		Catalog:    cat,
		Controller: session.New(session.Options{Catalog: cat, Store: st}),
		Store:      st,
		Backend:    "local",
		Ready:      ready,
	}
}

func TestHome_Menu(t *testing.T) {
	h := New(testOptions(t, true))
	view := h.View(120, 40)
	for _, want := range []string{"FREE TALK", "LESSONS", "SCENARIO CHAT", "HISTORY", "LOCAL"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	// Second item opens the lesson picker.
	h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if push.Screen.Title() != "Lessons" {
		t.Errorf("pushed %q", push.Screen.Title())
	}
}

func TestHome_NotReadyDisablesPractice(t *testing.T) {
	h := New(testOptions(t, false))
	if h.mascotVariant != MascotAlert {
		t.Error("expected alert mascot")
	}
	if !strings.Contains(h.View(120, 40), "Set an AI API key") {
		t.Error("expected setup banner")
	}

	// The first enabled item is HISTORY.
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	push, ok := cmd().(router.PushScreenMsg)
	if !ok || push.Screen.Title() != "History" {
		t.Fatalf("expected history, got %+v", push)
	}
}

func TestHome_DigitShortcut(t *testing.T) {
	h := New(testOptions(t, true))
	_, cmd := h.Update(tea.KeyPressMsg{Code: '3', Text: "3"})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok || push.Screen.Title() != "Scenarios" {
		t.Fatalf("expected scenario picker, got %+v", push)
	}
}

func TestHome_ResumeRefreshesStats(t *testing.T) {
	opts := testOptions(t, true)
	h := New(opts)
	if h.stats.sessions != 0 {
		t.Fatalf("sessions = %d", h.stats.sessions)
	}

	err := opts.Store.SessionRepo().CreateSession(context.Background(), store.Session{ID: "s1", Mode: "free"})
	if err != nil {
		t.Fatal(err)
	}
	h.Resume()
	if h.stats.sessions != 1 {
		t.Errorf("sessions after resume = %d, want 1", h.stats.sessions)
	}
}
