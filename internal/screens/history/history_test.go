package history

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/report"
	"github.com/abhisek/parley/internal/router"
	"github.com/abhisek/parley/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := st.SessionRepo()
	if err := repo.CreateSession(ctx, store.Session{ID: "s1", Mode: "chat", Topic: "coffee-shop", StartedAt: start}); err != nil {
		t.Fatal(err)
	}
	for i, line := range []struct{ sender, text string }{
		{"ai", "What can I get you?"},
		{"user", "A latte please"},
	} {
		err := repo.AppendTurn(ctx, store.Turn{
			TurnID: "T-" + string(rune('a'+i)), SessionID: "s1",
			Sender: line.sender, Text: line.text, CreatedAt: start.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.EndSession(ctx, "s1", start.Add(3*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if _, err := report.Save(ctx, st.ReportRepo(), "s1", collab.Report{Title: "Smooth order"}); err != nil {
		t.Fatal(err)
	}
	return st
}

func loaded(t *testing.T, s *HistoryScreen) {
	t.Helper()
	s.Update(s.Init()())
	if !s.loaded {
		t.Fatal("history not loaded")
	}
}

func TestHistory_ListsSessions(t *testing.T) {
	st := seededStore(t)
	s := New(st.SessionRepo(), st.ReportRepo(), nil)
	loaded(t, s)

	view := s.View(120, 30)
	for _, want := range []string{"Scenario", "coffee-shop", "2 turns", "3:00", "Smooth order"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestHistory_Empty(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	s := New(st.SessionRepo(), st.ReportRepo(), nil)
	loaded(t, s)
	if !strings.Contains(s.View(80, 24), "No conversations yet") {
		t.Error("expected empty message")
	}
}

func TestHistory_ExpandShowsTranscript(t *testing.T) {
	st := seededStore(t)
	s := New(st.SessionRepo(), st.ReportRepo(), nil)
	loaded(t, s)

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected transcript load")
	}
	s.Update(cmd())

	view := s.View(120, 30)
	if !strings.Contains(view, "A latte please") || !strings.Contains(view, "What can I get you?") {
		t.Errorf("transcript missing:\n%s", view)
	}

	// Collapsing needs no reload.
	if _, cmd = s.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil {
		t.Error("collapse should not load")
	}
}

func TestHistory_ViewStoredReport(t *testing.T) {
	st := seededStore(t)
	s := New(st.SessionRepo(), st.ReportRepo(), nil)
	loaded(t, s)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'v', Text: "v"})
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if push.Screen.Title() != "Report" {
		t.Errorf("pushed %q", push.Screen.Title())
	}
}

func TestHistory_GenerateReport(t *testing.T) {
	st := seededStore(t)
	var got string
	gen := func(_ context.Context, id string) (collab.Report, error) {
		got = id
		return collab.Report{Title: "Fresh"}, nil
	}
	s := New(st.SessionRepo(), st.ReportRepo(), gen)
	loaded(t, s)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'g', Text: "g"})
	_, cmd = s.Update(cmd())
	if got != "s1" {
		t.Errorf("generated for %q", got)
	}
	if _, ok := cmd().(router.PushScreenMsg); !ok {
		t.Error("expected report screen push")
	}
}

func TestHistory_GenerateFailure(t *testing.T) {
	st := seededStore(t)
	gen := func(context.Context, string) (collab.Report, error) {
		return collab.Report{}, errors.New("offline")
	}
	s := New(st.SessionRepo(), st.ReportRepo(), gen)
	loaded(t, s)

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'g', Text: "g"})
	if _, cmd = s.Update(cmd()); cmd != nil {
		t.Error("failure should not navigate")
	}
	if !strings.Contains(s.View(120, 30), "Report failed: offline") {
		t.Error("failure notice missing")
	}
}

func TestHistory_ResumeReloads(t *testing.T) {
	st := seededStore(t)
	s := New(st.SessionRepo(), st.ReportRepo(), nil)
	loaded(t, s)

	if err := st.SessionRepo().CreateSession(context.Background(), store.Session{ID: "s2", Mode: "free"}); err != nil {
		t.Fatal(err)
	}
	cmd := s.Resume()
	if cmd == nil {
		t.Fatal("expected a reload command")
	}
	s.Update(cmd())
	if len(s.list) != 2 {
		t.Errorf("sessions = %d, want 2", len(s.list))
	}
}
