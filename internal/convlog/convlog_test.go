package convlog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abhisek/parley/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "log.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendMirrorsToStore(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	repo := s.SessionRepo()
	if err := repo.CreateSession(ctx, store.Session{ID: "s1", Mode: "free"}); err != nil {
		t.Fatal(err)
	}

	l := New("s1", repo, nil)
	e, err := l.Append(ctx, SenderAI, "How are you?", "Como vai?")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !strings.HasPrefix(e.ID, "T-") || len(e.ID) != 12 {
		t.Errorf("turn id = %q", e.ID)
	}
	if _, err := l.Append(ctx, SenderUser, "Fine, thanks", ""); err != nil {
		t.Fatal(err)
	}

	turns, err := repo.Turns(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 || turns[0].Text != "How are you?" || turns[1].Sender != SenderUser {
		t.Fatalf("turns = %+v", turns)
	}

	resumed, err := Resume(ctx, "s1", repo, nil)
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Len() != 2 || resumed.Entries()[0].ID != e.ID {
		t.Errorf("resumed = %+v", resumed.Entries())
	}
}

func TestAppendKeepsEntryWhenBackupFails(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	l := New("missing-session", s.SessionRepo(), nil)

	if _, err := l.Append(ctx, SenderUser, "hello", ""); err == nil {
		t.Fatal("expected backup error for unknown session")
	}
	if l.Len() != 1 {
		t.Errorf("entry dropped from memory")
	}
}

func TestLinesAndTail(t *testing.T) {
	ctx := context.Background()
	l := New("mem", nil, nil)
	l.Append(ctx, SenderAI, "one", "")
	l.Append(ctx, SenderSystem, "notice", "")
	l.Append(ctx, SenderUser, "two", "")
	l.Append(ctx, SenderAI, "three", "")

	lines := l.Lines()
	if len(lines) != 3 {
		t.Fatalf("system notices should be skipped: %+v", lines)
	}
	tail := l.Tail(2)
	if len(tail) != 2 || tail[0].Text != "two" || tail[1].Text != "three" {
		t.Errorf("tail = %+v", tail)
	}
	if l.LastAI() != "three" {
		t.Errorf("LastAI = %q", l.LastAI())
	}
}
