// Package convlog keeps the append-only conversation log of a session and
// mirrors every turn to the store so a crashed session can be recovered.
package convlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/abhisek/parley/internal/collab"
	"github.com/abhisek/parley/internal/logging"
	"github.com/abhisek/parley/internal/store"
)

// Senders.
const (
	SenderUser   = "user"
	SenderAI     = "ai"
	SenderSystem = "system"
)

// Entry is one logged turn.
type Entry struct {
	ID          string
	Sender      string
	Text        string
	Translation string
	At          time.Time
}

// NewTurnID generates a turn ID in format T-{nanoid(10)}.
func NewTurnID() (string, error) {
	id, err := gonanoid.New(10)
	if err != nil {
		return "", fmt.Errorf("generate turn id: %w", err)
	}
	return "T-" + id, nil
}

// Log is safe for concurrent use.
type Log struct {
	mu        sync.Mutex
	sessionID string
	repo      store.SessionRepo
	logger    logging.Logger
	entries   []Entry
	now       func() time.Time
}

// New creates an empty log for sessionID. repo may be nil to keep the log
// in memory only.
func New(sessionID string, repo store.SessionRepo, logger logging.Logger) *Log {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Log{sessionID: sessionID, repo: repo, logger: logger, now: time.Now}
}

// Resume rebuilds the log of a stored session.
func Resume(ctx context.Context, sessionID string, repo store.SessionRepo, logger logging.Logger) (*Log, error) {
	turns, err := repo.Turns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	l := New(sessionID, repo, logger)
	for _, t := range turns {
		l.entries = append(l.entries, Entry{
			ID: t.TurnID, Sender: t.Sender, Text: t.Text, Translation: t.Translation, At: t.CreatedAt,
		})
	}
	return l, nil
}

// SessionID returns the session the log belongs to.
func (l *Log) SessionID() string { return l.sessionID }

// Append adds a turn. The entry is kept in memory even when mirroring to
// the store fails; that error is returned for the caller to report.
func (l *Log) Append(ctx context.Context, sender, text, translation string) (Entry, error) {
	id, err := NewTurnID()
	if err != nil {
		return Entry{}, err
	}
	e := Entry{ID: id, Sender: sender, Text: text, Translation: translation, At: l.now()}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	if l.repo == nil {
		return e, nil
	}
	err = l.repo.AppendTurn(ctx, store.Turn{
		TurnID:      e.ID,
		SessionID:   l.sessionID,
		Sender:      e.Sender,
		Text:        e.Text,
		Translation: e.Translation,
		CreatedAt:   e.At,
	})
	if err != nil {
		l.logger.Warn("conversation backup failed", "session", l.sessionID, "turn", e.ID, "error", err)
		return e, fmt.Errorf("back up turn: %w", err)
	}
	return e, nil
}

// Entries returns a copy of all entries in order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Lines returns the conversation lines, leaving out system notices.
func (l *Log) Lines() []collab.Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []collab.Line
	for _, e := range l.entries {
		if e.Sender == SenderSystem {
			continue
		}
		out = append(out, collab.Line{Sender: e.Sender, Text: e.Text})
	}
	return out
}

// Tail returns the last n conversation lines.
func (l *Log) Tail(n int) []collab.Line {
	lines := l.Lines()
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// LastAI returns the most recent partner line, or "".
func (l *Log) LastAI() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Sender == SenderAI {
			return l.entries[i].Text
		}
	}
	return ""
}
