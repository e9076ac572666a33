package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// builder renders SQLite statements; ent's builder quotes identifiers and
// binds arguments so no query text is assembled by hand.
var builder = entsql.Dialect(dialect.SQLite)

type sessionRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *sessionRepo) CreateSession(ctx context.Context, s Session) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	query, args := builder.Insert(tableSessions).
		Columns("id", "mode", "topic", "started_at").
		Values(s.ID, s.Mode, s.Topic, s.StartedAt.UnixMilli()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create session %s: %w", s.ID, err)
	}
	return nil
}

func (r *sessionRepo) EndSession(ctx context.Context, id string, at time.Time) error {
	query, args := builder.Update(tableSessions).
		Set("ended_at", at.UnixMilli()).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("end session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("end session %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sessionRepo) GetSession(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, sessionListSQL+` WHERE s.id = ? GROUP BY s.id`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return s, nil
}

// sessionListSQL joins turn counts in; the builder has no grouped join
// helper that reads better than plain SQL here.
const sessionListSQL = `SELECT s.id, s.mode, s.topic, s.started_at, s.ended_at, COUNT(t.id)
	FROM practice_session s LEFT JOIN conversation_turn t ON t.session_id = s.id`

func (r *sessionRepo) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	query := sessionListSQL + ` GROUP BY s.id ORDER BY s.started_at DESC, s.rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		s              Session
		started, ended int64
	)
	if err := row.Scan(&s.ID, &s.Mode, &s.Topic, &started, &ended, &s.Turns); err != nil {
		return nil, err
	}
	s.StartedAt = time.UnixMilli(started)
	if ended > 0 {
		s.EndedAt = time.UnixMilli(ended)
	}
	return &s, nil
}

func (r *sessionRepo) AppendTurn(ctx context.Context, t Turn) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	query, args := builder.Insert(tableTurns).
		Columns("sequence", "turn_id", "session_id", "sender", "text", "translation", "created_at").
		Values(seqNum, t.TurnID, t.SessionID, t.Sender, t.Text, t.Translation, t.CreatedAt.UnixMilli()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (r *sessionRepo) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	query, args := builder.Select("sequence", "turn_id", "session_id", "sender", "text", "translation", "created_at").
		From(entsql.Table(tableTurns)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy(entsql.Asc("sequence")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var (
			t       Turn
			created int64
		)
		if err := rows.Scan(&t.Sequence, &t.TurnID, &t.SessionID, &t.Sender, &t.Text, &t.Translation, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.CreatedAt = time.UnixMilli(created)
		out = append(out, t)
	}
	return out, rows.Err()
}
