package store

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	tableSessions  = "practice_session"
	tableTurns     = "conversation_turn"
	tableState     = "app_state"
	tableReports   = "feedback_report"
	tableLLMEvents = "llm_request_event"
	tableSequence  = "global_sequence"
)

// Timestamps are stored as unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS global_sequence (
		id       INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`,
	`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`,
	`CREATE TABLE IF NOT EXISTS practice_session (
		id          TEXT PRIMARY KEY,
		mode        TEXT NOT NULL,
		topic       TEXT NOT NULL DEFAULT '',
		started_at  INTEGER NOT NULL,
		ended_at    INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_turn (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence    INTEGER NOT NULL UNIQUE,
		turn_id     TEXT NOT NULL,
		session_id  TEXT NOT NULL REFERENCES practice_session(id) ON DELETE CASCADE,
		sender      TEXT NOT NULL,
		text        TEXT NOT NULL,
		translation TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS conversation_turn_session ON conversation_turn (session_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS app_state (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		updated_at  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedback_report (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence    INTEGER NOT NULL UNIQUE,
		session_id  TEXT NOT NULL DEFAULT '',
		title       TEXT NOT NULL DEFAULT '',
		body        TEXT NOT NULL,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_event (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		timestamp     INTEGER NOT NULL,
		provider      TEXT NOT NULL,
		model         TEXT NOT NULL,
		purpose       TEXT NOT NULL,
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       BOOLEAN NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		request_body  TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
}

// migrate creates every table that does not exist yet and seeds the
// sequence row. The schema only ever grows, so IF NOT EXISTS is enough.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %.40q: %w", stmt, err)
		}
	}
	return nil
}
