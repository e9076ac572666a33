package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// Session is one practice session: a free conversation, a lesson run or a
// scenario chat.
type Session struct {
	ID        string
	Mode      string
	Topic     string
	StartedAt time.Time
	EndedAt   time.Time // zero while the session is open
	Turns     int
}

// Turn is one persisted entry of the conversation log.
type Turn struct {
	Sequence    int64
	TurnID      string
	SessionID   string
	Sender      string
	Text        string
	Translation string
	CreatedAt   time.Time
}

// Report is a stored end-of-session feedback report. Body holds the
// rendered report as JSON.
type Report struct {
	ID        int
	Sequence  int64
	SessionID string
	Title     string
	Body      json.RawMessage
	CreatedAt time.Time
}

// SessionRepo persists practice sessions and their transcripts.
type SessionRepo interface {
	CreateSession(ctx context.Context, s Session) error
	EndSession(ctx context.Context, id string, at time.Time) error
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns the most recent sessions first.
	ListSessions(ctx context.Context, limit int) ([]Session, error)

	AppendTurn(ctx context.Context, t Turn) error

	// Turns returns the transcript of a session in append order.
	Turns(ctx context.Context, sessionID string) ([]Turn, error)
}

// StateRepo is a small key/value store for application state that must
// survive restarts, such as the question bank.
type StateRepo interface {
	PutState(ctx context.Context, key string, value []byte) error

	// GetState returns ErrNotFound when key has never been written.
	GetState(ctx context.Context, key string) ([]byte, error)
}

// ReportRepo persists feedback reports.
type ReportRepo interface {
	SaveReport(ctx context.Context, r *Report) error
	GetReport(ctx context.Context, id int) (*Report, error)
	ListReports(ctx context.Context, limit int) ([]Report, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns nil when no event has the given ID.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
