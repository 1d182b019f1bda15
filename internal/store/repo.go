package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // LLM events only; empty matches all
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

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM calls per purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM calls per model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// TurnEventData is the audit record of one consultation turn.
type TurnEventData struct {
	UserID    string
	TurnID    string
	Status    string
	Pattern   string
	Score     int
	Branch    string
	Route     string
	HasUpdate bool
	Terms     []string
}

// TurnEventRecord is a stored turn event.
type TurnEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	TurnEventData
}

// EventRepo provides append access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendTurn records a consultation turn.
	AppendTurn(ctx context.Context, data TurnEventData) error
}

// ContextRepo stores the last committed conversation context per user.
type ContextRepo interface {
	// Load returns the stored context, or found=false if none exists.
	Load(ctx context.Context, userID string) (data json.RawMessage, found bool, err error)

	// Commit stores data for userID and, when turn is non-nil, appends the
	// turn event in the same transaction.
	Commit(ctx context.Context, userID string, data json.RawMessage, turn *TurnEventData) error

	// Reset deletes the stored context. It reports whether one existed.
	Reset(ctx context.Context, userID string) (bool, error)
}
