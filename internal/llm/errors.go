package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimit is a 429 from the provider. RetryAfter is zero when the
// provider gave no hint, and the backoff schedule applies instead.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter <= 0 {
		return fmt.Sprintf("rate limited: %v", e.Err)
	}
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse is model output that does not fit the requested
// schema, or a reply with no usable text at all. Schema is empty for the
// latter.
type ErrInvalidResponse struct {
	Schema  string
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("invalid LLM response: %v", e.Err)
	}
	return fmt.Sprintf("invalid %s response: %v", e.Schema, e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded is a structured reply cut off at the token limit.
// Content holds the partial JSON as received; it is never valid against
// the schema, so the call is not retried.
type ErrMaxTokensExceeded struct {
	Schema  string
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	name := e.Schema
	if name == "" {
		name = "LLM"
	}
	return fmt.Sprintf("%s response truncated at max tokens after %d bytes", name, len(e.Content))
}
