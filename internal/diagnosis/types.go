package diagnosis

import (
	"strings"

	"github.com/abhisek/tcmdx/internal/rules"
)

// Status is the diagnostic posture of a conversation.
type Status string

const (
	StatusUnknown   Status = "UNKNOWN"
	StatusSuspected Status = "SUSPECTED"
	StatusConfirmed Status = "CONFIRMED"
)

// ParseStatus maps a stored status tag to a Status. Unrecognized or empty
// tags become StatusUnknown.
func ParseStatus(s string) Status {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusSuspected:
		return StatusSuspected
	case StatusConfirmed:
		return StatusConfirmed
	default:
		return StatusUnknown
	}
}

// Scoring weights and the confirmation threshold.
const (
	PointsCore       = 10
	PointsSecondary  = 3
	ConfirmThreshold = 40
)

// MatchResult is the outcome of scoring one pattern against a term set.
type MatchResult struct {
	Category rules.Category `json:"category"`
	Pattern  string         `json:"pattern"`
	Score    int            `json:"score"`

	// MatchedCore holds rule core terms that found a user term.
	MatchedCore []string `json:"matched_core"`
	// MatchedSecondary holds user terms that hit a secondary rule term.
	MatchedSecondary []string `json:"matched_secondary"`
	MissingCore      []string `json:"missing_core"`
	MissingSecondary []string `json:"missing_secondary,omitempty"`

	Evidence string `json:"evidence"`
}
