package server

import (
	"encoding/json"

	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/session"
)

// Request types accepted by /api/tcm_process.
const (
	RequestChat  = "chat"
	RequestImage = "image"
)

// ClientRequest is the /api/tcm_process request envelope.
type ClientRequest struct {
	UserID      string  `json:"user_id"`
	RequestType string  `json:"request_type" binding:"required,reqtype"`
	Payload     Payload `json:"payload"`
}

// Payload carries the turn's content and the client-held conversation state.
type Payload struct {
	Images *Images `json:"images"`
	// ImageBase64 is the single-image form used by older clients; it is
	// treated as a tongue photograph.
	ImageBase64  string          `json:"image_base64"`
	UserText     string          `json:"user_text" binding:"max=4000"`
	SavedContext json.RawMessage `json:"saved_context"`
	History      []HistoryEntry  `json:"history" binding:"max=200,dive"`
}

// Images holds the optional photographs.
type Images struct {
	Tongue string `json:"tongue"`
	Face   string `json:"face"`
}

// HistoryEntry is one prior message.
type HistoryEntry struct {
	Role    string `json:"role" binding:"required,chatrole"`
	Content string `json:"content"`
}

// ServerResponse is the response envelope of every endpoint.
type ServerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// TurnData is the data of a /api/tcm_process response.
type TurnData struct {
	ReplyText     string `json:"reply_text"`
	HasNewContext bool   `json:"has_new_context"`
	// NewContextToSave is present only when HasNewContext is true.
	NewContextToSave *session.Context `json:"new_context_to_save,omitempty"`
	UserID           string           `json:"user_id"`
	TurnID           string           `json:"turn_id"`
	Diagnosis        DiagnosisData    `json:"diagnosis"`
}

// DiagnosisData summarizes a diagnosis for clients.
type DiagnosisData struct {
	Status     diagnosis.Status        `json:"status"`
	Pattern    string                  `json:"pattern,omitempty"`
	Score      int                     `json:"score"`
	Category   rules.Category          `json:"category,omitempty"`
	Evidence   string                  `json:"evidence,omitempty"`
	Branch     diagnosis.Branch        `json:"branch"`
	Route      rules.Category          `json:"route"`
	Axes       []diagnosis.AxisScore   `json:"axes"`
	FollowUps  []string                `json:"follow_ups,omitempty"`
	Candidates []diagnosis.MatchResult `json:"candidates"`
}

// DiagnoseRequest is the /api/diagnose request.
type DiagnoseRequest struct {
	Symptoms []string `json:"symptoms" binding:"max=200,dive,max=64"`
}

// DiagnoseData is the /api/diagnose response data.
type DiagnoseData struct {
	Symptoms  []string            `json:"symptoms"`
	Diagnosis DiagnosisData       `json:"diagnosis"`
	Directive diagnosis.Directive `json:"directive"`
}

// RulesData is the /api/rules response data.
type RulesData struct {
	Categories map[rules.Category]int `json:"categories"`
	Symptoms   int                    `json:"symptoms"`
	Skipped    int                    `json:"skipped"`
	Rows       []RuleRow              `json:"rows,omitempty"`
}

// RuleRow is one normalized rule row.
type RuleRow struct {
	Pattern   string   `json:"pattern"`
	Core      []string `json:"core"`
	Secondary []string `json:"secondary"`
}

func diagnosisData(res *diagnosis.Result) DiagnosisData {
	d := DiagnosisData{
		Status:     res.Directive.Status,
		Pattern:    res.Pattern(),
		Score:      res.Score(),
		Evidence:   res.Directive.Evidence,
		FollowUps:  res.Directive.FollowUps,
		Candidates: []diagnosis.MatchResult{},
	}
	if w := res.Walk; w != nil {
		d.Branch = w.Branch
		d.Route = w.Route
		d.Axes = w.Axes
		if ranked := w.Ranked(); len(ranked) > 0 {
			d.Candidates = ranked
		}
		if w.Selected != nil {
			d.Category = w.Selected.Category
		}
	}
	return d
}
