package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/tcmdx/internal/consult"
	"github.com/abhisek/tcmdx/internal/llm"
	"github.com/abhisek/tcmdx/internal/reply"
	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/terms"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

func (s *Server) fail(c *gin.Context, code int, msg string) {
	c.JSON(code, ServerResponse{Status: statusError, Message: msg})
}

func (s *Server) handleProcess(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = uuid.NewString()
	}

	in := consult.TurnInput{
		UserID:       userID,
		Text:         req.Payload.UserText,
		Images:       req.Payload.images(),
		SavedContext: req.Payload.SavedContext,
		History:      make([]llm.Message, 0, len(req.Payload.History)),
	}
	for _, h := range req.Payload.History {
		in.History = append(in.History, llm.Message{Role: llm.Role(h.Role), Content: h.Content})
	}

	ctx := c.Request.Context()
	if s.opts.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TurnTimeout)
		defer cancel()
	}

	res, err := s.opts.Consult.Turn(ctx, in)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusGatewayTimeout
		}
		s.logger.Warn("turn failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(code, ServerResponse{
			Status:  statusError,
			Message: err.Error(),
			Data:    TurnData{ReplyText: reply.BusyMessage, UserID: userID},
		})
		return
	}

	data := TurnData{
		ReplyText:     res.Reply,
		HasNewContext: res.HasUpdate,
		UserID:        userID,
		TurnID:        res.TurnID,
		Diagnosis:     diagnosisData(res.Diagnosis),
	}
	if res.HasUpdate {
		ctxCopy := res.Context
		data.NewContextToSave = &ctxCopy
	}
	c.JSON(http.StatusOK, ServerResponse{Status: statusSuccess, Data: data})
}

// images collects the non-empty photographs; the legacy single image is
// treated as a tongue photograph.
func (p Payload) images() []string {
	var out []string
	if p.Images != nil {
		for _, img := range []string{p.Images.Tongue, p.Images.Face} {
			if strings.TrimSpace(img) != "" {
				out = append(out, img)
			}
		}
	}
	if strings.TrimSpace(p.ImageBase64) != "" {
		out = append(out, p.ImageBase64)
	}
	return out
}

func (s *Server) handleDiagnose(c *gin.Context) {
	var req DiagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	set := terms.NewSet(req.Symptoms...)
	res := s.opts.Diagnosis.Diagnose(set)
	c.JSON(http.StatusOK, ServerResponse{
		Status: statusSuccess,
		Data: DiagnoseData{
			Symptoms:  set.Names(),
			Diagnosis: diagnosisData(res),
			Directive: res.Directive,
		},
	})
}

func (s *Server) handleRules(c *gin.Context) {
	t := s.opts.Table
	data := RulesData{
		Categories: make(map[rules.Category]int),
		Symptoms:   len(t.Symptoms()),
		Skipped:    t.Skipped(),
	}
	for _, cat := range rules.KnownCategories() {
		data.Categories[cat] = len(t.Rows(cat))
	}

	if cat := c.Query("category"); cat != "" {
		rows := t.Rows(rules.Category(cat))
		if rows == nil {
			s.fail(c, http.StatusNotFound, "unknown or empty category: "+cat)
			return
		}
		data.Rows = make([]RuleRow, 0, len(rows))
		for _, r := range rows {
			data.Rows = append(data.Rows, RuleRow{Pattern: r.Pattern, Core: r.Core, Secondary: r.Secondary})
		}
	}
	c.JSON(http.StatusOK, ServerResponse{Status: statusSuccess, Data: data})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, ServerResponse{Status: statusSuccess, Message: "ok"})
}

func (s *Server) handleReset(c *gin.Context) {
	if s.opts.Contexts == nil {
		s.fail(c, http.StatusNotImplemented, "conversation store disabled")
		return
	}
	userID := c.Param("user_id")
	existed, err := s.opts.Contexts.Reset(c.Request.Context(), userID)
	if err != nil {
		s.logger.Error("reset conversation failed", zap.String("user_id", userID), zap.Error(err))
		s.fail(c, http.StatusInternalServerError, "reset failed")
		return
	}
	if !existed {
		s.fail(c, http.StatusNotFound, "no stored conversation for "+userID)
		return
	}
	c.JSON(http.StatusOK, ServerResponse{Status: statusSuccess, Message: "conversation reset"})
}
