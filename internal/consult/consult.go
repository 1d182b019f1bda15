// Package consult runs one consultation turn end to end: term extraction
// and image analysis, merging into the conversation's term set, diagnosis,
// reply generation, and the context commit.
package consult

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/extract"
	"github.com/abhisek/tcmdx/internal/llm"
	"github.com/abhisek/tcmdx/internal/metrics"
	"github.com/abhisek/tcmdx/internal/reply"
	"github.com/abhisek/tcmdx/internal/session"
	"github.com/abhisek/tcmdx/internal/store"
	"github.com/abhisek/tcmdx/internal/terms"
	"github.com/abhisek/tcmdx/internal/vision"
)

// Replier phrases the reply for a turn.
type Replier interface {
	Generate(ctx context.Context, in reply.Input) (string, error)
}

// Deps are the collaborators of a Service. Diagnosis, Extractor and Replier
// are required; the rest may be nil.
type Deps struct {
	Diagnosis *diagnosis.Service
	Extractor extract.Extractor
	Analyzer  vision.Analyzer
	Replier   Replier
	Contexts  store.ContextRepo
	Events    store.EventRepo
	Metrics   *metrics.Metrics
	Merge     session.MergeOptions
	Logger    *zap.Logger
}

// Service runs turns. It holds no per-conversation state; turns of
// different conversations may run concurrently.
type Service struct {
	deps   Deps
	logger *zap.Logger
}

// NewService creates a turn service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{deps: deps, logger: logger}
}

// TurnInput is one user message with its conversation state.
type TurnInput struct {
	UserID string
	Text   string
	// Images are base64 tongue and face photographs.
	Images []string
	// SavedContext is the context the client saved last turn. When empty,
	// the server-side copy for UserID is used.
	SavedContext json.RawMessage
	History      []llm.Message
}

// TurnResult is the outcome of a turn.
type TurnResult struct {
	TurnID string
	Reply  string
	// HasUpdate reports whether this turn contributed terms. Context is only
	// meant to be saved when it is true.
	HasUpdate bool
	Context   session.Context
	Terms     []string
	Diagnosis *diagnosis.Result
}

// Turn processes one message. Failures of extraction, image analysis and
// reply generation degrade the turn rather than fail it. The only error is
// ctx ending before the turn completes, in which case nothing is committed.
func (s *Service) Turn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	start := time.Now()
	turnID := uuid.NewString()
	log := s.logger.With(zap.String("user_id", in.UserID), zap.String("turn_id", turnID))

	prev := s.previous(ctx, in, log)

	extracted, features := s.observe(ctx, in, log)
	merged, updated := session.Merge(prev.Terms(), extracted, features, s.deps.Merge)
	res := s.deps.Diagnosis.Diagnose(merged)

	log.Debug("turn diagnosed",
		zap.Strings("terms", merged.Names()),
		zap.Bool("updated", updated),
		zap.String("status", string(res.Directive.Status)),
		zap.String("pattern", res.Pattern()),
		zap.Int("score", res.Score()),
	)

	text, err := s.deps.Replier.Generate(ctx, reply.Input{
		Directive: res.Directive,
		History:   in.History,
		Terms:     merged.Names(),
		UserText:  in.Text,
	})
	if err != nil {
		log.Error("reply generation failed", zap.Error(err))
		s.deps.Metrics.RecordDegraded(metrics.StageReply)
		text = reply.BusyMessage
	}

	if err := ctx.Err(); err != nil {
		log.Info("turn cancelled, context not committed", zap.Error(err))
		return nil, err
	}

	out := &TurnResult{
		TurnID:    turnID,
		Reply:     text,
		HasUpdate: updated,
		Context:   prev,
		Terms:     merged.Names(),
		Diagnosis: res,
	}
	if updated {
		out.Context = session.Next(merged, res)
	}
	s.commit(ctx, in.UserID, out, log)

	s.deps.Metrics.RecordTurn(string(res.Directive.Status), updated, res.Score(), time.Since(start).Seconds())
	return out, nil
}

// previous resolves the context the turn starts from.
func (s *Service) previous(ctx context.Context, in TurnInput, log *zap.Logger) session.Context {
	if session.Present(in.SavedContext) {
		return session.DecodeContext(in.SavedContext)
	}
	if s.deps.Contexts == nil || in.UserID == "" {
		return session.Empty()
	}
	raw, found, err := s.deps.Contexts.Load(ctx, in.UserID)
	if err != nil {
		log.Warn("load stored context failed", zap.Error(err))
		return session.Empty()
	}
	if !found {
		return session.Empty()
	}
	return session.DecodeContext(raw)
}

// observe runs text extraction and image analysis concurrently. A failed
// side contributes nothing.
func (s *Service) observe(ctx context.Context, in TurnInput, log *zap.Logger) ([]terms.Term, map[string]string) {
	var (
		extracted []terms.Term
		features  map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ts, err := s.deps.Extractor.Extract(gctx, in.Text)
		if err != nil {
			log.Warn("term extraction failed, treating as no new terms", zap.Error(err))
			s.deps.Metrics.RecordDegraded(metrics.StageExtract)
			return nil
		}
		extracted = ts
		return nil
	})
	if s.deps.Analyzer != nil && len(in.Images) > 0 {
		g.Go(func() error {
			f, err := s.deps.Analyzer.Analyze(gctx, in.Images)
			if err != nil {
				log.Warn("image analysis failed", zap.Error(err))
				s.deps.Metrics.RecordDegraded(metrics.StageVision)
				return nil
			}
			features = f.Map()
			return nil
		})
	}
	_ = g.Wait()
	return extracted, features
}

// commit mirrors an updated context to the store and records the turn. The
// client copy in the result is authoritative; store failures are logged.
func (s *Service) commit(ctx context.Context, userID string, out *TurnResult, log *zap.Logger) {
	ev := store.TurnEventData{
		UserID:    userID,
		TurnID:    out.TurnID,
		Status:    string(out.Diagnosis.Directive.Status),
		Pattern:   out.Diagnosis.Pattern(),
		Score:     out.Diagnosis.Score(),
		Branch:    string(out.Diagnosis.Walk.Branch),
		Route:     string(out.Diagnosis.Walk.Route),
		HasUpdate: out.HasUpdate,
		Terms:     out.Terms,
	}

	if out.HasUpdate && s.deps.Contexts != nil && userID != "" {
		data, err := json.Marshal(out.Context)
		if err == nil {
			err = s.deps.Contexts.Commit(ctx, userID, data, &ev)
		}
		if err != nil {
			log.Error("commit context failed", zap.Error(err))
			s.deps.Metrics.RecordDegraded(metrics.StageCommit)
			return
		}
		log.Debug("context committed", zap.Strings("symptoms", out.Context.Symptoms))
		return
	}

	if !out.HasUpdate {
		log.Debug("no new information, context update suppressed")
	}
	if s.deps.Events != nil {
		if err := s.deps.Events.AppendTurn(ctx, ev); err != nil {
			log.Warn("record turn event failed", zap.Error(err))
		}
	}
}
