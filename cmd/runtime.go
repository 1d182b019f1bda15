package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/tcmdx/internal/config"
	"github.com/abhisek/tcmdx/internal/consult"
	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/extract"
	"github.com/abhisek/tcmdx/internal/llm"
	"github.com/abhisek/tcmdx/internal/metrics"
	"github.com/abhisek/tcmdx/internal/reply"
	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/store"
	"github.com/abhisek/tcmdx/internal/vision"
)

// runtime is the wired engine shared by serve and consult.
type runtime struct {
	cfg       config.Config
	table     *rules.Table
	store     *store.Store
	diagnosis *diagnosis.Service
	consult   *consult.Service
	metrics   *metrics.Metrics
}

func (r *runtime) Close() {
	if r.store != nil {
		r.store.Close()
	}
}

// contexts returns the conversation repo, or nil without a store.
func (r *runtime) contexts() store.ContextRepo {
	if r.store == nil {
		return nil
	}
	return r.store.Conversations()
}

// loadRules loads the configured knowledge base.
func loadRules(cmd *cobra.Command) (config.Config, *rules.Table, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	table, err := rules.Load(cfg.Rules.Path, logger)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, table, nil
}

// buildRuntime wires config, knowledge base, store and LLM providers.
func buildRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfg, table, err := loadRules(cmd)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:       cfg,
		table:     table,
		diagnosis: diagnosis.NewService(table, cfg.Rules.Axes),
		metrics:   metrics.New(),
	}

	var events store.EventRepo
	if !cfg.Store.Disabled {
		dbPath, err := resolveDBPath(cmd, cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		rt.store, err = store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		events = rt.store.Events()
		logger.Info("store opened", zap.String("path", dbPath))
	}

	llmCfg, err := cfg.ResolveLLM()
	if err != nil {
		rt.Close()
		return nil, errors.Join(errors.New("LLM provider not configured"), err)
	}
	provider, err := llm.NewProvider(ctx, llmCfg, events, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	logger.Info("llm provider ready", zap.String("provider", llmCfg.Provider), zap.String("model", provider.ModelID()))

	deps := consult.Deps{
		Diagnosis: rt.diagnosis,
		Extractor: extract.NewLLMExtractor(provider, table.Symptoms(), cfg.Extract),
		Replier:   reply.NewGenerator(provider, cfg.Reply),
		Contexts:  rt.contexts(),
		Events:    events,
		Metrics:   rt.metrics,
		Merge:     cfg.Session,
		Logger:    logger,
	}
	if cfg.Vision.Enabled {
		vp, err := llm.NewVisionProvider(ctx, llmCfg, events, logger)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("vision provider: %w", err)
		}
		deps.Analyzer = vision.NewLLMAnalyzer(vp, cfg.Vision)
	}
	rt.consult = consult.NewService(deps)
	return rt, nil
}
