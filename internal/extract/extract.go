// Package extract turns free patient text into standardized symptom terms
// with an LLM, constrained by the knowledge base's symptom vocabulary.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/tcmdx/internal/llm"
	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/terms"
)

// Extractor turns one utterance into terms. Implementations return a nil
// slice and no error when the text carries no symptoms.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]terms.Term, error)
}

// Config holds extraction settings.
type Config struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultConfig returns low-temperature defaults; extraction should be
// deterministic.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   512,
		Temperature: 0.1,
	}
}

// LLMExtractor implements Extractor with a structured-output LLM call.
type LLMExtractor struct {
	provider llm.Provider
	cfg      Config
	system   string
}

// NewLLMExtractor creates an extractor whose prompt lists vocab.
func NewLLMExtractor(provider llm.Provider, vocab []rules.Symptom, cfg Config) *LLMExtractor {
	return &LLMExtractor{
		provider: provider,
		cfg:      cfg,
		system:   buildSystemPrompt(vocab),
	}
}

type extractOutput struct {
	Symptoms []symptomOutput `json:"symptoms"`
}

type symptomOutput struct {
	Name    string         `json:"name"`
	Details []detailOutput `json:"details"`
}

type detailOutput struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

// Extract implements Extractor. Blank text makes no LLM call.
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]terms.Term, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeTermExtract)

	resp, err := e.provider.Generate(ctx, llm.Request{
		System:      e.system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: text}},
		Schema:      SymptomSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("term extraction: %w", err)
	}

	var out extractOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}
	return out.terms(), nil
}

// terms converts the response, dropping blank names and repeated terms.
func (o extractOutput) terms() []terms.Term {
	var (
		out  []terms.Term
		seen = make(map[string]bool, len(o.Symptoms))
	)
	for _, s := range o.Symptoms {
		name := terms.Normalize(s.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		details := make(map[string]string, len(s.Details))
		for _, d := range s.Details {
			details[d.Dimension] = d.Value
		}
		out = append(out, terms.Detailed(name, details))
	}
	return out
}
