// Package reply phrases the doctor's answer for a turn from a diagnosis
// directive and the conversation so far.
package reply

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/tcmdx/internal/diagnosis"
	"github.com/abhisek/tcmdx/internal/llm"
)

// BusyMessage is shown to the user when no reply could be generated.
const BusyMessage = "系统繁忙，请稍后再试。"

// Config holds reply generation settings.
type Config struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	// MaxHistory caps how many prior messages are sent; 0 sends all.
	MaxHistory int `yaml:"max_history"`
}

// DefaultConfig returns sensible defaults for reply generation.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   800,
		Temperature: 0.7,
		MaxHistory:  20,
	}
}

// Input is everything a reply is phrased from.
type Input struct {
	Directive diagnosis.Directive
	History   []llm.Message
	Terms     []string
	UserText  string
}

// Generator produces reply text with an LLM.
type Generator struct {
	provider llm.Provider
	cfg      Config
}

// NewGenerator creates a reply generator.
func NewGenerator(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, cfg: cfg}
}

// Generate returns the reply text. On error the caller shows BusyMessage.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeReply)

	resp, err := g.provider.Generate(ctx, Request(in, g.cfg))
	if err != nil {
		return "", fmt.Errorf("reply generation: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("reply generation: empty response")
	}
	return text, nil
}

// Request builds the LLM request for in: the directive as the system
// prompt, the trimmed history, then the current turn.
func Request(in Input, cfg Config) llm.Request {
	history := in.History
	if cfg.MaxHistory > 0 && len(history) > cfg.MaxHistory {
		history = history[len(history)-cfg.MaxHistory:]
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			continue
		}
		msgs = append(msgs, m)
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: UserMessage(in.Terms, in.UserText)})

	return llm.Request{
		System:      in.Directive.System(),
		Messages:    msgs,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

// UserMessage renders the final user turn: the accumulated term list and
// what the user just said.
func UserMessage(terms []string, text string) string {
	return fmt.Sprintf("用户当前症状：[%s]。用户刚才说：%s", strings.Join(terms, "、"), strings.TrimSpace(text))
}
