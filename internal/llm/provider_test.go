package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/tcmdx/internal/store"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"symptoms":[{"name":"恶寒"}]}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"symptoms":[{"name":"恶寒"}]}` {
		t.Fatalf("unexpected first content: %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, PurposeTermExtract)
	if p := PurposeFrom(ctx); p != "term-extract" {
		t.Fatalf("expected 'term-extract', got %q", p)
	}
}

func TestResponse_Text(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{`"请问您是否怕冷？"`, "请问您是否怕冷？"},
		{`  plain reply  `, "plain reply"},
		{`{"a":1}`, `{"a":1}`},
		{`"unterminated`, `"unterminated`},
	}
	for _, tt := range tests {
		r := &Response{Content: json.RawMessage(tt.content)}
		if got := r.Text(); got != tt.want {
			t.Errorf("Text(%s) = %q, want %q", tt.content, got, tt.want)
		}
	}

	var nilResp *Response
	if nilResp.Text() != "" {
		t.Error("nil response should yield empty text")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"deepseek without key", Config{Provider: "deepseek"}, true},
		{"deepseek with key", Config{Provider: "deepseek", DeepSeek: DeepSeekConfig{APIKey: "sk-test"}}, false},
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("TCMDX_LLM_PROVIDER", "openai")
	t.Setenv("TCMDX_OPENAI_API_KEY", "sk-env")
	t.Setenv("TCMDX_OPENAI_MODEL", "gpt-4o")
	t.Setenv("TCMDX_VISION_MODEL", "gpt-4o-vision")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-env" || cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("env not applied: %+v", cfg.OpenAI)
	}
	if cfg.VisionModel != "gpt-4o-vision" {
		t.Fatalf("VisionModel = %q", cfg.VisionModel)
	}
	if cfg.DeepSeek.Model != "deepseek-chat" {
		t.Fatalf("unset values should keep defaults, got %q", cfg.DeepSeek.Model)
	}
}

func TestDiscoverConfig_Priority(t *testing.T) {
	for _, k := range []string{"DEEPSEEK_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("OPENAI_API_KEY", "sk-o")
	t.Setenv("DEEPSEEK_API_KEY", "sk-d")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != "deepseek" || cfg.DeepSeek.APIKey != "sk-d" {
		t.Fatalf("expected deepseek to win, got %q (ok=%v)", cfg.Provider, ok)
	}
}

func TestConfig_WithModel(t *testing.T) {
	cfg := DefaultConfig()
	vision := cfg.WithModel("deepseek-vl")
	if vision.DeepSeek.Model != "deepseek-vl" {
		t.Fatalf("model not switched: %q", vision.DeepSeek.Model)
	}
	if cfg.DeepSeek.Model != "deepseek-chat" {
		t.Fatal("WithModel must not modify the receiver")
	}
	if same := cfg.WithModel(""); same.DeepSeek.Model != "deepseek-chat" {
		t.Fatal("empty model should keep the configured one")
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock provider, got %q", p.ModelID())
	}
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

type recordingRepo struct {
	llm   []store.LLMRequestEventData
	turns []store.TurnEventData
	err   error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	r.llm = append(r.llm, d)
	return r.err
}

func (r *recordingRepo) AppendTurn(_ context.Context, d store.TurnEventData) error {
	r.turns = append(r.turns, d)
	return r.err
}

func TestLoggingProvider_RecordsEvent(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"symptoms":[]}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 3},
	})
	repo := &recordingRepo{}
	p := WithLogging(mock, "mock", repo, nil)

	ctx := WithPurpose(context.Background(), PurposeTermExtract)
	_, err := p.Generate(ctx, Request{
		System:   "extract",
		Messages: []Message{{Role: RoleUser, Content: "我怕冷"}},
		Images:   []Image{{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
		Schema:   &Schema{Name: "symptoms", Definition: map[string]any{"type": "object"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.llm) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.llm))
	}
	ev := repo.llm[0]
	if ev.Purpose != "term-extract" || !ev.Success || ev.InputTokens != 12 || ev.OutputTokens != 3 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	for _, want := range []string{"[system]", "我怕冷", "[image: image/png, 3 bytes]", "[schema: symptoms]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Errorf("request body missing %q:\n%s", want, ev.RequestBody)
		}
	}
	if ev.ResponseBody != `{"symptoms":[]}` {
		t.Errorf("response body = %q", ev.ResponseBody)
	}
}

func TestLoggingProvider_FailureIsLoggedAndReturned(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})
	repo := &recordingRepo{err: errors.New("disk full")}
	p := WithLogging(mock, "mock", repo, zap.New(core))

	_, err := p.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected provider error to pass through, got %v", err)
	}
	if len(repo.llm) != 1 || repo.llm[0].Success || repo.llm[0].ErrorMessage == "" {
		t.Fatalf("failed call should be recorded as unsuccessful: %+v", repo.llm)
	}
	if logs.FilterMessage("llm request failed").Len() != 1 {
		t.Error("expected a failure log line")
	}
	if logs.FilterMessage("failed to record llm request event").Len() != 1 {
		t.Error("expected repo error to be logged, not returned")
	}
}

func TestMockProvider_OnPurpose(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`"shared"`)}).
		OnPurpose(PurposeImageAnalysis, MockResponse{Content: json.RawMessage(`{"tongue_color":"舌淡"}`)})

	img, err := mock.Generate(WithPurpose(context.Background(), PurposeImageAnalysis), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tongue_color":"舌淡"}`, string(img.Content))

	// The purpose script is exhausted; the shared queue answers next.
	again, err := mock.Generate(WithPurpose(context.Background(), PurposeImageAnalysis), Request{})
	require.NoError(t, err)
	assert.Equal(t, `"shared"`, string(again.Content))

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)

	assert.Len(t, mock.CallsFor(PurposeImageAnalysis), 2)
	assert.Equal(t, []string{PurposeImageAnalysis, PurposeImageAnalysis, PurposeFrom(context.Background())}, mock.Purposes)
	assert.Equal(t, "unknown", mock.Purposes[2])
}
