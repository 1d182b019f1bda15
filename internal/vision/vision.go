// Package vision reads tongue and face photographs with a vision-capable
// LLM and reports the observed features as short labels.
package vision

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/tcmdx/internal/llm"
	"github.com/abhisek/tcmdx/internal/session"
)

// Features are the labels read from the images. Empty fields were not
// observable.
type Features struct {
	TongueColor string `json:"tongue_color"`
	TongueShape string `json:"tongue_shape"`
	Coating     string `json:"coating"`
	FaceColor   string `json:"face_color"`
	Description string `json:"description"`
}

// Map returns the features keyed by session feature key. Description is
// included; the merger's allow-list decides what becomes a term.
func (f Features) Map() map[string]string {
	return map[string]string{
		session.FeatureTongueColor: f.TongueColor,
		session.FeatureTongueShape: f.TongueShape,
		session.FeatureCoating:     f.Coating,
		session.FeatureFaceColor:   f.FaceColor,
		"description":              f.Description,
	}
}

// Analyzer reads features from encoded images.
type Analyzer interface {
	Analyze(ctx context.Context, images []string) (Features, error)
}

// Config holds image analysis settings.
type Config struct {
	Enabled     bool    `yaml:"enabled"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// DefaultConfig returns defaults with analysis enabled.
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		MaxTokens:   300,
		Temperature: 0.1,
	}
}

// LLMAnalyzer implements Analyzer with a single multimodal LLM call.
type LLMAnalyzer struct {
	provider llm.Provider
	cfg      Config
}

// NewLLMAnalyzer creates an analyzer backed by provider.
func NewLLMAnalyzer(provider llm.Provider, cfg Config) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider, cfg: cfg}
}

// Analyze implements Analyzer. images are base64 strings, optionally with a
// data URI prefix; blank entries are ignored and no call is made when none
// remain.
func (a *LLMAnalyzer) Analyze(ctx context.Context, images []string) (Features, error) {
	var decoded []llm.Image
	for i, raw := range images {
		img, ok, err := Decode(raw)
		if err != nil {
			return Features{}, fmt.Errorf("image %d: %w", i, err)
		}
		if ok {
			decoded = append(decoded, img)
		}
	}
	if len(decoded) == 0 {
		return Features{}, nil
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeImageAnalysis)
	resp, err := a.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userPrompt}},
		Images:      decoded,
		Schema:      FeatureSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return Features{}, fmt.Errorf("image analysis: %w", err)
	}

	var f Features
	if err := json.Unmarshal(resp.Content, &f); err != nil {
		return Features{}, fmt.Errorf("parse image analysis response: %w", err)
	}
	return f, nil
}

const systemPrompt = `你是中医望诊助手。观察图片中的舌象与面色，用简短的中医术语描述。
舌色如"舌淡""舌红""舌绛"，舌形如"胖大""齿痕""裂纹"，舌苔如"苔白""苔黄腻"，面色如"面色苍白""面色萎黄"。
无法判断的项目返回空字符串。description 用一两句话概括所见。`

const userPrompt = "请分析这些图片中的舌象和面色。"
