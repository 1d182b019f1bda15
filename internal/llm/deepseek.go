package llm

import "fmt"

const defaultDeepSeekBaseURL = "https://api.deepseek.com"

// NewDeepSeekProvider creates a provider targeting the DeepSeek API.
// DeepSeek exposes an OpenAI-compatible API, so the OpenAI SDK is reused.
func NewDeepSeekProvider(cfg DeepSeekConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultDeepSeekBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}
	p, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   model,
		BaseURL: baseURL,
	})
	if err != nil {
		return nil, err
	}
	// DeepSeek accepts json_object but not json_schema response formats.
	p.jsonObjectOnly = true
	return p, nil
}
