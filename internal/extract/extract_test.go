package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tcmdx/internal/llm"
	"github.com/abhisek/tcmdx/internal/rules"
	"github.com/abhisek/tcmdx/internal/terms"
)

func testVocab() []rules.Symptom {
	return []rules.Symptom{
		{Name: "恶寒", Dimensions: []rules.Dimension{{Name: "程度", Options: []string{"轻", "重"}}}},
		{Name: "头痛", Dimensions: []rules.Dimension{{Name: "部位"}}},
		{Name: "无汗"},
	}
}

func TestLLMExtractor_ParsesStructuredTerms(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"symptoms": [
			{"name": "恶寒", "details": [{"dimension": "程度", "value": "重"}]},
			{"name": " 无汗 ", "details": []},
			{"name": "", "details": []},
			{"name": "恶寒", "details": []}
		]
	}`)})
	ex := NewLLMExtractor(mock, testVocab(), DefaultConfig())

	got, err := ex.Extract(context.Background(), "我很怕冷，也不出汗")
	require.NoError(t, err)
	assert.Equal(t, []terms.Term{
		terms.Detailed("恶寒", map[string]string{"程度": "重"}),
		terms.Simple("无汗"),
	}, got)
}

func TestLLMExtractor_RequestShape(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{"symptoms":[]}`)})
	ex := NewLLMExtractor(mock, testVocab(), DefaultConfig())

	got, err := ex.Extract(context.Background(), "  没什么不舒服  ")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, SymptomSchema, req.Schema)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "没什么不舒服", req.Messages[0].Content)
	assert.Contains(t, req.System, "- 恶寒；程度（轻/重）")
	assert.Contains(t, req.System, "- 头痛；部位\n")
	assert.Contains(t, req.System, "- 无汗\n")
}

func TestLLMExtractor_BlankTextSkipsCall(t *testing.T) {
	mock := llm.NewMockProvider()
	ex := NewLLMExtractor(mock, nil, DefaultConfig())

	got, err := ex.Extract(context.Background(), " \n ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, mock.CallCount())
}

func TestLLMExtractor_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	ex := NewLLMExtractor(mock, nil, DefaultConfig())

	_, err := ex.Extract(context.Background(), "头痛")
	var unavail *llm.ErrProviderUnavailable
	assert.True(t, errors.As(err, &unavail))
}

func TestLLMExtractor_BadJSON(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`not json`)})
	ex := NewLLMExtractor(mock, nil, DefaultConfig())

	_, err := ex.Extract(context.Background(), "头痛")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse extraction response"))
}

func TestBuildSystemPrompt_NoVocab(t *testing.T) {
	assert.Equal(t, systemPreamble, buildSystemPrompt(nil))
}
