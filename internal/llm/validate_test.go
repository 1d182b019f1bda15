package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func featureSchema() *Schema {
	return &Schema{
		Name:        "test-tongue-features",
		Description: "Tongue features",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tongue_color": map[string]any{"type": "string"},
				"cracks":       map[string]any{"type": "integer", "minimum": 0},
				"moisture":     map[string]any{"type": "string", "enum": []any{"润", "燥", "滑"}},
			},
			"required": []any{"tongue_color", "cracks"},
		},
	}
}

func TestValidateResponse_Valid(t *testing.T) {
	for _, raw := range []string{
		`{"tongue_color":"淡红","cracks":0,"moisture":"润"}`,
		`{"tongue_color":"红","cracks":2}`,
	} {
		if err := validateResponse(featureSchema(), json.RawMessage(raw)); err != nil {
			t.Errorf("%s: expected no error, got: %v", raw, err)
		}
	}
}

func TestValidateResponse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"tongue_color":"红"}`},
		{"wrong type", `{"tongue_color":"红","cracks":"两条"}`},
		{"below minimum", `{"tongue_color":"红","cracks":-1}`},
		{"invalid enum", `{"tongue_color":"红","cracks":0,"moisture":"湿"}`},
		{"malformed", `{not json}`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(featureSchema(), json.RawMessage(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T", err)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`请多喝温水`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedArray(t *testing.T) {
	schema := &Schema{
		Name: "test-nested-symptoms",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"symptoms": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name": map[string]any{"type": "string"},
						},
						"required": []any{"name"},
					},
				},
			},
			"required": []any{"symptoms"},
		},
	}

	valid := json.RawMessage(`{"symptoms":[{"name":"恶寒"},{"name":"发热"}]}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"symptoms":[{"detail":"前额"}]}`)
	if err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for item without name")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1} ":            `{"a":1}`,
	}
	for in, want := range tests {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStructuredContent(t *testing.T) {
	got, err := structuredContent(featureSchema(), "```json\n{\"tongue_color\":\"淡红\",\"cracks\":1}\n```", "end")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"tongue_color":"淡红","cracks":1}` {
		t.Fatalf("unexpected content: %s", got)
	}

	_, err = structuredContent(featureSchema(), "舌淡红，苔薄白", "end")
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %v", err)
	}

	_, err = structuredContent(featureSchema(), `{"tongue_color":"淡`, "max_tokens")
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %v", err)
	}
}
