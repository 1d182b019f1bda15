package vision

import "github.com/abhisek/tcmdx/internal/llm"

// FeatureSchema defines the JSON schema for tongue and face analysis.
var FeatureSchema = &llm.Schema{
	Name:        "tongue-face-features",
	Description: "Tongue and face observations as short TCM labels",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tongue_color": map[string]any{"type": "string", "description": "舌色"},
			"tongue_shape": map[string]any{"type": "string", "description": "舌形"},
			"coating":      map[string]any{"type": "string", "description": "舌苔"},
			"face_color":   map[string]any{"type": "string", "description": "面色"},
			"description":  map[string]any{"type": "string", "description": "一两句话的整体描述"},
		},
		"required":             []any{"tongue_color", "tongue_shape", "coating", "face_color", "description"},
		"additionalProperties": false,
	},
}
