package extract

import "github.com/abhisek/tcmdx/internal/llm"

// SymptomSchema defines the JSON schema for term extraction. Every symptom
// is an object with a name and an optional list of dimension values; a
// symptom with no details is a plain term.
var SymptomSchema = &llm.Schema{
	Name:        "symptom-terms",
	Description: "Standardized symptom terms mentioned by the patient",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symptoms": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Standard symptom name, preferably from the vocabulary",
						},
						"details": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"dimension": map[string]any{"type": "string"},
									"value":     map[string]any{"type": "string"},
								},
								"required":             []any{"dimension", "value"},
								"additionalProperties": false,
							},
						},
					},
					"required":             []any{"name", "details"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"symptoms"},
		"additionalProperties": false,
	},
}
