package steps

func termsSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"terms": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"term":     map[string]any{"type": "string"},
						"category": map[string]any{"type": "string"},
					},
					"required":             []string{"term", "category"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"terms"},
		"additionalProperties": false,
	}
}

func definitionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"definition": map[string]any{"type": "string"},
			"confidence": map[string]any{"type": "number"},
		},
		"required":             []string{"definition", "confidence"},
		"additionalProperties": false,
	}
}

func reviewSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"issues": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"issue_type": map[string]any{
							"type": "string",
							"enum": []string{"unclear", "contradiction", "missing_context", "too_generic", "other"},
						},
						"description": map[string]any{"type": "string"},
					},
					"required":             []string{"issue_type", "description"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"issues"},
		"additionalProperties": false,
	}
}
