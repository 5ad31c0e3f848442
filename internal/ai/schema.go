package ai

// keywordsSchema is the JSON Schema enforced for keyword extraction.
var keywordsSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"keywords": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"keyword":   map[string]any{"type": "string"},
					"category":  map[string]any{"type": "string"},
					"relevance": map[string]any{"type": "number"},
				},
				"required": []string{"keyword", "category", "relevance"},
			},
		},
	},
	"required": []string{"keywords"},
}

// jobDescriptionSchema is the JSON Schema enforced for job description parsing.
var jobDescriptionSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"job": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"title":           map[string]any{"type": "string"},
				"company":         map[string]any{"type": "string"},
				"location":        map[string]any{"type": "string"},
				"seniority":       map[string]any{"type": "string"},
				"employment_type": map[string]any{"type": "string"},
				"summary":         map[string]any{"type": "string"},
			},
			"required": []string{"title", "company", "location", "seniority", "employment_type", "summary"},
		},
		"requirements": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"must_have":        stringArray,
				"nice_to_have":     stringArray,
				"responsibilities": stringArray,
			},
			"required": []string{"must_have", "nice_to_have", "responsibilities"},
		},
		"keywords": keywordsSchema["properties"].(map[string]any)["keywords"],
	},
	"required": []string{"job", "requirements", "keywords"},
}

var stringArray = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}
