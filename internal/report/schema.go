package report

import "github.com/abhisek/parley/internal/llm"

func str(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func strArray(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

// Schema constrains the generated session report.
var Schema = &llm.Schema{
	Name:        "session-report",
	Description: "End-of-session feedback for an English learner",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": str("Very motivating one-line headline about the learner's progress"),
			"emoji": str("One positive emoji"),
			"tone":  str("Overall tone of the feedback"),
			"corrections": map[string]any{
				"type":     "array",
				"maxItems": 4,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"original":    str("The learner's sentence exactly as said"),
						"corrected":   str("Corrected version"),
						"assessment":  map[string]any{"type": "string", "enum": []any{"Correct", "Acceptable", "Incorrect"}},
						"comment":     str("One simple sentence about the status of the phrase"),
						"tag":         str("Incorrect structure | Incorrect but understandable | Correct but unnatural, or empty"),
						"explanation": str("Simple classroom-style explanation without grammar jargon"),
					},
					"required":             []any{"original", "corrected", "assessment", "comment", "tag", "explanation"},
					"additionalProperties": false,
				},
			},
			"phrase_analysis": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"phrase":      str("The learner's phrase exactly as said"),
						"naturalness": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
						"level":       str("Short label for the naturalness level"),
						"natural":     str("How a native speaker would say it"),
						"explanation": str("Why the natural version is better"),
					},
					"required":             []any{"phrase", "naturalness", "level", "natural", "explanation"},
					"additionalProperties": false,
				},
			},
			"praise":          strArray("3-4 specific things the learner did well"),
			"tips":            strArray("1-3 constructive tips"),
			"practice_phrase": str("Next English phrase to practice in this context"),
		},
		"required":             []any{"title", "emoji", "tone", "corrections", "phrase_analysis", "praise", "tips", "practice_phrase"},
		"additionalProperties": false,
	},
}
