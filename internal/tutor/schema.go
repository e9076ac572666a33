package tutor

import "github.com/abhisek/parley/internal/llm"

// ChatSchema constrains scenario-chat replies.
var ChatSchema = &llm.Schema{
	Name:        "chat-reply",
	Description: "The conversation partner's next line in a role-play",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "What the partner says next",
			},
			"translation": map[string]any{
				"type":        "string",
				"description": "Translation of text (Portuguese for English text, English for Portuguese text)",
			},
			"suggested_words": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"maxItems":    4,
				"description": "Up to 4 useful words or short phrases for the learner's reply",
			},
			"retry_prompt": map[string]any{
				"type":        "string",
				"description": "How the learner should rephrase, when must_retry is true. Empty otherwise.",
			},
			"must_retry": map[string]any{
				"type":        "boolean",
				"description": "True when the learner should say their sentence again",
			},
		},
		"required":             []any{"text", "translation", "suggested_words", "retry_prompt", "must_retry"},
		"additionalProperties": false,
	},
}

// SuggestionsSchema constrains suggested replies.
var SuggestionsSchema = &llm.Schema{
	Name:        "reply-suggestions",
	Description: "Four short replies the learner could give",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"maxItems": 4,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"en": map[string]any{"type": "string"},
						"pt": map[string]any{"type": "string"},
					},
					"required":             []any{"en", "pt"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"suggestions"},
		"additionalProperties": false,
	},
}
