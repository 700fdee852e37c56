package content

import "github.com/abhisek/studybuddy/internal/llm"

var questionItem = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question": map[string]any{
			"type":        "string",
			"description": "The question shown to the child",
		},
		"answer": map[string]any{
			"type":        "string",
			"description": "A concise, correct answer",
		},
	},
	"required":             []any{"question", "answer"},
	"additionalProperties": false,
}

// DailyActivitySchema is the structured output for one day's activity.
var DailyActivitySchema = &llm.Schema{
	Name:        "daily-activity",
	Description: "Math questions, a reading passage and reading comprehension questions for one day",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mathQuestions": map[string]any{
				"type":     "array",
				"items":    questionItem,
				"minItems": 1,
			},
			"readingPassage": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "A short, age appropriate passage",
			},
			"readingQuestions": map[string]any{
				"type":     "array",
				"items":    questionItem,
				"minItems": 1,
			},
		},
		"required":             []any{"mathQuestions", "readingPassage", "readingQuestions"},
		"additionalProperties": false,
	},
}

// SpellingWordsSchema is the structured output for a spelling list.
var SpellingWordsSchema = &llm.Schema{
	Name:        "spelling-words",
	Description: "A list of lowercase spelling words",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"words": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 1,
			},
		},
		"required":             []any{"words"},
		"additionalProperties": false,
	},
}
