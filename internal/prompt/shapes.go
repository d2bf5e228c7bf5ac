package prompt

import "github.com/santhosh-tekuri/jsonschema/v5"

// Response shapes the model answers are validated against before decoding.
var (
	TitleListShape = jsonschema.MustCompileString("title_list.json", `{
		"type": "array",
		"items": {"type": "string"}
	}`)

	TitleScoreShape = jsonschema.MustCompileString("title_score.json", `{
		"type": "object",
		"required": ["score"],
		"properties": {
			"score": {"type": "number"},
			"reasoning": {"type": "string"}
		}
	}`)

	KeywordAnalysisShape = jsonschema.MustCompileString("keyword_analysis.json", `{
		"type": "object",
		"required": ["search_intent", "user_concerns", "subtitles"],
		"properties": {
			"search_intent": {"type": "string"},
			"user_concerns": {"type": "string"},
			"subtitles": {"type": "array", "items": {"type": "string"}, "minItems": 1}
		}
	}`)

	ResearchShape = jsonschema.MustCompileString("research.json", `{
		"type": "object",
		"required": ["content"],
		"properties": {
			"content": {"type": "string", "minLength": 1},
			"citations": {"type": "array", "items": {"type": "string"}}
		}
	}`)

	EditAnalysisShape = jsonschema.MustCompileString("edit_analysis.json", `{
		"type": "object",
		"required": ["intent"],
		"properties": {
			"intent": {"type": "string", "minLength": 1},
			"target": {"type": "string"},
			"scope": {"type": "string"},
			"specificRequirements": {"type": "array", "items": {"type": "string"}},
			"keyElements": {"type": "array", "items": {"type": "string"}},
			"emotionalTone": {"type": "string"},
			"persuasionStrategy": {"type": "string"}
		}
	}`)

	EditVersionScoreShape = jsonschema.MustCompileString("edit_version_score.json", `{
		"type": "object",
		"required": ["score"],
		"properties": {
			"score": {"type": "number", "minimum": 0, "maximum": 10},
			"strengths": {"type": "array", "items": {"type": "string"}},
			"weaknesses": {"type": "array", "items": {"type": "string"}}
		}
	}`)
)

// TitleScore is the decoded evaluation answer.
type TitleScore struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

// KeywordAnalysisAnswer is the decoded keyword analysis answer.
type KeywordAnalysisAnswer struct {
	SearchIntent string   `json:"search_intent"`
	UserConcerns string   `json:"user_concerns"`
	Subtitles    []string `json:"subtitles"`
}

// ResearchAnswer is the decoded research answer.
type ResearchAnswer struct {
	Content   string   `json:"content"`
	Citations []string `json:"citations"`
}
