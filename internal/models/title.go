package models

// Title score bounds used by the click-appeal rubric.
const (
	MinTitleScore     = 1.0
	MaxTitleScore     = 5.0
	NeutralTitleScore = 3.0
)

// TitleCandidate is one generated headline before scoring.
type TitleCandidate struct {
	Title  string `json:"title"`
	Origin int    `json:"origin"`
	Style  string `json:"style,omitempty"`
}

// EvaluatedTitle is a candidate with its rubric score.
type EvaluatedTitle struct {
	TitleCandidate
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
	Fallback  bool    `json:"fallback"`
}

// TitleRankingResult is recomputed on every invocation and never persisted as-is.
// AverageScore is 0 and Evaluated is 0 when the batch is empty.
type TitleRankingResult struct {
	TopK         []EvaluatedTitle `json:"top_titles"`
	All          []EvaluatedTitle `json:"all_titles"`
	AverageScore float64          `json:"average_score"`
	Evaluated    int              `json:"evaluated"`
}

// ScoredTitle is the compact projection returned to chat-style callers.
type ScoredTitle struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}
