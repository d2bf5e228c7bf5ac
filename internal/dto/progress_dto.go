package dto

import "time"

// Pipeline stages reported on the progress stream.
const (
	StageKeywordAnalysis = "keyword_analysis"
	StageResearch        = "research"
	StageDrafting        = "drafting"
	StageImages          = "images"
	StageTitles          = "titles"
	StageEditing         = "editing"
	StageCompleted       = "completed"
)

// ProgressEvent is one step of a running pipeline stage.
type ProgressEvent struct {
	ProjectID  uint      `json:"project_id" validate:"required,gt=0"`
	Stage      string    `json:"stage" validate:"required"`
	State      string    `json:"state,omitempty"`
	Attempt    int       `json:"attempt,omitempty"`
	Violations []string  `json:"violations,omitempty"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}
