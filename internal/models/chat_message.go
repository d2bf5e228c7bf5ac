package models

import (
	"time"

	"gorm.io/datatypes"
)

// Chat roles.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of the editing conversation attached to a project.
// Assistant turns record the intent they answered and, for title requests, the
// suggested titles.
type ChatMessage struct {
	ID        uint                             `gorm:"primaryKey" json:"id"`
	ProjectID uint                             `gorm:"index;not null" json:"project_id"`
	Role      string                           `gorm:"size:16;not null" json:"role"`
	Content   string                           `gorm:"type:text;not null" json:"content"`
	Intent    string                           `gorm:"size:32" json:"intent,omitempty"`
	Titles    datatypes.JSONSlice[ScoredTitle] `json:"titles,omitempty"`
	CreatedAt time.Time                        `json:"created_at"`
}
