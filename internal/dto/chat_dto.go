package dto

import (
	"time"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/internal/seo"
)

// ChatRequest is one user turn of the editing conversation.
type ChatRequest struct {
	Message string `json:"message" validate:"required,min=2,max=500"`
}

// ChatMessageResponse is a stored conversation turn.
type ChatMessageResponse struct {
	ID        uint                 `json:"id"`
	Role      string               `json:"role"`
	Content   string               `json:"content"`
	Intent    string               `json:"intent,omitempty"`
	Titles    []models.ScoredTitle `json:"titles,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewChatMessageResponse builds a response DTO from a model.
func NewChatMessageResponse(message models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        message.ID,
		Role:      message.Role,
		Content:   message.Content,
		Intent:    message.Intent,
		Titles:    []models.ScoredTitle(message.Titles),
		CreatedAt: message.CreatedAt,
	}
}

// EditVersionSummary describes one candidate rewrite produced for a chat request.
type EditVersionSummary struct {
	Strategy     string   `json:"strategy"`
	Score        float64  `json:"score"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	SEOCompliant bool     `json:"seo_compliant"`
	Characters   int      `json:"characters"`
	Selected     bool     `json:"selected"`
}

// ChatResponse is the assistant's answer to a chat request. Title requests carry
// Titles; edit requests carry the ranked Versions and the re-checked post.
type ChatResponse struct {
	Intent   string               `json:"intent"`
	Analysis prompt.EditAnalysis  `json:"analysis"`
	Reply    ChatMessageResponse  `json:"reply"`
	Titles   []models.ScoredTitle `json:"titles,omitempty"`
	Versions []EditVersionSummary `json:"versions,omitempty"`
	Project  ProjectResponse      `json:"project"`
	Outcome  string               `json:"outcome,omitempty"`
	Check    *seo.CheckResult     `json:"check,omitempty"`
}
