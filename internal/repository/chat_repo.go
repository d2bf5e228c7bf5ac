package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/seoblog-api/internal/models"
)

// ChatRepository stores the editing conversation of a project.
type ChatRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListByProject(ctx context.Context, projectID uint) ([]models.ChatMessage, error)
}

// NewChatRepository constructs a chat repository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

type chatRepository struct {
	db *gorm.DB
}

func (r *chatRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListByProject returns the conversation oldest first.
func (r *chatRepository) ListByProject(ctx context.Context, projectID uint) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
