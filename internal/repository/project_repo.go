package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/seoblog-api/internal/models"
)

// ProjectRepository exposes persistence helpers for blog projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.BlogProject) error
	Update(ctx context.Context, project *models.BlogProject) error
	GetForUser(ctx context.Context, id, userID uint) (models.BlogProject, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.BlogProject, int64, error)
}

// NewProjectRepository constructs a project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

type projectRepository struct {
	db *gorm.DB
}

func (r *projectRepository) Create(ctx context.Context, project *models.BlogProject) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) Update(ctx context.Context, project *models.BlogProject) error {
	return r.db.WithContext(ctx).Save(project).Error
}

// GetForUser returns gorm.ErrRecordNotFound when the project is missing or owned by someone else.
func (r *projectRepository) GetForUser(ctx context.Context, id, userID uint) (models.BlogProject, error) {
	var project models.BlogProject
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&project).Error
	if err != nil {
		return models.BlogProject{}, err
	}
	return project, nil
}

func (r *projectRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.BlogProject, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := r.db.WithContext(ctx).Model(&models.BlogProject{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.BlogProject
	err := query.
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}
