package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/seoblog-api/internal/models"
)

// Migrate creates or updates the tables owned by the service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.BlogProject{}, &models.ChatMessage{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
