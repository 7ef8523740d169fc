package questions

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/echo-journal/echo-backend/pkg/db/models"
)

// Repository exposes question persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a question repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns active questions ordered by id.
func (r *Repository) ListActive(ctx context.Context) ([]models.Question, error) {
	var rows []models.Question
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID retrieves a question by id. Returns (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id int) (*models.Question, error) {
	var q models.Question
	if err := r.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}
