package entries

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/echo-journal/echo-backend/pkg/db/models"
)

// Repository exposes entry persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an entry repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new entry row.
func (r *Repository) Create(ctx context.Context, entry *models.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByID retrieves an entry by id. Returns (nil, nil) when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var e models.Entry
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// ListByUser returns a user's entries, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.Entry, error) {
	var rows []models.Entry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes an entry row and its runs. Returns gorm.ErrRecordNotFound
// when the entry does not exist.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&models.AIRun{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Entry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
