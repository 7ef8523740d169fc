package airuns

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/echo-journal/echo-backend/pkg/db/models"
	"github.com/echo-journal/echo-backend/pkg/enums"
)

// Repository exposes run persistence plus the entry-side AI projection writes.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a run repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// With returns a repository bound to the given transaction handle.
func (r *Repository) With(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// EntryByID loads an entry. Returns (nil, nil) when absent.
func (r *Repository) EntryByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var e models.Entry
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// LastRunForEntry returns the newest run for an entry, nil when none exist.
func (r *Repository) LastRunForEntry(ctx context.Context, entryID uuid.UUID) (*models.AIRun, error) {
	var run models.AIRun
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("id DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// CreateRun inserts a new run row.
func (r *Repository) CreateRun(ctx context.Context, run *models.AIRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// FindRunByID retrieves a run. Returns (nil, nil) when absent.
func (r *Repository) FindRunByID(ctx context.Context, id int64) (*models.AIRun, error) {
	var run models.AIRun
	if err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// ListRunsByEntry returns an entry's runs in creation order.
func (r *Repository) ListRunsByEntry(ctx context.Context, entryID uuid.UUID) ([]models.AIRun, error) {
	var rows []models.AIRun
	if err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetEntryProjection updates the entry's denormalized AI columns.
func (r *Repository) SetEntryProjection(ctx context.Context, entryID uuid.UUID, status enums.AIStatus, runID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", entryID).
		Updates(map[string]any{
			"ai_status":      status,
			"ai_last_run_id": runID,
			"ai_updated_at":  at,
		}).Error
}

// SetEntryFingerprint persists a freshly computed audio hash on the entry.
func (r *Repository) SetEntryFingerprint(ctx context.Context, entryID uuid.UUID, sha string) error {
	return r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", entryID).
		Update("audio_sha256", sha).Error
}

// SetEntryDuration records the measured audio duration on the entry.
func (r *Repository) SetEntryDuration(ctx context.Context, entryID uuid.UUID, seconds float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ?", entryID).
		Update("audio_duration_sec", seconds).Error
}

// PendingRuns returns up to limit pending runs in request order.
func (r *Repository) PendingRuns(ctx context.Context, limit int) ([]models.AIRun, error) {
	var rows []models.AIRun
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.RunStatusPending).
		Order("requested_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// StartRun moves a run from pending to running. Returns false when another
// worker already claimed it.
func (r *Repository) StartRun(ctx context.Context, runID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.AIRun{}).
		Where("id = ? AND status = ?", runID, enums.RunStatusPending).
		Updates(map[string]any{
			"status":     enums.RunStatusRunning,
			"started_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FinishRun writes a run's terminal state and outputs.
func (r *Repository) FinishRun(ctx context.Context, run *models.AIRun) error {
	return r.db.WithContext(ctx).
		Model(&models.AIRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":          run.Status,
			"finished_at":     run.FinishedAt,
			"stt_model":       run.STTModel,
			"llm_model":       run.LLMModel,
			"transcript_text": run.TranscriptText,
			"transcript_json": run.TranscriptJSON,
			"summary_text":    run.SummaryText,
			"keypoints_json":  run.KeypointsJSON,
			"error_message":   run.ErrorMessage,
			"metrics_json":    run.MetricsJSON,
		}).Error
}

// IsLastRun reports whether runID is still the entry's most recent run.
func (r *Repository) IsLastRun(ctx context.Context, entryID uuid.UUID, runID int64) (bool, error) {
	last, err := r.LastRunForEntry(ctx, entryID)
	if err != nil {
		return false, err
	}
	return last != nil && last.ID == runID, nil
}
