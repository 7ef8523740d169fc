package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/echo-journal/echo-backend/pkg/enums"
)

// Entry is one uploaded audio answer plus its denormalized AI projection.
type Entry struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID     string    `gorm:"column:user_id;not null;index"`
	QuestionID int       `gorm:"column:question_id;not null"`
	AudioPath  string    `gorm:"column:audio_path;not null"`
	AudioMime  string    `gorm:"column:audio_mime;not null"`
	AudioSize  int64     `gorm:"column:audio_size;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`

	AIStatus         enums.AIStatus `gorm:"column:ai_status;not null;default:none"`
	AILastRunID      *int64         `gorm:"column:ai_last_run_id"`
	AIUpdatedAt      *time.Time     `gorm:"column:ai_updated_at"`
	AudioSHA256      *string        `gorm:"column:audio_sha256;size:64"`
	AudioDurationSec *float64       `gorm:"column:audio_duration_sec"`
}

func (Entry) TableName() string {
	return "entries"
}
