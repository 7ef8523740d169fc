package entries

import (
	"time"

	"github.com/google/uuid"

	"github.com/echo-journal/echo-backend/pkg/db/models"
)

// EntryOut is the wire shape for an entry.
type EntryOut struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	QuestionID int       `json:"question_id"`
	AudioMime  string    `json:"audio_mime"`
	AudioSize  int64     `json:"audio_size"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToEntryOut maps a persisted entry onto its wire shape.
func ToEntryOut(e *models.Entry) EntryOut {
	return EntryOut{
		ID:         e.ID,
		UserID:     e.UserID,
		QuestionID: e.QuestionID,
		AudioMime:  e.AudioMime,
		AudioSize:  e.AudioSize,
		CreatedAt:  e.CreatedAt,
	}
}

// ToEntryOuts maps a slice of entries.
func ToEntryOuts(rows []models.Entry) []EntryOut {
	out := make([]EntryOut, 0, len(rows))
	for i := range rows {
		out = append(out, ToEntryOut(&rows[i]))
	}
	return out
}
