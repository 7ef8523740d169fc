package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/echo-journal/echo-backend/pkg/enums"
)

// AIRun is one attempt to process an entry's audio with a specific task set
// and pipeline version. Rows are append-mostly: the orchestrator creates them
// pending and only the worker moves them forward.
type AIRun struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	EntryID     uuid.UUID       `gorm:"column:entry_id;type:uuid;not null;index"`
	Status      enums.RunStatus `gorm:"column:status;not null"`
	RequestedAt time.Time       `gorm:"column:requested_at;not null"`
	StartedAt   *time.Time      `gorm:"column:started_at"`
	FinishedAt  *time.Time      `gorm:"column:finished_at"`

	TasksJSON       string  `gorm:"column:tasks_json;not null"`
	PipelineVersion string  `gorm:"column:pipeline_version;not null"`
	AudioSHA256     *string `gorm:"column:audio_sha256;size:64"`

	STTModel       *string `gorm:"column:stt_model"`
	LLMModel       *string `gorm:"column:llm_model"`
	TranscriptText *string `gorm:"column:transcript_text"`
	TranscriptJSON *string `gorm:"column:transcript_json"`
	SummaryText    *string `gorm:"column:summary_text"`
	KeypointsJSON  *string `gorm:"column:keypoints_json"`
	ErrorMessage   *string `gorm:"column:error_message"`
	MetricsJSON    *string `gorm:"column:metrics_json"`
}

func (AIRun) TableName() string {
	return "ai_runs"
}
