package airuns

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/echo-journal/echo-backend/pkg/db/models"
	"github.com/echo-journal/echo-backend/pkg/enums"
)

// ProcessInput carries one processing request for an entry.
type ProcessInput struct {
	Tasks           []string `json:"tasks" validate:"omitempty,dive,oneof=transcribe summarize"`
	Force           bool     `json:"force"`
	PipelineVersion string   `json:"pipeline_version" validate:"omitempty,max=32"`
}

// ProcessResult reports whether an existing run was reused or a run is queued.
type ProcessResult struct {
	Reused  bool            `json:"reused"`
	RunID   int64           `json:"run_id"`
	EntryID uuid.UUID       `json:"entry_id"`
	Status  enums.RunStatus `json:"status"`
}

// RunOut is the wire shape for a processing run.
type RunOut struct {
	ID              int64           `json:"id"`
	EntryID         uuid.UUID       `json:"entry_id"`
	Status          enums.RunStatus `json:"status"`
	RequestedAt     time.Time       `json:"requested_at"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	FinishedAt      *time.Time      `json:"finished_at,omitempty"`
	Tasks           []string        `json:"tasks"`
	PipelineVersion string          `json:"pipeline_version"`
	AudioSHA256     *string         `json:"audio_sha256,omitempty"`
	STTModel        *string         `json:"stt_model,omitempty"`
	LLMModel        *string         `json:"llm_model,omitempty"`
	TranscriptText  *string         `json:"transcript_text,omitempty"`
	TranscriptJSON  json.RawMessage `json:"transcript_json,omitempty"`
	SummaryText     *string         `json:"summary_text,omitempty"`
	Keypoints       []string        `json:"keypoints,omitempty"`
	ErrorMessage    *string         `json:"error_message,omitempty"`
	Metrics         json.RawMessage `json:"metrics_json,omitempty"`
}

// EntryAIOut is the denormalized AI view of an entry plus its latest run.
type EntryAIOut struct {
	EntryID     uuid.UUID      `json:"entry_id"`
	AIStatus    enums.AIStatus `json:"ai_status"`
	AILastRunID *int64         `json:"ai_last_run_id,omitempty"`
	AIUpdatedAt *time.Time     `json:"ai_updated_at,omitempty"`
	LastRun     *RunOut        `json:"last_run,omitempty"`
}

// ToRunOut maps a persisted run onto its wire shape.
func ToRunOut(run *models.AIRun) *RunOut {
	return &RunOut{
		ID:              run.ID,
		EntryID:         run.EntryID,
		Status:          run.Status,
		RequestedAt:     run.RequestedAt,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
		Tasks:           decodeTasks(run.TasksJSON),
		PipelineVersion: run.PipelineVersion,
		AudioSHA256:     run.AudioSHA256,
		STTModel:        run.STTModel,
		LLMModel:        run.LLMModel,
		TranscriptText:  run.TranscriptText,
		TranscriptJSON:  rawJSON(run.TranscriptJSON),
		SummaryText:     run.SummaryText,
		Keypoints:       decodeStrings(run.KeypointsJSON),
		ErrorMessage:    run.ErrorMessage,
		Metrics:         rawJSON(run.MetricsJSON),
	}
}

func rawJSON(raw *string) json.RawMessage {
	if raw == nil || *raw == "" {
		return nil
	}
	return json.RawMessage(*raw)
}
