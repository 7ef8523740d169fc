package aiworker

import (
	"context"
	"io"

	"github.com/echo-journal/echo-backend/pkg/enums"
)

// PipelineInput is the audio plus the task list for one run.
type PipelineInput struct {
	Audio    io.Reader
	MimeType string
	FileName string
	Tasks    []enums.AITask
}

// PipelineOutput carries everything a finished run persists.
type PipelineOutput struct {
	STTModel       string
	LLMModel       string
	TranscriptText string
	TranscriptJSON string
	SummaryText    string
	Keypoints      []string
	DurationSec    *float64
}

// Pipeline executes the requested tasks against one audio blob.
type Pipeline interface {
	Run(ctx context.Context, input PipelineInput) (*PipelineOutput, error)
}

func hasTask(tasks []enums.AITask, want enums.AITask) bool {
	for _, task := range tasks {
		if task == want {
			return true
		}
	}
	return false
}
