package enums

import "fmt"

// AITask names one unit of processing requested against an entry's audio.
type AITask string

const (
	AITaskTranscribe AITask = "transcribe"
	AITaskSummarize  AITask = "summarize"
)

var validAITasks = []AITask{
	AITaskTranscribe,
	AITaskSummarize,
}

// String returns the literal string for the task.
func (t AITask) String() string {
	return string(t)
}

// IsValid reports whether the task is known.
func (t AITask) IsValid() bool {
	for _, candidate := range validAITasks {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseAITask converts raw input into an AITask.
func ParseAITask(value string) (AITask, error) {
	for _, candidate := range validAITasks {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ai task %q", value)
}

// DefaultAITasks is the task set substituted when a process request names none.
func DefaultAITasks() []AITask {
	return []AITask{AITaskTranscribe, AITaskSummarize}
}
