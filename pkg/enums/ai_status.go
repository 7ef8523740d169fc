package enums

import "fmt"

// AIStatus is the denormalized AI state carried on an entry.
type AIStatus string

const (
	AIStatusNone    AIStatus = "none"
	AIStatusPending AIStatus = "pending"
	AIStatusRunning AIStatus = "running"
	AIStatusDone    AIStatus = "done"
	AIStatusError   AIStatus = "error"
)

var validAIStatuses = []AIStatus{
	AIStatusNone,
	AIStatusPending,
	AIStatusRunning,
	AIStatusDone,
	AIStatusError,
}

// String returns the literal string for the status.
func (s AIStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s AIStatus) IsValid() bool {
	for _, candidate := range validAIStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAIStatus converts raw input into an AIStatus.
func ParseAIStatus(value string) (AIStatus, error) {
	for _, candidate := range validAIStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ai status %q", value)
}
