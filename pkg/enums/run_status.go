package enums

import "fmt"

// RunStatus is the lifecycle state of a single AI run.
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusError   RunStatus = "error"
)

var validRunStatuses = []RunStatus{
	RunStatusPending,
	RunStatusRunning,
	RunStatusDone,
	RunStatusError,
}

// String returns the literal string for the status.
func (s RunStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s RunStatus) IsValid() bool {
	for _, candidate := range validRunStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the run can no longer change state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusDone || s == RunStatusError
}

// ParseRunStatus converts raw input into a RunStatus.
func ParseRunStatus(value string) (RunStatus, error) {
	for _, candidate := range validRunStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid run status %q", value)
}
