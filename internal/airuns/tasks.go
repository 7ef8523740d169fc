package airuns

import (
	"encoding/json"

	"github.com/echo-journal/echo-backend/pkg/enums"
	pkgerrors "github.com/echo-journal/echo-backend/pkg/errors"
)

// canonicalTasks resolves a raw task list into its canonical JSON form.
// Order and duplicates are preserved; an empty list means the default set.
// The canonical string is what run deduplication compares, so two requests
// asking for the same work in the same order always produce the same bytes.
func canonicalTasks(raw []string) ([]enums.AITask, string, error) {
	var tasks []enums.AITask
	if len(raw) == 0 {
		tasks = enums.DefaultAITasks()
	} else {
		tasks = make([]enums.AITask, 0, len(raw))
		for _, value := range raw {
			task, err := enums.ParseAITask(value)
			if err != nil {
				return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "unknown ai task").
					WithDetails(map[string]any{"task": value})
			}
			tasks = append(tasks, task)
		}
	}

	names := make([]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.String()
	}
	data, err := json.Marshal(names)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode tasks")
	}
	return tasks, string(data), nil
}

// decodeTasks parses a stored canonical task list. Invalid payloads yield nil.
func decodeTasks(tasksJSON string) []string {
	var names []string
	if err := json.Unmarshal([]byte(tasksJSON), &names); err != nil {
		return nil
	}
	return names
}

// ParseTasksJSON turns a stored canonical task list back into typed tasks.
func ParseTasksJSON(tasksJSON string) ([]enums.AITask, error) {
	var names []string
	if err := json.Unmarshal([]byte(tasksJSON), &names); err != nil {
		return nil, err
	}
	tasks := make([]enums.AITask, 0, len(names))
	for _, name := range names {
		task, err := enums.ParseAITask(name)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// decodeStrings parses an optional JSON string array column.
func decodeStrings(raw *string) []string {
	if raw == nil {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(*raw), &values); err != nil {
		return nil
	}
	return values
}
