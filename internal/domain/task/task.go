package task

import (
	"encoding/json"
	"fmt"
	"reflect"
)

const (
	fieldType = "task_type"
	fieldData = "task_data"
)

type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// DefaultTaskValue provides a common implementation for TaskValue
func DefaultTaskValue(task interface{}) ([]byte, error) {
	return json.Marshal(task)
}

// StreamValues lays a task out as stream message fields.
func StreamValues(t Task) (map[string]interface{}, error) {
	data, err := t.TaskValue()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize task: %w", err)
	}
	return map[string]interface{}{
		fieldType: t.TaskType(),
		fieldData: string(data),
	}, nil
}

// Decode reads a task of type T back from stream message fields.
func Decode[T Task](values map[string]interface{}) (T, error) {
	var t T

	taskType, ok := values[fieldType].(string)
	if !ok {
		return t, fmt.Errorf("missing %s field", fieldType)
	}
	data, ok := values[fieldData].(string)
	if !ok {
		return t, fmt.Errorf("missing %s field", fieldData)
	}

	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return t, fmt.Errorf("failed to unmarshal %s: %w", taskType, err)
	}
	if v := reflect.ValueOf(t); !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
		return t, fmt.Errorf("empty %s payload", taskType)
	}
	if got := t.TaskType(); got != taskType {
		return t, fmt.Errorf("unexpected task type %s, want %s", taskType, got)
	}
	return t, nil
}
