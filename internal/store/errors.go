package store

import (
	"errors"
	"fmt"

	"todo/internal/service"
)

// Operation names a store operation for failure reporting.
type Operation string

const (
	OpLoad   Operation = "load"
	OpCreate Operation = "add"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// FailureMessage is the banner text shown when the operation fails.
func (op Operation) FailureMessage() string {
	switch op {
	case OpLoad:
		return "Failed to load tasks"
	case OpCreate:
		return "Failed to add task"
	case OpUpdate:
		return "Failed to update task"
	case OpDelete:
		return "Failed to delete task"
	}
	return "Operation failed"
}

// SuccessMessage is the banner text shown when the operation succeeds.
// Load has none.
func (op Operation) SuccessMessage() string {
	switch op {
	case OpCreate:
		return "Task added successfully!"
	case OpUpdate:
		return "Task updated!"
	case OpDelete:
		return "Task deleted!"
	}
	return ""
}

var (
	// ErrOperationFailed matches every *OperationError via errors.Is.
	ErrOperationFailed = errors.New("operation failed")

	// ErrEmptyTitle is returned by Create when the trimmed title is empty.
	// No request is sent.
	ErrEmptyTitle = errors.New("title required")

	// ErrUnknownTask is returned by Toggle when the id is not in the local
	// collection. No request is sent.
	ErrUnknownTask = errors.New("task not found")
)

// OperationError is the single failure kind of the store: the remote call
// failed for any reason (transport, status, malformed response).
type OperationError struct {
	Op  Operation
	ID  service.ID
	Err error
}

func (e *OperationError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("%s: %v", e.Op.FailureMessage(), e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op.FailureMessage(), e.ID, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Is reports ErrOperationFailed as a match.
func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}
