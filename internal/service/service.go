// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for remote task store operations.
// The store and commands never import a backend SDK directly.
// Every method is one round trip; any failure is reported as a non-nil error.
type Service interface {
	// ListTasks returns the full current collection in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task and returns the stored record including its id.
	CreateTask(ctx context.Context, draft Draft) (Task, error)

	// UpdateTask replaces the record with t.ID and returns the stored record.
	UpdateTask(ctx context.Context, t Task) (Task, error)

	// DeleteTask removes the record with the given id.
	DeleteTask(ctx context.Context, id ID) error
}
