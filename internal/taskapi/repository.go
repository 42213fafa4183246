// Package taskapi is a reference implementation of the remote task API the
// client talks to. It serves /api/tasks over HTTP on top of a Repository.
package taskapi

import (
	"context"
	"errors"

	"todo/internal/service"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// Repository persists tasks. Ids are assigned by the repository.
type Repository interface {
	// List returns all tasks ordered by id.
	List(ctx context.Context) ([]service.Task, error)

	// Create stores a new task and returns it with its assigned id.
	Create(ctx context.Context, draft service.Draft) (service.Task, error)

	// Update replaces title and completed of the task with id.
	Update(ctx context.Context, id service.ID, t service.Task) (service.Task, error)

	// Delete removes the task with id.
	Delete(ctx context.Context, id service.ID) error
}
