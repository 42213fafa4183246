package taskapi

import (
	"context"
	"strconv"
	"sync"

	"todo/internal/service"
)

// MemoryRepository keeps tasks in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	tasks  []service.Task
	nextID int64
}

// NewMemoryRepository creates an empty repository. Ids start at 1.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{nextID: 1}
}

// List implements Repository.
func (r *MemoryRepository) List(ctx context.Context) ([]service.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]service.Task, len(r.tasks))
	copy(out, r.tasks)
	return out, nil
}

// Create implements Repository.
func (r *MemoryRepository) Create(ctx context.Context, draft service.Draft) (service.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := service.Task{
		ID:        service.ID(strconv.FormatInt(r.nextID, 10)),
		Title:     draft.Title,
		Completed: draft.Completed,
	}
	r.nextID++
	r.tasks = append(r.tasks, t)
	return t, nil
}

// Update implements Repository.
func (r *MemoryRepository) Update(ctx context.Context, id service.ID, t service.Task) (service.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i].Title = t.Title
			r.tasks[i].Completed = t.Completed
			return r.tasks[i], nil
		}
	}
	return service.Task{}, ErrNotFound
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(ctx context.Context, id service.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.tasks {
		if t.ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
