// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"todo/internal/service"
)

// ErrNotFound is returned when a task id is not in the fake store.
var ErrNotFound = errors.New("not found")

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int64
	calls  map[string]int

	// Error injection for testing
	ListTasksErr  error
	CreateTaskErr error
	UpdateTaskErr error
	DeleteTaskErr error

	// BeforeUpdate, if set, runs before UpdateTask touches the fake store.
	// Tests use it to hold a response back and interleave requests.
	BeforeUpdate func(t service.Task)

	// UpdateOverride, if set, rewrites the record the fake stores on update,
	// so tests can simulate server-side adjustments.
	UpdateOverride func(t service.Task) service.Task
}

// NewFakeService creates an empty FakeService. Ids are assigned from 1.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID: 1,
		calls:  make(map[string]int),
	}
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(title string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: f.newID(), Title: title, Completed: completed}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of the fake's stored collection.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns how many times the named method was invoked.
func (f *FakeService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeService) newID() service.ID {
	id := service.ID(strconv.FormatInt(f.nextID, 10))
	f.nextID++
	return id
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Tasks(), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: f.newID(), Title: draft.Title, Completed: draft.Completed}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, t service.Task) (service.Task, error) {
	f.record("UpdateTask")
	if f.BeforeUpdate != nil {
		f.BeforeUpdate(t)
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	if f.UpdateOverride != nil {
		t = f.UpdateOverride(t)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tasks {
		if f.tasks[i].ID == t.ID {
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id service.ID) error {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
