package store

import (
	"todo/internal/notice"
	"todo/internal/service"
)

// State is a snapshot of everything the presentation layer renders.
type State struct {
	Tasks   []service.Task
	Input   string
	Loading bool
	Notice  *notice.Notice
}

// CompletedCount returns the number of completed tasks.
func (s State) CompletedCount() int {
	n := 0
	for _, t := range s.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// Empty reports whether there is nothing to show and nothing in flight.
func (s State) Empty() bool {
	return len(s.Tasks) == 0 && !s.Loading
}

// Find returns the task with the given id.
func (s State) Find(id service.ID) (service.Task, bool) {
	if i := indexOf(s.Tasks, id); i >= 0 {
		return s.Tasks[i], true
	}
	return service.Task{}, false
}

func indexOf(tasks []service.Task, id service.ID) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
