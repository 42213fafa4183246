package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"todo/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int        // 1-based row number from `todo list`, 0 if ID is set
	ID  service.ID // task id given as #<id>
}

// ByID reports whether the reference names a task id rather than a row.
func (r TaskRef) ByID() bool {
	return !r.ID.IsZero()
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Accepted forms:
//   - all digits: 1-based row number in list order (e.g. 3)
//   - '#' followed by a non-empty id: the task id (e.g. #42)
//
// Anything else, including extra arguments, is an invalid reference.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", strings.Join(args, " "))
	}

	arg := args[0]
	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}

	if id, ok := strings.CutPrefix(arg, "#"); ok && strings.TrimSpace(id) != "" {
		return TaskRef{ID: service.ID(id)}, nil
	}

	return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
}

// Resolve finds the referenced task in tasks.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ByID() {
		for _, t := range tasks {
			if t.ID == r.ID {
				return t, nil
			}
		}
		return service.Task{}, fmt.Errorf("task not found: #%s", r.ID)
	}
	if r.Num < 1 || r.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", r.Num)
	}
	return tasks[r.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
