// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"todo/internal/service"
)

const (
	// EmptyMessage is shown when the loaded collection has no tasks.
	EmptyMessage = "No tasks yet. Add one above to get started!"

	// ListSeparator separates the task rows from the summary line.
	ListSeparator = "------------"
)

// FormatTask formats one task row.
// Format: "{N:>4}  [x] {TITLE}\n" for completed tasks, "[ ]" for open ones.
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, Checkbox(task.Completed), NormalizeTitle(task.Title))
}

// FormatTaskWithID is FormatTask followed by the task id, for --ids output.
func FormatTaskWithID(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s  #%s\n", num, Checkbox(task.Completed), NormalizeTitle(task.Title), task.ID)
}

// FormatTasks writes every row, the separator and the summary line.
// An empty collection prints EmptyMessage only.
func FormatTasks(w io.Writer, tasks []service.Task, withIDs bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, EmptyMessage)
		return
	}
	completed := 0
	for i, t := range tasks {
		if withIDs {
			FormatTaskWithID(w, i+1, t)
		} else {
			FormatTask(w, i+1, t)
		}
		if t.Completed {
			completed++
		}
	}
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintln(w, Summary(completed, len(tasks)))
}

// Summary returns the "N of M completed" header line.
func Summary(completed, total int) string {
	return fmt.Sprintf("%d of %d completed", completed, total)
}

// Checkbox renders the completion marker.
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// NormalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func NormalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
