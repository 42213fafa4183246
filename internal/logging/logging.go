// Package logging builds the leveled console logger shared by the CLI, the
// terminal UI, and the reference server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Prefix is printed in front of every log line.
const Prefix = "todo"

// FileName is the log file used while the full-screen UI owns the terminal.
const FileName = "todo.log"

// Options holds logger configuration.
type Options struct {
	Debug           bool
	ReportTimestamp bool
}

// New creates a text logger writing to w.
// Debug enables debug-level output; otherwise only info and above is written.
func New(w io.Writer, opts Options) *log.Logger {
	level := log.InfoLevel
	if opts.Debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       log.TextFormatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          Prefix,
	})
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OpenFile creates (or appends to) dir/todo.log and returns a logger on it.
// The caller closes the returned file.
func OpenFile(dir string, opts Options) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	opts.ReportTimestamp = true
	return New(f, opts), f, nil
}
