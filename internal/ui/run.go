package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"todo/internal/store"
)

// Run starts the full-screen UI on st and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, st *store.Store, opts ...Option) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("ui requires a TTY")
	}

	m := New(ctx, st, opts...)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Store callbacks can fire inside Update, so Send must not block here.
	unsubscribe := st.Subscribe(func(store.State) {
		go program.Send(refreshMsg{})
	})
	defer unsubscribe()

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
