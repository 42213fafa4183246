package commands

import (
	"errors"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/notice"
	"todo/internal/service"
	"todo/internal/store"
)

// newStore opens a store session for one CLI invocation.
func newStore(cfg *config.Config, svc service.Service) *store.Store {
	return store.New(svc,
		store.WithLogger(cfg.Log()),
		store.WithBanner(notice.NewBanner(cfg.NoticeTimeout)),
	)
}

// report prints the outcome of a store operation and maps it to an exit code.
// Success prints the banner message to out unless quiet.
func report(cfg *config.Config, st *store.Store, err error, out, errOut io.Writer) int {
	if err == nil {
		if n, ok := st.Banner().Current(); ok && !cfg.Quiet {
			fmt.Fprintln(out, n.Message)
		}
		return exitcode.Success
	}
	return reportError(err, errOut)
}

func reportError(err error, errOut io.Writer) int {
	var opErr *store.OperationError
	switch {
	case errors.Is(err, store.ErrEmptyTitle):
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	case errors.Is(err, store.ErrUnknownTask):
		fmt.Fprintln(errOut, "error: task not found")
		return exitcode.UserError
	case errors.As(err, &opErr):
		fmt.Fprintf(errOut, "error: %s: %v\n", opErr.Op.FailureMessage(), opErr.Err)
		return exitcode.BackendError
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
}
