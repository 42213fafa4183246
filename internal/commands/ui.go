package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/ui"
)

func init() {
	Register(&UICmd{})
}

// UICmd starts the interactive terminal UI.
type UICmd struct{}

func (c *UICmd) Name() string       { return "ui" }
func (c *UICmd) Aliases() []string  { return nil }
func (c *UICmd) Synopsis() string   { return "Open the interactive task list" }
func (c *UICmd) Usage() string      { return "todo ui" }
func (c *UICmd) NeedsBackend() bool { return true }
func (c *UICmd) OwnsTerminal() bool { return true }

func (c *UICmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UICmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	st := newStore(cfg, svc)
	if err := ui.Run(ctx, st, ui.WithLogger(cfg.Log())); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
