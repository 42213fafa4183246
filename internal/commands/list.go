package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list`.
type ListCmd struct {
	ids bool
}

// SetShowIDs enables the id column (for testing).
func (c *ListCmd) SetShowIDs(ids bool) {
	c.ids = ids
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "todo list [--ids]" }
func (c *ListCmd) NeedsBackend() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.ids, "ids", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	st := newStore(cfg, svc)
	if err := st.Load(ctx); err != nil {
		return reportError(err, errOut)
	}

	tasks := st.State().Tasks
	if len(tasks) == 0 && cfg.Quiet {
		return exitcode.Success
	}
	output.FormatTasks(out, tasks, c.ids)
	return exitcode.Success
}
