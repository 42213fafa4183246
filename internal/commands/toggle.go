package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command. It flips the completed flag of
// one task and reports the state the server confirmed.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string       { return "toggle" }
func (c *ToggleCmd) Aliases() []string  { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string   { return "Toggle a task between open and completed" }
func (c *ToggleCmd) Usage() string      { return "todo toggle <n|#id>" }
func (c *ToggleCmd) NeedsBackend() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// The update is built from the loaded record, so the collection is
	// always loaded first.
	st := newStore(cfg, svc)
	if err := st.Load(ctx); err != nil {
		return reportError(err, errOut)
	}

	task, err := ref.Resolve(st.State().Tasks)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	_, err = st.Toggle(ctx, task.ID)
	return report(cfg, st, err, out, errOut)
}
