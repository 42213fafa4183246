package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "todo help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out)
	writeCommandTable(out, DefaultRegistry)
	return exitcode.Success
}

// writeCommandTable lists every registered command with its aliases.
func writeCommandTable(w io.Writer, r *Registry) {
	fmt.Fprintln(w, "Commands:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, cmd := range r.All() {
		name := cmd.Name()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			name += " (" + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, cmd.Synopsis())
	}
	tw.Flush()
}

const helpText = `Usage:
  todo                                     List all tasks
  todo list [common flags] [--ids]         List all tasks
  todo add [common flags] <title...>       Create a task
  todo create [common flags] <title...>
  todo toggle [common flags] <n|#id>       Toggle a task completed/open
  todo done [common flags] <n|#id>
  todo rm [common flags] <n|#id>           Delete a task
  todo delete [common flags] <n|#id>
  todo ui [common flags]                   Interactive task list
  todo serve [common flags] [--addr <host:port>] [--database-url <url>]
  todo login [common flags]                Authenticate with Google (googletasks backend)
  todo logout [common flags]
  todo help
  todo version [--verbose]                 Print version and backend details

Task references:
  <n>     row number as printed by "todo list"
  #<id>   task id as printed by "todo list --ids"

Common flags:
  --config <dir>     Override config directory
  --base-url <url>   Override the task API endpoint
  --quiet            Suppress informational output
  --debug            Print debug logs to stderr
`
