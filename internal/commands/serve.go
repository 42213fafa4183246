package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/taskapi"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd runs the reference task API.
type ServeCmd struct {
	addr        string
	databaseURL string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Run the task API server" }
func (c *ServeCmd) Usage() string      { return "todo serve [--addr <host:port>] [--database-url <url>]" }
func (c *ServeCmd) NeedsBackend() bool { return false }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
	fs.StringVar(&c.databaseURL, "database-url", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	addr := cfg.Server.Addr
	if c.addr != "" {
		addr = c.addr
	}
	dsn := cfg.Server.DatabaseURL
	if c.databaseURL != "" {
		dsn = c.databaseURL
	}
	logger := cfg.Log()

	repo, closeRepo, err := taskapi.OpenRepository(ctx, dsn)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer closeRepo()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: listen on %s: %v\n", addr, err)
		return exitcode.UserError
	}

	if err := taskapi.Serve(ctx, ln, taskapi.NewServer(repo, logger), logger); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}
