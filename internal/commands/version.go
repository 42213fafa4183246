package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// Version is the application version. Set at build time.
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd prints the version and, with --verbose, the backend in use.
type VersionCmd struct {
	verbose bool
}

// SetVerbose enables the backend details (for testing).
func (c *VersionCmd) SetVerbose(v bool) {
	c.verbose = v
}

func (c *VersionCmd) Name() string       { return "version" }
func (c *VersionCmd) Aliases() []string  { return nil }
func (c *VersionCmd) Synopsis() string   { return "Print version" }
func (c *VersionCmd) Usage() string      { return "todo version [--verbose]" }
func (c *VersionCmd) NeedsBackend() bool { return false }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "verbose", false, "")
}

func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "todo %s\n", Version)
	if !c.verbose {
		return exitcode.Success
	}

	fmt.Fprintf(out, "go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	switch cfg.Backend {
	case config.BackendGoogleTasks:
		fmt.Fprintf(out, "backend: %s (list %s)\n", cfg.Backend, cfg.GoogleList)
	case config.BackendHTTP:
		fmt.Fprintf(out, "backend: %s (%s)\n", cfg.Backend, cfg.BaseURL)
	default:
		fmt.Fprintf(out, "backend: %s\n", cfg.Backend)
	}
	fmt.Fprintf(out, "config:  %s\n", cfg.FilePath())
	return exitcode.Success
}
