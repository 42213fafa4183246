// Package cli parses common flags, builds the configuration and logger, and
// dispatches to registered commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/logging"
	"todo/internal/service"
)

// DefaultCommand runs when no command is given.
const DefaultCommand = "list"

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return d.dispatch(ctx, DefaultCommand, nil, out, errOut)
	}

	// Flags require a command
	if strings.HasPrefix(args[0], "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}
	return d.dispatch(ctx, args[0], args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	baseURL   string
	quiet     bool
	debug     bool
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var common commonFlags
	fs.StringVar(&common.configDir, "config", "", "")
	fs.StringVar(&common.baseURL, "base-url", "", "")
	fs.BoolVar(&common.quiet, "quiet", false, "")
	fs.BoolVar(&common.debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagErrorMessage(err))
		return exitcode.UserError
	}

	// A positional arg starting with - should have been parsed as a flag
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := loadConfig(common)
	if err != nil {
		fmt.Fprintf(errOut, "error: config error: %s\n", err)
		return exitcode.AuthError
	}

	logger, closeLog, err := openLogger(cmd, cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}
	defer closeLog()
	cfg.Logger = logger
	logger.Debug("dispatch", "command", cmd.Name(), "backend", cfg.Backend, "config_dir", cfg.Dir)

	var svc service.Service
	if cmd.NeedsBackend() {
		if code, ok := d.preflight(cfg, errOut); !ok {
			return code
		}
		if d.factory == nil {
			fmt.Fprintln(errOut, "error: no backend configured")
			return exitcode.AuthError
		}
		// Building a backend does not touch the network, so any failure
		// here is a configuration or credentials problem.
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			return exitcode.AuthError
		}
	}

	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}

// loadConfig layers the common flags on top of the file and environment.
func loadConfig(common commonFlags) (*config.Config, error) {
	cfg, err := config.New(common.configDir)
	if err != nil {
		return nil, err
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	if common.baseURL != "" {
		cfg.BaseURL = common.baseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openLogger logs to errOut, or to the config dir log file for commands
// that own the terminal. The returned close function is never nil.
func openLogger(cmd commands.Command, cfg *config.Config, errOut io.Writer) (*log.Logger, func(), error) {
	opts := logging.Options{Debug: cfg.Debug}
	if owner, ok := cmd.(commands.TerminalOwner); ok && owner.OwnsTerminal() {
		logger, f, err := logging.OpenFile(cfg.Dir, opts)
		if err != nil {
			return nil, nil, err
		}
		return logger, func() { f.Close() }, nil
	}
	return logging.New(errOut, opts), func() {}, nil
}

// preflight reports missing googletasks credentials before any request.
func (d *Dispatcher) preflight(cfg *config.Config, errOut io.Writer) (int, bool) {
	if cfg.Backend != config.BackendGoogleTasks {
		return exitcode.Success, true
	}
	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n", cfg.Dir)
		return exitcode.AuthError, false
	}
	if !cfg.HasToken() {
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
		return exitcode.AuthError, false
	}
	return exitcode.Success, true
}

// flagErrorMessage rewrites flag package errors into the CLI's wording.
func flagErrorMessage(err error) string {
	errStr := err.Error()

	if name, ok := strings.CutPrefix(errStr, "flag needs an argument: "); ok {
		return "flag needs an argument: " + name
	}
	if name, ok := strings.CutPrefix(errStr, "flag provided but not defined: "); ok {
		return "unknown flag: " + name
	}
	return errStr
}
