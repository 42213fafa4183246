package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd deletes the stored OAuth token. oauth_client.json is kept so a
// later login needs no new credentials.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "Remove stored Google credentials" }
func (c *LogoutCmd) Usage() string      { return "todo logout [common flags]" }
func (c *LogoutCmd) NeedsBackend() bool { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	logger := cfg.Log()
	if cfg.Backend != config.BackendGoogleTasks {
		logger.Warn("logout only applies to the googletasks backend", "backend", cfg.Backend)
	}

	msg := "logged out"
	switch err := cfg.RemoveToken(); {
	case errors.Is(err, fs.ErrNotExist):
		msg = "not logged in"
	case err != nil:
		fmt.Fprintf(errOut, "error: remove token: %v\n", err)
		return exitcode.AuthError
	default:
		logger.Debug("token removed", "path", cfg.TokenPath())
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, msg)
	}
	return exitcode.Success
}
