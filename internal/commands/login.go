package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"todo/internal/backend/googletasks"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
)

const (
	callbackTimeout   = 5 * time.Minute
	exchangeTimeout   = 30 * time.Second
	tokenCheckTimeout = 10 * time.Second

	// The callback listener tries callbackPortCount ports from callbackPortBase.
	callbackPortBase  = 8085
	callbackPortCount = 5
)

const credentialsHelp = `error: %[1]s not found in %[2]s

The googletasks backend needs OAuth client credentials:

  1. Open https://console.cloud.google.com/apis/credentials
  2. Create or select a project and enable the Tasks API
     (https://console.cloud.google.com/apis/library/tasks.googleapis.com)
  3. Create an OAuth client ID of type "Desktop app" and download its JSON
  4. Save it as %[2]s/%[1]s

Then set backend = "googletasks" in config.toml and run 'todo login' again.
`

func init() {
	Register(&LoginCmd{})
}

// LoginCmd stores an OAuth token for the googletasks backend.
type LoginCmd struct{}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Authenticate with Google (googletasks backend)" }
func (c *LoginCmd) Usage() string      { return "todo login [common flags]" }
func (c *LoginCmd) NeedsBackend() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	logger := cfg.Log()
	if cfg.Backend != config.BackendGoogleTasks {
		logger.Warn("login only applies to the googletasks backend", "backend", cfg.Backend)
	}

	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, credentialsHelp, config.OAuthClientFile, cfg.Dir)
		return exitcode.AuthError
	}

	if cfg.HasToken() && tokenUsable(ctx, cfg) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	oauthConfig, err := googletasks.OAuthConfig(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	listener, err := listenCallback()
	if err != nil {
		fmt.Fprintf(errOut, "error: oauth callback: %v\n", err)
		return exitcode.AuthError
	}
	port := listener.Addr().(*net.TCPAddr).Port
	oauthConfig.RedirectURL = "http://localhost:" + strconv.Itoa(port) + "/callback"

	verifier := oauth2.GenerateVerifier()
	cb := newOAuthCallback(uuid.NewString())
	authURL := oauthConfig.AuthCodeURL(cb.state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)
	fmt.Fprintln(errOut, "Open this URL in your browser:")
	fmt.Fprintln(errOut, authURL)

	code, err := cb.serve(ctx, listener, callbackTimeout)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	token, err := oauthConfig.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		fmt.Fprintf(errOut, "error: token exchange: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if err := googletasks.SaveToken(cfg.TokenPath(), token); err != nil {
		fmt.Fprintf(errOut, "error: save token: %v\n", err)
		return exitcode.AuthError
	}

	logger.Debug("token saved", "path", cfg.TokenPath())
	if !cfg.Quiet {
		fmt.Fprintln(out, "logged in")
	}
	return exitcode.Success
}

// oauthCallback receives the redirect from the provider. Only the first
// outcome (a code or an error) is kept.
type oauthCallback struct {
	state string
	codes chan string
	errs  chan error
}

func newOAuthCallback(state string) *oauthCallback {
	return &oauthCallback{
		state: state,
		codes: make(chan string, 1),
		errs:  make(chan error, 1),
	}
}

func (cb *oauthCallback) fail(err error) {
	select {
	case cb.errs <- err:
	default:
	}
}

func (cb *oauthCallback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("state") != cb.state {
		http.Error(w, "state mismatch", http.StatusBadRequest)
		cb.fail(errors.New("oauth state mismatch"))
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		cb.fail(errors.New("no code in oauth callback"))
		return
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, "<html><body><h1>Logged in</h1><p>You can close this window.</p></body></html>")
	select {
	case cb.codes <- code:
	default:
	}
}

// serve handles /callback on l until a code arrives, the callback fails,
// timeout elapses, or ctx is done. The listener is closed on return.
func (cb *oauthCallback) serve(ctx context.Context, l net.Listener, timeout time.Duration) (string, error) {
	mux := http.NewServeMux()
	mux.Handle("/callback", cb)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cb.fail(err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case code := <-cb.codes:
		return code, nil
	case err := <-cb.errs:
		return "", err
	case <-timer.C:
		return "", errors.New("oauth callback timed out")
	case <-ctx.Done():
		return "", fmt.Errorf("login cancelled: %w", ctx.Err())
	}
}

func listenCallback() (net.Listener, error) {
	var lastErr error
	for port := callbackPortBase; port < callbackPortBase+callbackPortCount; port++ {
		l, err := net.Listen("tcp", net.JoinHostPort("localhost", strconv.Itoa(port)))
		if err == nil {
			return l, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free port in %d-%d: %w", callbackPortBase, callbackPortBase+callbackPortCount-1, lastErr)
}

// tokenUsable reports whether the stored token carries a refresh token the
// provider still accepts.
func tokenUsable(ctx context.Context, cfg *config.Config) bool {
	token, err := googletasks.LoadToken(cfg.TokenPath())
	if err != nil || token.RefreshToken == "" {
		return false
	}
	oauthConfig, err := googletasks.OAuthConfig(cfg)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, tokenCheckTimeout)
	defer cancel()
	_, err = oauthConfig.TokenSource(ctx, token).Token()
	return err == nil
}
