package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`

// googleDir returns a config dir holding oauth_client.json and, when token
// is non-empty, token.json.
func googleDir(t *testing.T, token string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.OAuthClientFile), []byte(testOAuthClient), 0600); err != nil {
		t.Fatalf("write oauth client: %v", err)
	}
	if token != "" {
		if err := os.WriteFile(filepath.Join(dir, config.TokenFile), []byte(token), 0600); err != nil {
			t.Fatalf("write token: %v", err)
		}
	}
	return dir
}

func runCmd(ctx context.Context, cmd commands.Command, cfg *config.Config) (int, string, string) {
	var out, errOut bytes.Buffer
	code := cmd.Run(ctx, cfg, nil, nil, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestLoginCommand_NoOAuthClient(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir(), Backend: config.BackendGoogleTasks}

	code, out, errOut := runCmd(context.Background(), &commands.LoginCmd{}, cfg)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if out != "" {
		t.Errorf("expected no stdout, got %q", out)
	}
	if !strings.Contains(errOut, config.OAuthClientFile+" not found") {
		t.Errorf("expected missing credentials message, got %q", errOut)
	}
	if !strings.Contains(errOut, cfg.Dir) {
		t.Errorf("expected config dir in help, got %q", errOut)
	}
}

// A stored token that cannot be refreshed must not count as logged in.
// The context is already cancelled so the flow stops before waiting for a callback.
func TestLoginCommand_UnusableTokenStartsFlow(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"no refresh token", `{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`},
		{"corrupt", `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Dir: googleDir(t, tt.token), Backend: config.BackendGoogleTasks}
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			code, out, _ := runCmd(ctx, &commands.LoginCmd{}, cfg)

			if out == "already logged in\n" {
				t.Error("should not report already logged in")
			}
			if code != exitcode.AuthError {
				t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
			}
		})
	}
}

func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	dir := googleDir(t, `{"access_token":"test","refresh_token":"test"}`)
	cfg := &config.Config{Dir: dir}

	code, out, errOut := runCmd(context.Background(), &commands.LogoutCmd{}, cfg)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if errOut != "" {
		t.Errorf("expected no stderr, got %q", errOut)
	}
	if out != "logged out\n" {
		t.Errorf("expected %q, got %q", "logged out\n", out)
	}
	if _, err := os.Stat(cfg.TokenPath()); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
	if _, err := os.Stat(cfg.OAuthClientPath()); err != nil {
		t.Error("oauth_client.json should be kept")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	tests := []struct {
		name    string
		quiet   bool
		wantOut string
	}{
		{"verbose", false, "not logged in\n"},
		{"quiet", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Dir: t.TempDir(), Quiet: tt.quiet}

			code, out, errOut := runCmd(context.Background(), &commands.LogoutCmd{}, cfg)

			if code != exitcode.Success {
				t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
			}
			if errOut != "" {
				t.Errorf("expected no stderr, got %q", errOut)
			}
			if out != tt.wantOut {
				t.Errorf("expected %q, got %q", tt.wantOut, out)
			}
		})
	}
}
