// Package config handles the configuration directory, the optional
// config.toml file, and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"todo/internal/logging"
	"todo/internal/notice"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the optional settings filename inside the config dir.
	ConfigFile = "config.toml"

	// OAuthClientFile is the OAuth client credentials filename (googletasks backend).
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename (googletasks backend).
	TokenFile = "token.json"
)

// Backend names.
const (
	BackendHTTP        = "http"
	BackendGoogleTasks = "googletasks"
)

// Defaults.
const (
	DefaultBaseURL    = "http://localhost:8080/api/tasks"
	DefaultGoogleList = "@default"
	DefaultServerAddr = ":8080"
)

// Environment variable names.
const (
	EnvBackend     = "TODO_BACKEND"
	EnvBaseURL     = "TODO_BASE_URL"
	EnvDatabaseURL = "TODO_DATABASE_URL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Backend selects the remote store implementation.
	Backend string

	// BaseURL is the task collection endpoint of the HTTP backend.
	BaseURL string

	// RequestTimeout bounds each remote call. Zero means no timeout.
	RequestTimeout time.Duration

	// NoticeTimeout is how long a banner notice stays visible.
	NoticeTimeout time.Duration

	// GoogleList is the Google Tasks list id used by the googletasks backend.
	GoogleList string

	// Server configures the reference task API started by `todo serve`.
	Server ServerConfig

	// Logger is the process logger installed by the dispatcher.
	Logger *log.Logger
}

// ServerConfig holds reference server settings.
type ServerConfig struct {
	Addr string
	// DatabaseURL selects the postgres repository; empty means in-memory.
	DatabaseURL string
}

// fileConfig mirrors config.toml. Durations are strings like "3s".
type fileConfig struct {
	Backend        string        `toml:"backend"`
	BaseURL        string        `toml:"base_url"`
	RequestTimeout time.Duration `toml:"request_timeout"`
	NoticeTimeout  time.Duration `toml:"notice_timeout"`
	GoogleList     string        `toml:"google_list"`
	Server         struct {
		Addr        string `toml:"addr"`
		DatabaseURL string `toml:"database_url"`
	} `toml:"server"`
}

// New creates a Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
// Settings are layered: defaults, then config.toml, then environment.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := Defaults()
	cfg.Dir = dir

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a Config with every setting at its default and no Dir.
func Defaults() *Config {
	return &Config{
		Backend:       BackendHTTP,
		BaseURL:       DefaultBaseURL,
		NoticeTimeout: notice.DefaultTimeout,
		GoogleList:    DefaultGoogleList,
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) loadFile() error {
	path := c.FilePath()
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}

	if fc.Backend != "" {
		c.Backend = fc.Backend
	}
	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.GoogleList != "" {
		c.GoogleList = fc.GoogleList
	}
	if fc.Server.Addr != "" {
		c.Server.Addr = fc.Server.Addr
	}
	if fc.Server.DatabaseURL != "" {
		c.Server.DatabaseURL = fc.Server.DatabaseURL
	}
	if md.IsDefined("request_timeout") {
		if err := nonNegative("request_timeout", fc.RequestTimeout); err != nil {
			return err
		}
		c.RequestTimeout = fc.RequestTimeout
	}
	if md.IsDefined("notice_timeout") {
		if err := nonNegative("notice_timeout", fc.NoticeTimeout); err != nil {
			return err
		}
		c.NoticeTimeout = fc.NoticeTimeout
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Server.DatabaseURL = v
	}
}

func nonNegative(key string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("invalid %s: must not be negative", key)
	}
	return nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendHTTP:
		if c.BaseURL == "" {
			return fmt.Errorf("base_url is required for the %s backend", BackendHTTP)
		}
	case BackendGoogleTasks:
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	return nil
}

// Log returns the configured logger, or a discarding one when unset.
func (c *Config) Log() *log.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	return c.Logger
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
