// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todo/internal/backend/googletasks"
	"todo/internal/backend/httpapi"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newService)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// newService builds the backend selected by cfg.Backend.
func newService(ctx context.Context, cfg *config.Config) (service.Service, error) {
	switch cfg.Backend {
	case config.BackendHTTP:
		client, err := httpapi.New(cfg.BaseURL,
			httpapi.WithTimeout(cfg.RequestTimeout),
			httpapi.WithLogger(cfg.Log()),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.BackendGoogleTasks:
		client, err := googletasks.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
