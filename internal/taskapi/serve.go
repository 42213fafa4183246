package taskapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShutdownTimeout bounds graceful shutdown after the context is cancelled.
const ShutdownTimeout = 5 * time.Second

// OpenRepository returns a postgres repository when databaseURL is set and an
// in-memory one otherwise. The returned close function is never nil.
func OpenRepository(ctx context.Context, databaseURL string) (Repository, func(), error) {
	if databaseURL == "" {
		return NewMemoryRepository(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	repo := NewPgRepository(pool)
	if err := repo.EnsureTable(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensure tasks table: %w", err)
	}
	return repo, pool.Close, nil
}

// Serve runs handler on ln until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("task API listening", "addr", ln.Addr().String(), "path", BasePath)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("task API stopped")
	return nil
}
