package taskapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todo/internal/service"
)

// PgRepository is a PostgreSQL-backed task repository.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// EnsureTable creates the tasks table if it doesn't exist.
func (r *PgRepository) EnsureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id         BIGSERIAL PRIMARY KEY,
			title      TEXT NOT NULL,
			completed  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

// List implements Repository.
func (r *PgRepository) List(ctx context.Context) ([]service.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, completed FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []service.Task{}
	for rows.Next() {
		var (
			id int64
			t  service.Task
		)
		if err := rows.Scan(&id, &t.Title, &t.Completed); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.ID = formatID(id)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Create implements Repository.
func (r *PgRepository) Create(ctx context.Context, draft service.Draft) (service.Task, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (title, completed) VALUES ($1, $2) RETURNING id`,
		draft.Title, draft.Completed).Scan(&id)
	if err != nil {
		return service.Task{}, fmt.Errorf("create task: %w", err)
	}
	return service.Task{ID: formatID(id), Title: draft.Title, Completed: draft.Completed}, nil
}

// Update implements Repository.
func (r *PgRepository) Update(ctx context.Context, id service.ID, t service.Task) (service.Task, error) {
	n, err := parseID(id)
	if err != nil {
		return service.Task{}, err
	}
	var out service.Task
	var outID int64
	err = r.pool.QueryRow(ctx, `
		UPDATE tasks SET title = $2, completed = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, completed`,
		n, t.Title, t.Completed).Scan(&outID, &out.Title, &out.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return service.Task{}, ErrNotFound
	}
	if err != nil {
		return service.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	out.ID = formatID(outID)
	return out, nil
}

// Delete implements Repository.
func (r *PgRepository) Delete(ctx context.Context, id service.ID) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, n)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func formatID(id int64) service.ID {
	return service.ID(strconv.FormatInt(id, 10))
}

// parseID maps non-numeric ids to ErrNotFound; no row can have them.
func parseID(id service.ID) (int64, error) {
	n, err := strconv.ParseInt(id.String(), 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}
	return n, nil
}
