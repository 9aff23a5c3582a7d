package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, project_id, regulation_id, title, description, status, assignee_id, due_date, created_at, updated_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.RegulationID, &t.Title, &t.Description, &t.Status, &t.AssigneeID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListTasks returns tasks for a project, optionally narrowed by status or assignee.
func (r *Repository) ListTasks(ctx context.Context, filter ListFilter) ([]Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE project_id = $1
		   AND ($2 = '' OR status = $2)
		   AND ($3::bigint IS NULL OR assignee_id = $3)
		 ORDER BY due_date NULLS LAST, id`,
		filter.ProjectID, filter.Status, filter.AssigneeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches one task by ID.
func (r *Repository) GetTask(ctx context.Context, id int64) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, httpx.ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}

// TaskExists reports whether a task row exists.
func (r *Repository) TaskExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateTask inserts a new open task.
func (r *Repository) CreateTask(ctx context.Context, t Task) (Task, error) {
	created, err := scanTask(r.pool.QueryRow(ctx,
		`INSERT INTO tasks (project_id, regulation_id, title, description, status, assignee_id, due_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING `+taskColumns,
		t.ProjectID, t.RegulationID, t.Title, t.Description, StatusOpen, t.AssigneeID, t.DueDate))
	if err != nil {
		return Task{}, err
	}
	return created, nil
}

// UpdateTask rewrites title, description and due date.
func (r *Repository) UpdateTask(ctx context.Context, t Task) (Task, error) {
	updated, err := scanTask(r.pool.QueryRow(ctx,
		`UPDATE tasks SET title = $2, description = $3, due_date = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+taskColumns,
		t.ID, t.Title, t.Description, t.DueDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, httpx.ErrNotFound
		}
		return Task{}, err
	}
	return updated, nil
}

// SetStatus moves a task to a new workflow status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+taskColumns,
		id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, httpx.ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}

// Assign sets or clears the assignee.
func (r *Repository) Assign(ctx context.Context, id int64, assigneeID *int64) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx,
		`UPDATE tasks SET assignee_id = $2, updated_at = NOW() WHERE id = $1 RETURNING `+taskColumns,
		id, assigneeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, httpx.ErrNotFound
		}
		return Task{}, err
	}
	return t, nil
}

// ListDueSoon returns unfinished tasks with an assignee whose due date
// falls inside the window. The reminder job feeds on this.
func (r *Repository) ListDueSoon(ctx context.Context, window time.Duration) ([]Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status <> $1
		   AND assignee_id IS NOT NULL
		   AND due_date IS NOT NULL
		   AND due_date BETWEEN NOW() AND NOW() + make_interval(secs => $2)
		 ORDER BY due_date, id`,
		StatusDone, window.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
