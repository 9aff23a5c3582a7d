package projects

import (
	"context"
	"errors"

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

const projectColumns = `id, code, name, description, status, lead_id, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.Status, &p.LeadID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ListProjects returns projects filtered by status, all when status is empty.
func (r *Repository) ListProjects(ctx context.Context, status string) ([]Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY name, id`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches one project by ID.
func (r *Repository) GetProject(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, httpx.ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

// CreateProject inserts a new project.
func (r *Repository) CreateProject(ctx context.Context, p Project) (Project, error) {
	created, err := scanProject(r.pool.QueryRow(ctx,
		`INSERT INTO projects (code, name, description, status, lead_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+projectColumns,
		p.Code, p.Name, p.Description, StatusActive, p.LeadID))
	if err != nil {
		if httpx.IsUniqueViolation(err, "uq_projects_code") {
			return Project{}, httpx.ErrDuplicate
		}
		return Project{}, err
	}
	return created, nil
}

// UpdateProject rewrites the mutable fields of a project.
func (r *Repository) UpdateProject(ctx context.Context, p Project) (Project, error) {
	updated, err := scanProject(r.pool.QueryRow(ctx,
		`UPDATE projects
		 SET name = $2, description = $3, lead_id = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+projectColumns,
		p.ID, p.Name, p.Description, p.LeadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, httpx.ErrNotFound
		}
		return Project{}, err
	}
	return updated, nil
}

// SetStatus transitions a project between active and archived.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
