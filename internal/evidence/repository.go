package evidence

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

const evidenceColumns = `id, task_id, file_name, content_type, size_bytes, sha256, note, uploaded_by, created_at`

func scanEvidence(row pgx.Row) (Evidence, error) {
	var e Evidence
	err := row.Scan(&e.ID, &e.TaskID, &e.FileName, &e.ContentType, &e.SizeBytes, &e.SHA256, &e.Note, &e.UploadedBy, &e.CreatedAt)
	return e, err
}

// ListByTask returns evidence records attached to a task, newest first.
func (r *Repository) ListByTask(ctx context.Context, taskID int64) ([]Evidence, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+evidenceColumns+` FROM evidence WHERE task_id = $1 ORDER BY created_at DESC, id`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []Evidence
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Get fetches one evidence record by its UUID.
func (r *Repository) Get(ctx context.Context, id string) (Evidence, error) {
	e, err := scanEvidence(r.pool.QueryRow(ctx,
		`SELECT `+evidenceColumns+` FROM evidence WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Evidence{}, httpx.ErrNotFound
		}
		return Evidence{}, err
	}
	return e, nil
}

// Create inserts an evidence record.
func (r *Repository) Create(ctx context.Context, e Evidence) (Evidence, error) {
	created, err := scanEvidence(r.pool.QueryRow(ctx,
		`INSERT INTO evidence (id, task_id, file_name, content_type, size_bytes, sha256, note, uploaded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING `+evidenceColumns,
		e.ID, e.TaskID, e.FileName, e.ContentType, e.SizeBytes, e.SHA256, e.Note, e.UploadedBy))
	if err != nil {
		if httpx.IsUniqueViolation(err, "uq_evidence_task_sha256") {
			return Evidence{}, httpx.ErrDuplicate
		}
		return Evidence{}, err
	}
	return created, nil
}

// Delete removes an evidence record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM evidence WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
