package regulations

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for the regulation library.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const regulationColumns = `id, code, title, authority, category, summary, effective_date, created_at, updated_at`

func scanRegulation(row pgx.Row) (Regulation, error) {
	var reg Regulation
	err := row.Scan(&reg.ID, &reg.Code, &reg.Title, &reg.Authority, &reg.Category, &reg.Summary, &reg.EffectiveDate, &reg.CreatedAt, &reg.UpdatedAt)
	return reg, err
}

// ListRegulations returns one page of the library plus the total row count.
func (r *Repository) ListRegulations(ctx context.Context, filter ListFilter) ([]Regulation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM regulations WHERE ($1 = '' OR category = $1)`,
		filter.Category).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (filter.Page - 1) * filter.PerPage
	rows, err := r.pool.Query(ctx,
		`SELECT `+regulationColumns+` FROM regulations
		 WHERE ($1 = '' OR category = $1)
		 ORDER BY effective_date DESC, code
		 LIMIT $2 OFFSET $3`,
		filter.Category, filter.PerPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var regs []Regulation
	for rows.Next() {
		reg, err := scanRegulation(rows)
		if err != nil {
			return nil, 0, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return regs, total, nil
}

// GetRegulation fetches one regulation by ID.
func (r *Repository) GetRegulation(ctx context.Context, id int64) (Regulation, error) {
	reg, err := scanRegulation(r.pool.QueryRow(ctx,
		`SELECT `+regulationColumns+` FROM regulations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Regulation{}, httpx.ErrNotFound
		}
		return Regulation{}, err
	}
	return reg, nil
}

// CreateRegulation inserts a new library entry.
func (r *Repository) CreateRegulation(ctx context.Context, reg Regulation) (Regulation, error) {
	created, err := scanRegulation(r.pool.QueryRow(ctx,
		`INSERT INTO regulations (code, title, authority, category, summary, effective_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING `+regulationColumns,
		reg.Code, reg.Title, reg.Authority, reg.Category, reg.Summary, reg.EffectiveDate))
	if err != nil {
		if httpx.IsUniqueViolation(err, "uq_regulations_code") {
			return Regulation{}, httpx.ErrDuplicate
		}
		return Regulation{}, err
	}
	return created, nil
}

// UpdateRegulation rewrites an existing library entry.
func (r *Repository) UpdateRegulation(ctx context.Context, reg Regulation) (Regulation, error) {
	updated, err := scanRegulation(r.pool.QueryRow(ctx,
		`UPDATE regulations
		 SET title = $2, authority = $3, category = $4, summary = $5, effective_date = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+regulationColumns,
		reg.ID, reg.Title, reg.Authority, reg.Category, reg.Summary, reg.EffectiveDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Regulation{}, httpx.ErrNotFound
		}
		return Regulation{}, err
	}
	return updated, nil
}
