package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WindowParams menentukan jendela query timeline.
type WindowParams struct {
	From       time.Time
	To         time.Time
	ActorID    int64
	Entity     string
	Action     string
	OffsetRows int
	LimitRows  int
}

// Repository menyediakan akses baca ke tabel audit_logs.
type Repository interface {
	TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error)
}

// PGRepository membaca audit_logs melalui pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository membuat repository audit baru.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// TimelineWindow mengambil satu jendela baris audit, terbaru lebih dulu.
func (r *PGRepository) TimelineWindow(ctx context.Context, arg WindowParams) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT occurred_at, actor_id, action, entity, entity_id, meta
		 FROM audit_logs
		 WHERE occurred_at >= $1 AND occurred_at < $2
		   AND ($3 = 0 OR actor_id = $3)
		   AND ($4 = '' OR entity = $4)
		   AND ($5 = '' OR action = $5)
		 ORDER BY occurred_at DESC, id DESC
		 OFFSET $6 LIMIT $7`,
		arg.From, arg.To, arg.ActorID, arg.Entity, arg.Action, arg.OffsetRows, arg.LimitRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var meta []byte
		if err := rows.Scan(&row.At, &row.ActorID, &row.Action, &row.Entity, &row.EntityID, &meta); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &row.Meta)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
