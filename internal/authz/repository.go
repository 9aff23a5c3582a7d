package authz

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// Repository provides PostgreSQL backed persistence for role assignments.
// The resolver core only reads; the grant/revoke mutations exist for the
// administration surface and are audited.
type Repository struct {
	pool  *pgxpool.Pool
	audit *shared.AuditLogger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, audit *shared.AuditLogger) *Repository {
	return &Repository{pool: pool, audit: audit}
}

var _ AssignmentStore = (*Repository)(nil)

// ListAssignments returns the actor's assignments at one scope.
func (r *Repository) ListAssignments(ctx context.Context, actorID int64, scope Scope, projectID *int64) ([]RoleAssignment, error) {
	const base = `SELECT actor_id, role_code, scope, project_id FROM role_assignments WHERE actor_id = $1 AND scope = $2`

	var (
		rows pgx.Rows
		err  error
	)
	if projectID != nil {
		rows, err = r.pool.Query(ctx, base+` AND project_id = $3 ORDER BY role_code`, actorID, string(scope), *projectID)
	} else {
		rows, err = r.pool.Query(ctx, base+` AND project_id IS NULL ORDER BY role_code`, actorID, string(scope))
	}
	if err != nil {
		return nil, fmt.Errorf("authz: list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []RoleAssignment
	for rows.Next() {
		var a RoleAssignment
		var rawScope string
		if err := rows.Scan(&a.ActorID, &a.RoleCode, &rawScope, &a.ProjectID); err != nil {
			return nil, fmt.Errorf("authz: scan assignment: %w", err)
		}
		a.Scope = Scope(rawScope)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("authz: list assignments: %w", err)
	}
	return assignments, nil
}

// Grant persists an assignment. Granting an already-held role is a no-op.
func (r *Repository) Grant(ctx context.Context, grantedBy int64, a RoleAssignment) error {
	if err := validateAssignment(a); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO role_assignments (actor_id, role_code, scope, project_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT DO NOTHING`,
		a.ActorID, a.RoleCode, string(a.Scope), a.ProjectID)
	if err != nil {
		return fmt.Errorf("authz: grant: %w", err)
	}
	if tag.RowsAffected() > 0 && r.audit != nil {
		_ = r.audit.Record(ctx, shared.AuditLog{
			ActorID:  grantedBy,
			Action:   shared.AuditRoleGranted,
			Entity:   "role_assignment",
			EntityID: strconv.FormatInt(a.ActorID, 10),
			Meta:     assignmentMeta(a),
		})
	}
	return nil
}

// Revoke removes an assignment. Revoking a role the actor does not hold
// returns shared.ErrNotFound.
func (r *Repository) Revoke(ctx context.Context, revokedBy int64, a RoleAssignment) error {
	if err := validateAssignment(a); err != nil {
		return err
	}
	var (
		tag pgconn.CommandTag
		err error
	)
	if a.ProjectID != nil {
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM role_assignments WHERE actor_id = $1 AND role_code = $2 AND scope = $3 AND project_id = $4`,
			a.ActorID, a.RoleCode, string(a.Scope), *a.ProjectID)
	} else {
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM role_assignments WHERE actor_id = $1 AND role_code = $2 AND scope = $3 AND project_id IS NULL`,
			a.ActorID, a.RoleCode, string(a.Scope))
	}
	if err != nil {
		return fmt.Errorf("authz: revoke: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	if r.audit != nil {
		_ = r.audit.Record(ctx, shared.AuditLog{
			ActorID:  revokedBy,
			Action:   shared.AuditRoleRevoked,
			Entity:   "role_assignment",
			EntityID: strconv.FormatInt(a.ActorID, 10),
			Meta:     assignmentMeta(a),
		})
	}
	return nil
}

func validateAssignment(a RoleAssignment) error {
	switch a.Scope {
	case ScopeOrganization:
		if a.ProjectID != nil {
			return errors.New("authz: organization assignment must not carry a project")
		}
	case ScopeProject:
		if a.ProjectID == nil {
			return errors.New("authz: project assignment requires a project")
		}
	default:
		return fmt.Errorf("authz: invalid scope %q", a.Scope)
	}
	return nil
}

func assignmentMeta(a RoleAssignment) map[string]any {
	meta := map[string]any{
		"role_code": a.RoleCode,
		"scope":     string(a.Scope),
	}
	if a.ProjectID != nil {
		meta["project_id"] = *a.ProjectID
	}
	return meta
}
