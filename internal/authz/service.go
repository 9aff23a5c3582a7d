package authz

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// AssignmentStore is the persisted-assignment collaborator. A nil projectID
// fetches organization-scope assignments; a non-nil one fetches the actor's
// roles inside that project.
type AssignmentStore interface {
	ListAssignments(ctx context.Context, actorID int64, scope Scope, projectID *int64) ([]RoleAssignment, error)
}

// PreviewInput carries a hypothetical, not-yet-saved role selection.
type PreviewInput struct {
	ActorID          int64
	OrgRoleCodes     []string
	ProjectID        *int64
	ProjectRoleCodes []string
}

// Service answers permission queries in two modes: Preview resolves an
// unsaved selection supplied by the caller, EffectivePermissions resolves
// whatever is currently persisted.
type Service struct {
	catalog *Catalog
	store   AssignmentStore
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(catalog *Catalog, store AssignmentStore, logger *slog.Logger) *Service {
	return &Service{catalog: catalog, store: store, logger: logger}
}

// Catalog exposes the role catalog backing this service.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// Preview resolves a hypothetical selection without touching the store.
// The actor ID is logging context only; the computation depends solely on
// the two role-code sets. Project role codes supplied without a project are
// dropped rather than rejected: the UI clears project context by switching
// to "all organization permissions", and that transition must not error.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (EffectivePermissionSet, error) {
	projectCodes := in.ProjectRoleCodes
	if in.ProjectID == nil && len(projectCodes) > 0 {
		if s.logger != nil {
			s.logger.Debug("preview without project, ignoring project roles",
				slog.Int64("actor_id", in.ActorID),
				slog.Int("dropped", len(projectCodes)))
		}
		projectCodes = nil
	}
	return s.catalog.Resolve(in.OrgRoleCodes, projectCodes)
}

// EffectivePermissions resolves the actor's persisted assignments,
// optionally narrowed to a project context. An actor with no assignments
// gets an empty set, which is a valid state, not an error. Store failures
// propagate unmasked: "no roles" and "couldn't find out" must stay distinct.
func (s *Service) EffectivePermissions(ctx context.Context, actorID int64, projectID *int64) (EffectivePermissionSet, error) {
	var orgAssignments, projectAssignments []RoleAssignment

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orgAssignments, err = s.store.ListAssignments(gctx, actorID, ScopeOrganization, nil)
		return err
	})
	if projectID != nil {
		g.Go(func() error {
			var err error
			projectAssignments, err = s.store.ListAssignments(gctx, actorID, ScopeProject, projectID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return EffectivePermissionSet{}, err
	}

	return s.catalog.Resolve(roleCodes(orgAssignments), roleCodes(projectAssignments))
}

func roleCodes(assignments []RoleAssignment) []string {
	if len(assignments) == 0 {
		return nil
	}
	codes := make([]string, 0, len(assignments))
	for _, a := range assignments {
		codes = append(codes, a.RoleCode)
	}
	return codes
}
