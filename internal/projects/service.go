package projects

import (
	"context"
	"strconv"
	"strings"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	ListProjects(ctx context.Context, status string) ([]Project, error)
	GetProject(ctx context.Context, id int64) (Project, error)
	CreateProject(ctx context.Context, p Project) (Project, error)
	UpdateProject(ctx context.Context, p Project) (Project, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// Service holds project business rules.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns projects, optionally narrowed to one status.
func (s *Service) List(ctx context.Context, status string) ([]Project, error) {
	if status != "" && status != StatusActive && status != StatusArchived {
		return nil, httpx.ErrValidation
	}
	return s.repo.ListProjects(ctx, status)
}

// Get fetches one project.
func (s *Service) Get(ctx context.Context, id int64) (Project, error) {
	return s.repo.GetProject(ctx, id)
}

// Create registers a new project in active status.
func (s *Service) Create(ctx context.Context, actorID int64, p Project) (Project, error) {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.Name = strings.TrimSpace(p.Name)
	if p.Code == "" || p.Name == "" {
		return Project{}, httpx.ErrValidation
	}
	created, err := s.repo.CreateProject(ctx, p)
	if err != nil {
		return Project{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditProjectCreated,
			Entity:   "project",
			EntityID: strconv.FormatInt(created.ID, 10),
			Meta:     map[string]any{"code": created.Code},
		})
	}
	return created, nil
}

// Update rewrites a project's mutable fields.
func (s *Service) Update(ctx context.Context, p Project) (Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Project{}, httpx.ErrValidation
	}
	return s.repo.UpdateProject(ctx, p)
}

// Archive retires a project. Archived projects stay readable.
func (s *Service) Archive(ctx context.Context, actorID, id int64) error {
	if err := s.repo.SetStatus(ctx, id, StatusArchived); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditProjectArchived,
			Entity:   "project",
			EntityID: strconv.FormatInt(id, 10),
		})
	}
	return nil
}

// Restore moves an archived project back to active.
func (s *Service) Restore(ctx context.Context, id int64) error {
	return s.repo.SetStatus(ctx, id, StatusActive)
}
