package evidence

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	ListByTask(ctx context.Context, taskID int64) ([]Evidence, error)
	Get(ctx context.Context, id string) (Evidence, error)
	Create(ctx context.Context, e Evidence) (Evidence, error)
	Delete(ctx context.Context, id string) error
}

// TaskChecker verifies the target task exists before evidence is attached.
type TaskChecker interface {
	TaskExists(ctx context.Context, taskID int64) (bool, error)
}

var sha256Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Service holds evidence metadata rules.
type Service struct {
	repo  RepositoryPort
	tasks TaskChecker
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, tasks TaskChecker, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, tasks: tasks, audit: audit}
}

// ListByTask returns evidence attached to a task.
func (s *Service) ListByTask(ctx context.Context, taskID int64) ([]Evidence, error) {
	if taskID <= 0 {
		return nil, httpx.ErrValidation
	}
	return s.repo.ListByTask(ctx, taskID)
}

// Get fetches one evidence record.
func (s *Service) Get(ctx context.Context, id string) (Evidence, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Evidence{}, httpx.ErrValidation
	}
	return s.repo.Get(ctx, id)
}

// Attach records evidence metadata against a task and audits the upload.
func (s *Service) Attach(ctx context.Context, actorID int64, e Evidence) (Evidence, error) {
	e.FileName = strings.TrimSpace(e.FileName)
	e.SHA256 = strings.ToLower(strings.TrimSpace(e.SHA256))
	if e.TaskID <= 0 || e.FileName == "" || e.SizeBytes <= 0 {
		return Evidence{}, httpx.ErrValidation
	}
	if !sha256Pattern.MatchString(e.SHA256) {
		return Evidence{}, httpx.ErrValidation
	}
	exists, err := s.tasks.TaskExists(ctx, e.TaskID)
	if err != nil {
		return Evidence{}, err
	}
	if !exists {
		return Evidence{}, httpx.ErrNotFound
	}
	e.ID = uuid.NewString()
	e.UploadedBy = actorID
	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return Evidence{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditEvidenceAdd,
			Entity:   "evidence",
			EntityID: created.ID,
			Meta:     map[string]any{"task_id": created.TaskID, "sha256": created.SHA256},
		})
	}
	return created, nil
}

// Remove deletes an evidence record and audits the removal.
func (s *Service) Remove(ctx context.Context, actorID int64, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return httpx.ErrValidation
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditEvidenceDrop,
			Entity:   "evidence",
			EntityID: id,
		})
	}
	return nil
}
