package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// RepositoryPort abstracts persistence for the service layer.
type RepositoryPort interface {
	ListTasks(ctx context.Context, filter ListFilter) ([]Task, error)
	GetTask(ctx context.Context, id int64) (Task, error)
	CreateTask(ctx context.Context, t Task) (Task, error)
	UpdateTask(ctx context.Context, t Task) (Task, error)
	SetStatus(ctx context.Context, id int64, status string) (Task, error)
	Assign(ctx context.Context, id int64, assigneeID *int64) (Task, error)
	ListDueSoon(ctx context.Context, window time.Duration) ([]Task, error)
}

// Notifier receives task events worth telling people about. Assignment
// notifications are fire-and-forget: a broker hiccup must not fail the
// mutation itself.
type Notifier interface {
	TaskAssigned(ctx context.Context, task Task, assigneeID int64) error
}

// InvalidTransitionError reports a status move outside the workflow.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("tasks: cannot move %s to %s", e.From, e.To)
}

// Service holds task workflow rules.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	notifier Notifier
	audit    *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo RepositoryPort, notifier Notifier, audit *shared.AuditLogger) *Service {
	return &Service{logger: logger, repo: repo, notifier: notifier, audit: audit}
}

// List returns tasks matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	if filter.ProjectID <= 0 {
		return nil, httpx.ErrValidation
	}
	if filter.Status != "" && filter.Status != StatusOpen && filter.Status != StatusInReview && filter.Status != StatusDone {
		return nil, httpx.ErrValidation
	}
	return s.repo.ListTasks(ctx, filter)
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id int64) (Task, error) {
	return s.repo.GetTask(ctx, id)
}

// Create opens a new task, notifying the assignee when one is set up front.
func (s *Service) Create(ctx context.Context, t Task) (Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.ProjectID <= 0 || t.Title == "" {
		return Task{}, httpx.ErrValidation
	}
	created, err := s.repo.CreateTask(ctx, t)
	if err != nil {
		return Task{}, err
	}
	if created.AssigneeID != nil {
		s.notifyAssigned(ctx, created, *created.AssigneeID)
	}
	return created, nil
}

// Update rewrites title, description and due date.
func (s *Service) Update(ctx context.Context, t Task) (Task, error) {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return Task{}, httpx.ErrValidation
	}
	return s.repo.UpdateTask(ctx, t)
}

// Move transitions a task along the workflow and audits the move.
func (s *Service) Move(ctx context.Context, actorID, id int64, to string) (Task, error) {
	current, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !CanTransition(current.Status, to) {
		return Task{}, &InvalidTransitionError{From: current.Status, To: to}
	}
	moved, err := s.repo.SetStatus(ctx, id, to)
	if err != nil {
		return Task{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   shared.AuditTaskMoved,
			Entity:   "task",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"from": current.Status, "to": to},
		})
	}
	return moved, nil
}

// Assign sets or clears the task assignee and notifies a new assignee.
func (s *Service) Assign(ctx context.Context, id int64, assigneeID *int64) (Task, error) {
	task, err := s.repo.Assign(ctx, id, assigneeID)
	if err != nil {
		return Task{}, err
	}
	if assigneeID != nil {
		s.notifyAssigned(ctx, task, *assigneeID)
	}
	return task, nil
}

// DueSoon lists unfinished assigned tasks due inside the window.
func (s *Service) DueSoon(ctx context.Context, window time.Duration) ([]Task, error) {
	if window <= 0 {
		return nil, httpx.ErrValidation
	}
	return s.repo.ListDueSoon(ctx, window)
}

func (s *Service) notifyAssigned(ctx context.Context, task Task, assigneeID int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.TaskAssigned(ctx, task, assigneeID); err != nil {
		s.logger.Warn("task assignment notification failed",
			slog.Int64("task_id", task.ID),
			slog.Int64("assignee_id", assigneeID),
			slog.Any("error", err))
	}
}
