package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-grc/meridian-grc/internal/tasks"
	"github.com/meridian-grc/meridian-grc/internal/users"
	"github.com/meridian-grc/meridian-grc/jobs"
)

// Enqueuer submits outgoing mail to the job queue.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Directory resolves user IDs to accounts.
type Directory interface {
	GetUser(ctx context.Context, id int64) (users.User, error)
}

// Service turns domain events into queued emails. It satisfies
// tasks.Notifier.
type Service struct {
	logger    *slog.Logger
	enqueuer  Enqueuer
	directory Directory
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, enqueuer Enqueuer, directory Directory) *Service {
	return &Service{logger: logger, enqueuer: enqueuer, directory: directory}
}

var _ tasks.Notifier = (*Service)(nil)

// TaskAssigned emails the assignee about new work. Inactive accounts are
// silently skipped.
func (s *Service) TaskAssigned(ctx context.Context, task tasks.Task, assigneeID int64) error {
	assignee, err := s.directory.GetUser(ctx, assigneeID)
	if err != nil {
		return fmt.Errorf("notifications: resolve assignee %d: %w", assigneeID, err)
	}
	if !assignee.IsActive || assignee.Email == "" {
		s.logger.Debug("assignment notification skipped",
			slog.Int64("assignee_id", assigneeID),
			slog.Bool("active", assignee.IsActive))
		return nil
	}
	body := fmt.Sprintf("Hi %s,\n\nYou have been assigned the compliance task %q.", assignee.Name, task.Title)
	if task.DueDate != nil {
		body += fmt.Sprintf(" It is due on %s.", task.DueDate.Format("Monday, 2 January 2006"))
	}
	body += "\n"
	_, err = s.enqueuer.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      assignee.Email,
		Subject: fmt.Sprintf("Task assigned: %s", task.Title),
		Body:    body,
	})
	if err != nil {
		return fmt.Errorf("notifications: enqueue assignment email: %w", err)
	}
	return nil
}
