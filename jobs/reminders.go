package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-grc/meridian-grc/internal/jobs"
	"github.com/meridian-grc/meridian-grc/internal/tasks"
	"github.com/meridian-grc/meridian-grc/internal/users"
)

// TaskSource yields tasks approaching their due date.
type TaskSource interface {
	DueSoon(ctx context.Context, window time.Duration) ([]tasks.Task, error)
}

// Directory resolves assignee IDs to user records.
type Directory interface {
	GetUser(ctx context.Context, id int64) (users.User, error)
}

// EmailEnqueuer submits outgoing mail to the queue.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// DueReminderJob scans for assigned tasks due inside the reminder window
// and queues one email per task. Runs nightly from the scheduler.
type DueReminderJob struct {
	Tasks     TaskSource
	Directory Directory
	Enqueuer  EmailEnqueuer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Window    time.Duration
}

// NewDueReminderJob wires dependencies for the reminder handler.
func NewDueReminderJob(source TaskSource, directory Directory, enqueuer EmailEnqueuer, logger *slog.Logger, metrics *jobmetrics.Metrics, window time.Duration) *DueReminderJob {
	return &DueReminderJob{
		Tasks:     source,
		Directory: directory,
		Enqueuer:  enqueuer,
		Logger:    logger,
		Metrics:   metrics,
		Window:    window,
	}
}

// Handle processes one reminder scan.
func (j *DueReminderJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Tasks == nil || j.Directory == nil || j.Enqueuer == nil {
		return errors.New("due reminders: handler not configured")
	}
	window := j.Window
	if window <= 0 {
		window = 48 * time.Hour
	}

	tracker := j.Metrics.Track(TaskTypeDueReminders)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	due, err := j.Tasks.DueSoon(ctx, window)
	if err != nil {
		resultErr = fmt.Errorf("due reminders: scan: %w", err)
		return resultErr
	}

	sent := 0
	skipped := 0
	for _, task := range due {
		if task.AssigneeID == nil || task.DueDate == nil {
			continue
		}
		assignee, err := j.Directory.GetUser(ctx, *task.AssigneeID)
		if err != nil || !assignee.IsActive || assignee.Email == "" {
			skipped++
			continue
		}
		payload := SendEmailPayload{
			To:      assignee.Email,
			Subject: fmt.Sprintf("Reminder: %q is due %s", task.Title, task.DueDate.Format("2 Jan 2006")),
			Body: fmt.Sprintf("Hi %s,\n\nThe compliance task %q is due on %s. Please finish it or move it to review before the deadline.\n",
				assignee.Name, task.Title, task.DueDate.Format("Monday, 2 January 2006")),
		}
		if _, err := j.Enqueuer.EnqueueSendEmail(ctx, payload); err != nil {
			skipped++
			j.logger().Warn("reminder enqueue failed",
				slog.Int64("task_id", task.ID),
				slog.Any("error", err))
			continue
		}
		sent++
	}

	j.Metrics.AddReminders("sent", sent)
	j.Metrics.AddReminders("skipped", skipped)
	j.logger().Info("due reminder scan complete",
		slog.Int("due", len(due)),
		slog.Int("sent", sent),
		slog.Int("skipped", skipped))
	return nil
}

func (j *DueReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
