package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
	"github.com/meridian-grc/meridian-grc/internal/tasks"
	"github.com/meridian-grc/meridian-grc/internal/users"
	"github.com/meridian-grc/meridian-grc/jobs"
)

type stubEnqueuer struct {
	payloads []jobs.SendEmailPayload
	err      error
}

func (s *stubEnqueuer) EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.payloads = append(s.payloads, payload)
	return &asynq.TaskInfo{}, nil
}

type stubDirectory struct {
	users map[int64]users.User
}

func (s *stubDirectory) GetUser(ctx context.Context, id int64) (users.User, error) {
	u, ok := s.users[id]
	if !ok {
		return users.User{}, httpx.ErrNotFound
	}
	return u, nil
}

func newTestService(enqueuer *stubEnqueuer, directory *stubDirectory) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), enqueuer, directory)
}

func TestTaskAssignedQueuesEmail(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	directory := &stubDirectory{users: map[int64]users.User{
		5: {ID: 5, Email: "ana@example.com", Name: "Ana", IsActive: true},
	}}
	service := newTestService(enqueuer, directory)

	due := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	task := tasks.Task{ID: 1, Title: "Sign DPA", DueDate: &due}
	require.NoError(t, service.TaskAssigned(context.Background(), task, 5))

	require.Len(t, enqueuer.payloads, 1)
	payload := enqueuer.payloads[0]
	assert.Equal(t, "ana@example.com", payload.To)
	assert.Equal(t, "Task assigned: Sign DPA", payload.Subject)
	assert.Contains(t, payload.Body, "Ana")
	assert.Contains(t, payload.Body, "14 September 2026")
}

func TestTaskAssignedSkipsInactiveUser(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	directory := &stubDirectory{users: map[int64]users.User{
		5: {ID: 5, Email: "ana@example.com", Name: "Ana", IsActive: false},
	}}
	service := newTestService(enqueuer, directory)

	err := service.TaskAssigned(context.Background(), tasks.Task{ID: 1, Title: "Sign DPA"}, 5)
	assert.NoError(t, err)
	assert.Empty(t, enqueuer.payloads)
}

func TestTaskAssignedUnknownUser(t *testing.T) {
	service := newTestService(&stubEnqueuer{}, &stubDirectory{})

	err := service.TaskAssigned(context.Background(), tasks.Task{ID: 1, Title: "Sign DPA"}, 99)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestTaskAssignedEnqueueFailure(t *testing.T) {
	enqueuer := &stubEnqueuer{err: errors.New("redis down")}
	directory := &stubDirectory{users: map[int64]users.User{
		5: {ID: 5, Email: "ana@example.com", Name: "Ana", IsActive: true},
	}}
	service := newTestService(enqueuer, directory)

	err := service.TaskAssigned(context.Background(), tasks.Task{ID: 1, Title: "Sign DPA"}, 5)
	assert.Error(t, err)
}
