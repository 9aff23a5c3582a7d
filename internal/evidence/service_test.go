package evidence

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

type stubRepository struct {
	records map[string]Evidence
}

func newStubRepository() *stubRepository {
	return &stubRepository{records: make(map[string]Evidence)}
}

func (s *stubRepository) ListByTask(ctx context.Context, taskID int64) ([]Evidence, error) {
	var out []Evidence
	for _, e := range s.records {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubRepository) Get(ctx context.Context, id string) (Evidence, error) {
	e, ok := s.records[id]
	if !ok {
		return Evidence{}, httpx.ErrNotFound
	}
	return e, nil
}

func (s *stubRepository) Create(ctx context.Context, e Evidence) (Evidence, error) {
	for _, existing := range s.records {
		if existing.TaskID == e.TaskID && existing.SHA256 == e.SHA256 {
			return Evidence{}, httpx.ErrDuplicate
		}
	}
	s.records[e.ID] = e
	return e, nil
}

func (s *stubRepository) Delete(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

type stubTasks struct {
	existing map[int64]bool
}

func (s *stubTasks) TaskExists(ctx context.Context, taskID int64) (bool, error) {
	return s.existing[taskID], nil
}

func validEvidence(taskID int64) Evidence {
	return Evidence{
		TaskID:      taskID,
		FileName:    "dpa-signed.pdf",
		ContentType: "application/pdf",
		SizeBytes:   204800,
		SHA256:      strings.Repeat("ab", 32),
	}
}

func newTestService(repo *stubRepository, taskIDs ...int64) *Service {
	existing := make(map[int64]bool)
	for _, id := range taskIDs {
		existing[id] = true
	}
	return NewService(repo, &stubTasks{existing: existing}, nil)
}

func TestAttachAssignsUUID(t *testing.T) {
	repo := newStubRepository()
	service := newTestService(repo, 1)

	created, err := service.Attach(context.Background(), 7, validEvidence(1))
	require.NoError(t, err)

	_, err = uuid.Parse(created.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), created.UploadedBy)
}

func TestAttachRejectsMissingTask(t *testing.T) {
	service := newTestService(newStubRepository())

	_, err := service.Attach(context.Background(), 7, validEvidence(99))
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestAttachNormalisesChecksum(t *testing.T) {
	repo := newStubRepository()
	service := newTestService(repo, 1)

	e := validEvidence(1)
	e.SHA256 = strings.ToUpper(e.SHA256)
	created, err := service.Attach(context.Background(), 7, e)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 32), created.SHA256)
}

func TestAttachRejectsBadChecksum(t *testing.T) {
	service := newTestService(newStubRepository(), 1)

	e := validEvidence(1)
	e.SHA256 = "not-a-checksum"
	_, err := service.Attach(context.Background(), 7, e)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAttachDuplicateChecksumSameTask(t *testing.T) {
	repo := newStubRepository()
	service := newTestService(repo, 1)

	_, err := service.Attach(context.Background(), 7, validEvidence(1))
	require.NoError(t, err)
	_, err = service.Attach(context.Background(), 7, validEvidence(1))
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestRemoveValidatesID(t *testing.T) {
	service := newTestService(newStubRepository())

	err := service.Remove(context.Background(), 7, "nonsense")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestRemoveDeletesRecord(t *testing.T) {
	repo := newStubRepository()
	service := newTestService(repo, 1)

	created, err := service.Attach(context.Background(), 7, validEvidence(1))
	require.NoError(t, err)

	require.NoError(t, service.Remove(context.Background(), 7, created.ID))
	_, err = service.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
