package projects

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

type stubRepository struct {
	projects map[int64]Project
	nextID   int64
}

func newStubRepository(existing ...Project) *stubRepository {
	repo := &stubRepository{projects: make(map[int64]Project), nextID: 1}
	for _, p := range existing {
		repo.projects[p.ID] = p
		if p.ID >= repo.nextID {
			repo.nextID = p.ID + 1
		}
	}
	return repo
}

func (s *stubRepository) ListProjects(ctx context.Context, status string) ([]Project, error) {
	var out []Project
	for _, p := range s.projects {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepository) GetProject(ctx context.Context, id int64) (Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return Project{}, httpx.ErrNotFound
	}
	return p, nil
}

func (s *stubRepository) CreateProject(ctx context.Context, p Project) (Project, error) {
	for _, existing := range s.projects {
		if existing.Code == p.Code {
			return Project{}, httpx.ErrDuplicate
		}
	}
	p.ID = s.nextID
	p.Status = StatusActive
	s.projects[p.ID] = p
	s.nextID++
	return p, nil
}

func (s *stubRepository) UpdateProject(ctx context.Context, p Project) (Project, error) {
	existing, ok := s.projects[p.ID]
	if !ok {
		return Project{}, httpx.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	existing.LeadID = p.LeadID
	s.projects[p.ID] = existing
	return existing, nil
}

func (s *stubRepository) SetStatus(ctx context.Context, id int64, status string) error {
	p, ok := s.projects[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.Status = status
	s.projects[id] = p
	return nil
}

func TestCreateNormalisesCode(t *testing.T) {
	repo := newStubRepository()
	service := NewService(repo, nil)

	created, err := service.Create(context.Background(), 1, Project{Code: " gdpr-2026 ", Name: " GDPR Readiness "})
	require.NoError(t, err)

	assert.Equal(t, "GDPR-2026", created.Code)
	assert.Equal(t, "GDPR Readiness", created.Name)
	assert.Equal(t, StatusActive, created.Status)
}

func TestCreateRejectsEmptyFields(t *testing.T) {
	service := NewService(newStubRepository(), nil)

	_, err := service.Create(context.Background(), 1, Project{Code: "X", Name: "   "})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateDuplicateCode(t *testing.T) {
	repo := newStubRepository(Project{ID: 1, Code: "GDPR-2026", Name: "Existing", Status: StatusActive})
	service := NewService(repo, nil)

	_, err := service.Create(context.Background(), 1, Project{Code: "gdpr-2026", Name: "Another"})
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	service := NewService(newStubRepository(), nil)

	_, err := service.List(context.Background(), "draft")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestArchiveAndRestore(t *testing.T) {
	repo := newStubRepository(Project{ID: 4, Code: "ISO-27001", Name: "ISO Audit", Status: StatusActive})
	service := NewService(repo, nil)

	require.NoError(t, service.Archive(context.Background(), 1, 4))
	archived, err := service.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Status)

	require.NoError(t, service.Restore(context.Background(), 4))
	restored, err := service.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, restored.Status)
}

func TestArchiveUnknownProject(t *testing.T) {
	service := NewService(newStubRepository(), nil)

	err := service.Archive(context.Background(), 1, 99)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}
