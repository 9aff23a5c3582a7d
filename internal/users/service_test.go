package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

type mockRepository struct {
	users  map[int64]User
	nextID int64

	createErr error
}

func newMockRepository(existing ...User) *mockRepository {
	repo := &mockRepository{users: make(map[int64]User), nextID: 1}
	for _, u := range existing {
		repo.users[u.ID] = u
		if u.ID >= repo.nextID {
			repo.nextID = u.ID + 1
		}
	}
	return repo
}

func (m *mockRepository) ListUsers(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepository) GetUser(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) CreateUser(ctx context.Context, email, name, passwordHash string) (User, error) {
	if m.createErr != nil {
		return User{}, m.createErr
	}
	for _, u := range m.users {
		if u.Email == email {
			return User{}, httpx.ErrDuplicate
		}
	}
	u := User{ID: m.nextID, Email: email, Name: name, IsActive: true}
	m.users[u.ID] = u
	m.nextID++
	return u, nil
}

func (m *mockRepository) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return httpx.ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

type mockAssignments struct {
	granted []authz.RoleAssignment
	revoked []authz.RoleAssignment
}

func (m *mockAssignments) Grant(ctx context.Context, grantedBy int64, a authz.RoleAssignment) error {
	m.granted = append(m.granted, a)
	return nil
}

func (m *mockAssignments) Revoke(ctx context.Context, revokedBy int64, a authz.RoleAssignment) error {
	m.revoked = append(m.revoked, a)
	return nil
}

func newTestService(repo *mockRepository, assignments *mockAssignments) *Service {
	return NewService(repo, assignments, authz.DefaultCatalog())
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo, &mockAssignments{})

	user, err := service.CreateUser(context.Background(), "New@Example.COM", " Jane ", "longenoughpass")
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "Jane", user.Name)
}

func TestCreateUserRequiresFields(t *testing.T) {
	service := newTestService(newMockRepository(), &mockAssignments{})

	_, err := service.CreateUser(context.Background(), "", "Jane", "longenoughpass")
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newMockRepository(User{ID: 1, Email: "taken@example.com", Name: "Taken"})
	service := newTestService(repo, &mockAssignments{})

	_, err := service.CreateUser(context.Background(), "taken@example.com", "Jane", "longenoughpass")
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestGrantRoleChecksCatalogFirst(t *testing.T) {
	assignments := &mockAssignments{}
	repo := newMockRepository(User{ID: 7, Email: "u@example.com", Name: "U"})
	service := newTestService(repo, assignments)

	err := service.GrantRole(context.Background(), 1, authz.RoleAssignment{
		ActorID:  7,
		RoleCode: "ghost",
		Scope:    authz.ScopeOrganization,
	})
	var unknown *authz.UnknownRoleError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, assignments.granted)
}

func TestGrantRoleChecksUserExists(t *testing.T) {
	assignments := &mockAssignments{}
	service := newTestService(newMockRepository(), assignments)

	err := service.GrantRole(context.Background(), 1, authz.RoleAssignment{
		ActorID:  999,
		RoleCode: "viewer",
		Scope:    authz.ScopeOrganization,
	})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
	assert.Empty(t, assignments.granted)
}

func TestGrantAndRevokeRole(t *testing.T) {
	assignments := &mockAssignments{}
	repo := newMockRepository(User{ID: 7, Email: "u@example.com", Name: "U"})
	service := newTestService(repo, assignments)

	projectID := int64(3)
	grant := authz.RoleAssignment{ActorID: 7, RoleCode: "collaborator", Scope: authz.ScopeProject, ProjectID: &projectID}
	require.NoError(t, service.GrantRole(context.Background(), 1, grant))
	require.NoError(t, service.RevokeRole(context.Background(), 1, grant))

	assert.Equal(t, []authz.RoleAssignment{grant}, assignments.granted)
	assert.Equal(t, []authz.RoleAssignment{grant}, assignments.revoked)
}

func TestPasswordHashRoundTrips(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("longenoughpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("longenoughpass")))
}
