package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, name, passwordHash string) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// AssignmentPort covers the role-assignment mutations used by the admin
// surface. The resolver core only ever reads.
type AssignmentPort interface {
	Grant(ctx context.Context, grantedBy int64, a authz.RoleAssignment) error
	Revoke(ctx context.Context, revokedBy int64, a authz.RoleAssignment) error
}

// Service handles user management business logic.
type Service struct {
	repo        RepositoryPort
	assignments AssignmentPort
	catalog     *authz.Catalog
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, assignments AssignmentPort, catalog *authz.Catalog) *Service {
	return &Service{repo: repo, assignments: assignments, catalog: catalog}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUser fetches one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// CreateUser registers a new account with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, email, name, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return User{}, httpx.ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.repo.CreateUser(ctx, email, name, string(hash))
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.repo.SetActive(ctx, id, active)
}

// GrantRole assigns a role to a user after checking the catalog: unknown
// role codes must fail loudly here, before anything is persisted.
func (s *Service) GrantRole(ctx context.Context, grantedBy int64, a authz.RoleAssignment) error {
	if _, err := s.catalog.RoleByCode(a.Scope, a.RoleCode); err != nil {
		return err
	}
	if _, err := s.repo.GetUser(ctx, a.ActorID); err != nil {
		return err
	}
	return s.assignments.Grant(ctx, grantedBy, a)
}

// RevokeRole removes a role from a user.
func (s *Service) RevokeRole(ctx context.Context, revokedBy int64, a authz.RoleAssignment) error {
	if _, err := s.catalog.RoleByCode(a.Scope, a.RoleCode); err != nil {
		return err
	}
	return s.assignments.Revoke(ctx, revokedBy, a)
}
