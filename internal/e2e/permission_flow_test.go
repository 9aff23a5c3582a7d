package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-grc/meridian-grc/internal/app"
	"github.com/meridian-grc/meridian-grc/internal/auth"
	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/shared"
	_ "github.com/meridian-grc/meridian-grc/internal/testing/guard"
)

// The flow tests drive the assembled router through a real HTTP server:
// session cookies, CSRF verification and permission guards all active.

type authRepo struct {
	user *auth.User
}

func (r *authRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return r.user, nil
}

func (r *authRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (r *authRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type assignmentStore struct {
	orgRoles map[int64][]string
}

func (s *assignmentStore) ListAssignments(ctx context.Context, actorID int64, scope authz.Scope, projectID *int64) ([]authz.RoleAssignment, error) {
	if scope != authz.ScopeOrganization {
		return nil, nil
	}
	var out []authz.RoleAssignment
	for _, code := range s.orgRoles[actorID] {
		out = append(out, authz.RoleAssignment{ActorID: actorID, RoleCode: code, Scope: scope})
	}
	return out, nil
}

func newTestServer(t *testing.T, orgRoles map[int64][]string) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &app.Config{AppEnv: "test", AppRequestTimeout: 10 * time.Second}
	sessionManager := shared.NewSessionManager(redisClient, "e2e_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")

	hash, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.DefaultCost)
	require.NoError(t, err)
	authHandler := auth.NewHandler(logger, auth.NewService(&authRepo{user: &auth.User{
		ID:           1,
		Email:        "admin@test.local",
		Name:         "Admin",
		PasswordHash: string(hash),
		IsActive:     true,
	}}), sessionManager, csrfManager)

	authzService := authz.NewService(authz.DefaultCatalog(), &assignmentStore{orgRoles: orgRoles}, logger)
	guard := authz.Middleware{Service: authzService, Logger: logger}
	authzHandler := authz.NewHandler(logger, authzService, nil, guard)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Guard:          guard,
		AuthHandler:    authHandler,
		AuthzHandler:   authzHandler,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// login walks the session bootstrap: fetch a CSRF token, then post
// credentials with the token attached.
func login(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()

	res, err := client.Get(baseURL + "/auth/session")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	var bootstrap struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&bootstrap))
	require.NotEmpty(t, bootstrap.CSRFToken)

	body, err := json.Marshal(map[string]string{"email": "admin@test.local", "password": "correcthorse"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/auth/login", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(shared.CSRFHeader, bootstrap.CSRFToken)

	loginRes, err := client.Do(req)
	require.NoError(t, err)
	defer loginRes.Body.Close()
	require.Equal(t, http.StatusOK, loginRes.StatusCode)

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	require.NoError(t, json.NewDecoder(loginRes.Body).Decode(&payload))
	require.NotEmpty(t, payload.CSRFToken)
	return payload.CSRFToken
}

func TestLoginThenEffectivePermissions(t *testing.T) {
	server := newTestServer(t, map[int64][]string{1: {"admin"}})
	client := newClient(t)
	login(t, client, server.URL)

	res, err := client.Get(server.URL + "/authz/effective")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var effective struct {
		OrganizationRoles []struct {
			Code               string   `json:"code"`
			Scope              string   `json:"scope"`
			GrantedPermissions []string `json:"grantedPermissions"`
		} `json:"organizationRoles"`
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&effective))
	require.Len(t, effective.OrganizationRoles, 1)
	assert.Equal(t, "admin", effective.OrganizationRoles[0].Code)
	assert.Equal(t, string(authz.ScopeOrganization), effective.OrganizationRoles[0].Scope)
	assert.Contains(t, effective.Permissions, authz.PermManageUsers)
}

func TestPreviewRequiresCSRF(t *testing.T) {
	server := newTestServer(t, map[int64][]string{1: {"admin"}})
	client := newClient(t)
	login(t, client, server.URL)

	body, err := json.Marshal(map[string]any{"actorId": 2, "organizationRoleCodes": []string{"viewer"}})
	require.NoError(t, err)
	res, err := client.Post(server.URL+"/authz/preview", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestPreviewWithCSRF(t *testing.T) {
	server := newTestServer(t, map[int64][]string{1: {"admin"}})
	client := newClient(t)
	token := login(t, client, server.URL)

	body, err := json.Marshal(map[string]any{"actorId": 2, "organizationRoleCodes": []string{"viewer"}})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, server.URL+"/authz/preview", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(shared.CSRFHeader, token)

	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var preview struct {
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&preview))
	assert.Contains(t, preview.Permissions, authz.PermViewRegulations)
}

func TestEffectiveRequiresSession(t *testing.T) {
	server := newTestServer(t, map[int64][]string{})
	client := newClient(t)

	res, err := client.Get(server.URL + "/authz/effective")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestPreviewForbiddenWithoutManageUsers(t *testing.T) {
	server := newTestServer(t, map[int64][]string{1: {"viewer"}})
	client := newClient(t)
	token := login(t, client, server.URL)

	body, err := json.Marshal(map[string]any{"actorId": 2, "organizationRoleCodes": []string{"viewer"}})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, server.URL+"/authz/preview", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(shared.CSRFHeader, token)

	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
