package authz

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-grc/meridian-grc/internal/shared"
)

type stubRecorder struct {
	modes []string
}

func (r *stubRecorder) ObserveResolution(mode string) {
	r.modes = append(r.modes, mode)
}

func newTestRouter(t *testing.T, store AssignmentStore, recorder ResolutionRecorder) chi.Router {
	t.Helper()
	service := NewService(DefaultCatalog(), store, nil)
	guard := Middleware{Service: service}
	handler := NewHandler(nil, service, recorder, guard)
	router := chi.NewRouter()
	router.Route("/authz", handler.MountRoutes)
	return router
}

func adminStore() *stubStore {
	return &stubStore{
		org: []RoleAssignment{{ActorID: 1, RoleCode: "admin", Scope: ScopeOrganization}},
	}
}

func withSession(r *http.Request, userID string) *http.Request {
	sess := &shared.Session{ID: "test-session"}
	if userID != "" {
		sess.SetUser(userID)
	}
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

func doPreview(t *testing.T, router chi.Router, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/authz/preview", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req = withSession(req, "1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestPreviewEndpoint(t *testing.T) {
	recorder := &stubRecorder{}
	router := newTestRouter(t, adminStore(), recorder)

	res := doPreview(t, router, map[string]any{
		"actorId":               7,
		"organizationRoleCodes": []string{"officer"},
		"projectId":             3,
		"projectRoleCodes":      []string{"collaborator"},
	})
	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		OrganizationRoles []roleSummary     `json:"organizationRoles"`
		ProjectRoles      []roleSummary     `json:"projectRoles"`
		Permissions       []string          `json:"permissions"`
		PermissionSources map[string]string `json:"permissionSources"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))

	assert.Equal(t, []string{"officer"}, summaryCodes(payload.OrganizationRoles))
	assert.Equal(t, []string{"collaborator"}, summaryCodes(payload.ProjectRoles))
	assert.Contains(t, payload.Permissions, PermUploadEvidence)
	assert.Equal(t, string(ScopeOrganization), payload.PermissionSources[PermUploadEvidence])
	assert.Equal(t, []string{"preview"}, recorder.modes)
}

func TestPreviewUnknownRoleIsUnprocessable(t *testing.T) {
	router := newTestRouter(t, adminStore(), nil)

	res := doPreview(t, router, map[string]any{
		"actorId":               7,
		"organizationRoleCodes": []string{"ghost"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestPreviewNormalizesStrayProjectRoles(t *testing.T) {
	router := newTestRouter(t, adminStore(), nil)

	stray := doPreview(t, router, map[string]any{
		"actorId":               7,
		"organizationRoleCodes": []string{"user"},
		"projectRoleCodes":      []string{"collaborator"},
	})
	clean := doPreview(t, router, map[string]any{
		"actorId":               7,
		"organizationRoleCodes": []string{"user"},
		"projectRoleCodes":      []string{},
	})

	require.Equal(t, http.StatusOK, stray.Code)
	require.Equal(t, http.StatusOK, clean.Code)
	assert.JSONEq(t, clean.Body.String(), stray.Body.String())
}

func TestPreviewRejectsInvalidBody(t *testing.T) {
	router := newTestRouter(t, adminStore(), nil)

	res := doPreview(t, router, map[string]any{
		"organizationRoleCodes": []string{"user"},
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestPreviewRequiresManageUsers(t *testing.T) {
	store := &stubStore{
		org: []RoleAssignment{{ActorID: 1, RoleCode: "viewer", Scope: ScopeOrganization}},
	}
	router := newTestRouter(t, store, nil)

	res := doPreview(t, router, map[string]any{
		"actorId":               7,
		"organizationRoleCodes": []string{"user"},
	})
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestEffectiveSelf(t *testing.T) {
	recorder := &stubRecorder{}
	router := newTestRouter(t, adminStore(), recorder)

	req := withSession(httptest.NewRequest(http.MethodGet, "/authz/effective", nil), "1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var payload struct {
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Contains(t, payload.Permissions, PermManageUsers)
	assert.Equal(t, []string{"saved"}, recorder.modes)
}

func TestEffectiveSelfWithoutSession(t *testing.T) {
	router := newTestRouter(t, adminStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/authz/effective", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestEffectiveActorStoreUnavailable(t *testing.T) {
	store := adminStore()
	store.projectErr = assert.AnError
	router := newTestRouter(t, store, nil)

	req := withSession(httptest.NewRequest(http.MethodGet, "/authz/actors/7/effective?project_id=3", nil), "1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestListRolesFollowsCatalogOrder(t *testing.T) {
	router := newTestRouter(t, adminStore(), nil)

	req := withSession(httptest.NewRequest(http.MethodGet, "/authz/roles?scope=organization", nil), "1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var payload struct {
		Roles []roleSummary `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, []string{"admin", "officer", "user", "viewer"}, summaryCodes(payload.Roles))
}

func TestListRolesRejectsBadScope(t *testing.T) {
	router := newTestRouter(t, adminStore(), nil)

	req := withSession(httptest.NewRequest(http.MethodGet, "/authz/roles?scope=galaxy", nil), "1")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestListPermissionDescriptionsLocalized(t *testing.T) {
	router := newTestRouter(t, adminStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/authz/permissions?locale=id", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	var payload struct {
		Permissions map[string]string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.Equal(t, "Melihat pustaka regulasi", payload.Permissions[PermViewRegulations])
}

func summaryCodes(summaries []roleSummary) []string {
	codes := make([]string, 0, len(summaries))
	for _, s := range summaries {
		codes = append(codes, s.Code)
	}
	return codes
}
