package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// ResolutionRecorder counts resolver invocations by mode (preview|saved).
type ResolutionRecorder interface {
	ObserveResolution(mode string)
}

// Handler exposes the permission resolution endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	recorder  ResolutionRecorder
	guard     Middleware
}

// NewHandler builds Handler instance. The recorder may be nil.
func NewHandler(logger *slog.Logger, service *Service, recorder ResolutionRecorder, guard Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
		recorder:  recorder,
		guard:     guard,
	}
}

// MountRoutes registers authorization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/effective", h.effectiveSelf)
	r.Get("/permissions", h.listPermissionDescriptions)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(PermManageUsers))
		r.Post("/preview", h.preview)
		r.Get("/roles", h.listRoles)
		r.Get("/actors/{actorID}/effective", h.effectiveActor)
	})
}

type previewRequest struct {
	ActorID               int64    `json:"actorId" validate:"required,gt=0"`
	OrganizationRoleCodes []string `json:"organizationRoleCodes"`
	ProjectID             *int64   `json:"projectId" validate:"omitempty,gt=0"`
	ProjectRoleCodes      []string `json:"projectRoleCodes"`
}

type roleSummary struct {
	Code               string   `json:"code"`
	Scope              Scope    `json:"scope"`
	GrantedPermissions []string `json:"grantedPermissions"`
}

type effectiveResponse struct {
	OrganizationRoles []roleSummary    `json:"organizationRoles"`
	ProjectRoles      []roleSummary    `json:"projectRoles"`
	Permissions       []string         `json:"permissions"`
	PermissionSources map[string]Scope `json:"permissionSources"`
}

// preview resolves a hypothetical, unsaved role selection. The UI calls
// this debounced on every edit; each call is independent and stateless.
func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	set, err := h.service.Preview(r.Context(), PreviewInput{
		ActorID:          req.ActorID,
		OrgRoleCodes:     req.OrganizationRoleCodes,
		ProjectID:        req.ProjectID,
		ProjectRoleCodes: req.ProjectRoleCodes,
	})
	if err != nil {
		h.respondResolveError(w, err)
		return
	}
	h.observe("preview")
	httpx.JSON(w, http.StatusOK, toEffectiveResponse(set))
}

// effectiveSelf resolves the persisted permissions of the session actor.
func (h *Handler) effectiveSelf(w http.ResponseWriter, r *http.Request) {
	actorID, ok := h.guard.currentActorID(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	h.effective(w, r, actorID)
}

// effectiveActor resolves the persisted permissions of an arbitrary actor,
// for the administration surface.
func (h *Handler) effectiveActor(w http.ResponseWriter, r *http.Request) {
	actorID, err := strconv.ParseInt(chi.URLParam(r, "actorID"), 10, 64)
	if err != nil || actorID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "actorID must be a positive integer")
		return
	}
	h.effective(w, r, actorID)
}

func (h *Handler) effective(w http.ResponseWriter, r *http.Request, actorID int64) {
	var projectID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("project_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "project_id must be a positive integer")
			return
		}
		projectID = &id
	}

	set, err := h.service.EffectivePermissions(r.Context(), actorID, projectID)
	if err != nil {
		h.respondResolveError(w, err)
		return
	}
	h.observe("saved")
	httpx.JSON(w, http.StatusOK, toEffectiveResponse(set))
}

// listRoles returns the catalog for one scope in declaration order, for
// stable rendering of role checkboxes.
func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	scope := Scope(r.URL.Query().Get("scope"))
	if scope != ScopeOrganization && scope != ScopeProject {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "scope must be organization or project")
		return
	}
	roles := h.service.Catalog().RolesForScope(scope)
	summaries := make([]roleSummary, 0, len(roles))
	for _, role := range roles {
		summaries = append(summaries, toRoleSummary(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": summaries})
}

// listPermissionDescriptions returns localized display strings for
// permission codes. Locale negotiation follows Accept-Language unless an
// explicit locale query parameter is given.
func (h *Handler) listPermissionDescriptions(w http.ResponseWriter, r *http.Request) {
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = r.Header.Get("Accept-Language")
	}
	out := make(map[string]string)
	for _, scope := range []Scope{ScopeOrganization, ScopeProject} {
		for _, role := range h.service.Catalog().RolesForScope(scope) {
			for _, code := range role.GrantedPermissions {
				if _, ok := out[code]; !ok {
					out[code] = DescribePermission(locale, code)
				}
			}
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}

// respondResolveError distinguishes catalog mismatches (client-fixable)
// from store unavailability. An error never degrades into an empty
// permission set: "no permissions" must stay an authoritative answer.
func (h *Handler) respondResolveError(w http.ResponseWriter, err error) {
	var unknown *UnknownRoleError
	if errors.As(err, &unknown) {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Role", unknown.Error())
		return
	}
	if h.logger != nil {
		h.logger.Error("resolve permissions", slog.Any("error", err))
	}
	httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "could not determine permissions")
}

func (h *Handler) observe(mode string) {
	if h.recorder != nil {
		h.recorder.ObserveResolution(mode)
	}
}

func toRoleSummary(role Role) roleSummary {
	return roleSummary{Code: role.Code, Scope: role.Scope, GrantedPermissions: role.GrantedPermissions}
}

func toEffectiveResponse(set EffectivePermissionSet) effectiveResponse {
	resp := effectiveResponse{
		OrganizationRoles: make([]roleSummary, 0, len(set.OrganizationRoles)),
		ProjectRoles:      make([]roleSummary, 0, len(set.ProjectRoles)),
		Permissions:       set.Permissions,
		PermissionSources: set.Sources,
	}
	if resp.Permissions == nil {
		resp.Permissions = []string{}
	}
	for _, role := range set.OrganizationRoles {
		resp.OrganizationRoles = append(resp.OrganizationRoles, toRoleSummary(role))
	}
	for _, role := range set.ProjectRoles {
		resp.ProjectRoles = append(resp.ProjectRoles, toRoleSummary(role))
	}
	return resp
}
