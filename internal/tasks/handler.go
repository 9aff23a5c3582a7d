package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// Handler serves task workflow endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(authz.PermViewTasks))
		r.Get("/", h.list)
		r.Get("/{taskID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(authz.PermCreateTasks))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(authz.PermManageTasks))
		r.Put("/{taskID}", h.update)
		r.Post("/{taskID}/status", h.move)
		r.Post("/{taskID}/assign", h.assign)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	projectID, _ := strconv.ParseInt(query.Get("project_id"), 10, 64)
	filter := ListFilter{ProjectID: projectID, Status: query.Get("status")}
	if raw := query.Get("assignee_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "assignee_id must be a positive integer")
			return
		}
		filter.AssigneeID = &id
	}
	tasks, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if tasks == nil {
		tasks = []Task{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	task, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

type taskRequest struct {
	ProjectID    int64  `json:"projectId" validate:"required,gt=0"`
	RegulationID *int64 `json:"regulationId" validate:"omitempty,gt=0"`
	Title        string `json:"title" validate:"required,min=3"`
	Description  string `json:"description"`
	AssigneeID   *int64 `json:"assigneeId" validate:"omitempty,gt=0"`
	DueDate      string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task := Task{
		ProjectID:    req.ProjectID,
		RegulationID: req.RegulationID,
		Title:        req.Title,
		Description:  req.Description,
		AssigneeID:   req.AssigneeID,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dueDate must use YYYY-MM-DD")
			return
		}
		task.DueDate = &due
	}
	created, err := h.service.Create(r.Context(), task)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

type updateTaskRequest struct {
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task := Task{ID: id, Title: req.Title, Description: req.Description}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dueDate must use YYYY-MM-DD")
			return
		}
		task.DueDate = &due
	}
	updated, err := h.service.Update(r.Context(), task)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type moveTaskRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_review done"`
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var req moveTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	moved, err := h.service.Move(r.Context(), h.sessionActor(r), id, req.Status)
	if err != nil {
		var invalid *InvalidTransitionError
		if errors.As(err, &invalid) {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Transition", invalid.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, moved)
}

type assignTaskRequest struct {
	AssigneeID *int64 `json:"assigneeId" validate:"omitempty,gt=0"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var req assignTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	task, err := h.service.Assign(r.Context(), id, req.AssigneeID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "taskID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "taskID must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) sessionActor(r *http.Request) int64 {
	return shared.ActorIDFromContext(r.Context())
}
