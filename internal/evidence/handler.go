package evidence

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// Handler serves evidence metadata endpoints.
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

// MountRoutes registers evidence routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(authz.PermViewEvidence))
		r.Get("/", h.list)
		r.Get("/{evidenceID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(authz.PermUploadEvidence))
		r.Post("/", h.attach)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(authz.PermApproveControls))
		r.Delete("/{evidenceID}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.URL.Query().Get("task_id"), 10, 64)
	if err != nil || taskID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "task_id must be a positive integer")
		return
	}
	records, err := h.service.ListByTask(r.Context(), taskID)
	if err != nil {
		h.logger.Error("list evidence", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if records == nil {
		records = []Evidence{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"evidence": records})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), chi.URLParam(r, "evidenceID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

type attachRequest struct {
	TaskID      int64  `json:"taskId" validate:"required,gt=0"`
	FileName    string `json:"fileName" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
	SHA256      string `json:"sha256" validate:"required,len=64,hexadecimal"`
	Note        string `json:"note"`
}

func (h *Handler) attach(w http.ResponseWriter, r *http.Request) {
	var req attachRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	created, err := h.service.Attach(r.Context(), h.sessionActor(r), Evidence{
		TaskID:      req.TaskID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		SHA256:      req.SHA256,
		Note:        req.Note,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), h.sessionActor(r), chi.URLParam(r, "evidenceID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionActor(r *http.Request) int64 {
	return shared.ActorIDFromContext(r.Context())
}
