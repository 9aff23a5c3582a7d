package regulations

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/platform/httpx"
)

// Handler serves the regulation library.
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

// MountRoutes registers regulation library routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(authz.PermViewRegulations))
		r.Get("/", h.list)
		r.Get("/{regulationID}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAll(authz.PermManageRegulations))
		r.Post("/", h.create)
		r.Put("/{regulationID}", h.update)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("perPage"))
	filter := ListFilter{
		Category: query.Get("category"),
		Page:     page,
		PerPage:  perPage,
	}
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list regulations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.regulationID(w, r)
	if !ok {
		return
	}
	reg, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}

type regulationRequest struct {
	Code          string `json:"code" validate:"required,min=2"`
	Title         string `json:"title" validate:"required,min=3"`
	Authority     string `json:"authority" validate:"required"`
	Category      string `json:"category" validate:"required"`
	Summary       string `json:"summary"`
	EffectiveDate string `json:"effectiveDate" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) decodeRegulation(w http.ResponseWriter, r *http.Request) (Regulation, bool) {
	var req regulationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return Regulation{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Regulation{}, false
	}
	effective, err := time.Parse("2006-01-02", req.EffectiveDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "effectiveDate must use YYYY-MM-DD")
		return Regulation{}, false
	}
	return Regulation{
		Code:          req.Code,
		Title:         req.Title,
		Authority:     req.Authority,
		Category:      req.Category,
		Summary:       req.Summary,
		EffectiveDate: effective,
	}, true
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	reg, ok := h.decodeRegulation(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), reg)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.regulationID(w, r)
	if !ok {
		return
	}
	reg, ok := h.decodeRegulation(w, r)
	if !ok {
		return
	}
	reg.ID = id
	updated, err := h.service.Update(r.Context(), reg)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) regulationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "regulationID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "regulationID must be a positive integer")
		return 0, false
	}
	return id, true
}
