package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/meridian-grc/meridian-grc/internal/audit/http"
	"github.com/meridian-grc/meridian-grc/internal/auth"
	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/evidence"
	"github.com/meridian-grc/meridian-grc/internal/observability"
	"github.com/meridian-grc/meridian-grc/internal/projects"
	"github.com/meridian-grc/meridian-grc/internal/regulations"
	"github.com/meridian-grc/meridian-grc/internal/shared"
	"github.com/meridian-grc/meridian-grc/internal/tasks"
	"github.com/meridian-grc/meridian-grc/internal/users"
	"github.com/meridian-grc/meridian-grc/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	Guard authz.Middleware

	AuthHandler        *auth.Handler
	AuthzHandler       *authz.Handler
	AuditHandler       *audithttp.Handler
	UsersHandler       *users.Handler
	RegulationsHandler *regulations.Handler
	ProjectsHandler    *projects.Handler
	TasksHandler       *tasks.Handler
	EvidenceHandler    *evidence.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.AuthzHandler != nil {
		r.Route("/authz", params.AuthzHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.RegulationsHandler != nil {
		r.Route("/regulations", params.RegulationsHandler.MountRoutes)
	}
	if params.ProjectsHandler != nil {
		r.Route("/projects", params.ProjectsHandler.MountRoutes)
	}
	if params.TasksHandler != nil {
		r.Route("/tasks", params.TasksHandler.MountRoutes)
	}
	if params.EvidenceHandler != nil {
		r.Route("/evidence", params.EvidenceHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes(params.Guard))
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
