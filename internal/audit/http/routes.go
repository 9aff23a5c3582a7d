package audithttp

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/meridian-grc/meridian-grc/internal/authz"
	"github.com/meridian-grc/meridian-grc/internal/shared"
)

const rateLimit = 10
const rateWindow = time.Minute

// MountRoutes mendaftarkan endpoint audit timeline dan ekspor CSV.
// Ekspor dibatasi per sesi karena mahal.
func (h *Handler) MountRoutes(guard authz.Middleware) func(chi.Router) {
	return func(r chi.Router) {
		if h == nil {
			return
		}
		limiter := httprate.Limit(rateLimit, rateWindow,
			httprate.WithKeyFuncs(rateLimitKey),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			}),
		)
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAll(authz.PermManageSystemSettings))
			r.Get("/", h.handleTimeline)
			r.Group(func(r chi.Router) {
				r.Use(limiter)
				r.Get("/export", h.handleExport)
			})
		})
	}
}

func rateLimitKey(r *http.Request) (string, error) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.User() != "" {
		return "session:" + sess.User(), nil
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return "ip:" + host, nil
}
