// internal/transport/chi/router.go
package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the server's handlers. A zero requestTimeout leaves
// requests unbounded.
func NewRouter(s *Server, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(jsonRecoverer(s.logger))
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(metricsMiddleware)

	r.Get("/health", s.Health)
	r.Get("/ready", s.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(chimiddleware.Timeout(requestTimeout))
		}
		r.Post("/chat", s.Chat)
		r.Get("/suggest", s.Suggest)
	})

	return r
}
