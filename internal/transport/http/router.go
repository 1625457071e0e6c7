// Package httptransport assembles the HTTP surface: the shared middleware
// chain, the authenticated API routes, and the unauthenticated operational
// endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"teampulse/internal/platform/metrics"
	"teampulse/internal/platform/middleware"
)

// requestTimeout bounds every API request end to end.
const requestTimeout = 30 * time.Second

// Registrar is implemented by feature handlers that attach their routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the full router. Feature handlers register under one
// authenticated group so the middleware chain exists in exactly one place;
// /healthz and /metrics stay outside it so probes and scrapes need no token.
func NewRouter(
	logger *slog.Logger,
	m *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	handlers ...Registrar,
) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.Recovery(logger))
		api.Use(middleware.RequestID)
		api.Use(middleware.RequestTime)
		api.Use(middleware.Logger(logger))
		api.Use(middleware.Timeout(requestTimeout))
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.Latency(m))
		api.Use(middleware.RequireAuth(jwtValidator, logger))
		for _, h := range handlers {
			h.Register(api)
		}
	})

	return r
}
