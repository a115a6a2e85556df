// Package http assembles the registry's HTTP surface: middleware chain,
// domain handlers, health, and metrics.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradelane/internal/platform/middleware"
	"tradelane/pkg/platform/httputil"
)

// Registrar mounts a domain handler's routes. Mutating routes go behind the
// supplied auth middleware.
type Registrar interface {
	Register(r chi.Router, requireAuth func(http.Handler) http.Handler)
}

// NewRouter builds the root router with the shared middleware chain.
func NewRouter(logger *slog.Logger, requireAuth func(http.Handler) http.Handler, registrars ...Registrar) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, reg := range registrars {
		reg.Register(r, requireAuth)
	}

	return r
}
