// Package httptransport assembles the HTTP router: middleware chain, API
// routes, health and metrics endpoints. It holds no business logic.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patrimonio/internal/mapapi"
	"patrimonio/internal/platform/metrics"
	"patrimonio/internal/platform/middleware"
	reporthandler "patrimonio/internal/report/handler"
	"patrimonio/pkg/platform/httputil"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps are the wired components the router mounts.
type Deps struct {
	Reports   *reporthandler.Handler
	Map       *mapapi.Handler
	Validator middleware.TokenValidator
	HTTP      *metrics.HTTP
	Logger    *slog.Logger
	// Health checks run on /healthz; nil entries are skipped.
	Checks map[string]HealthChecker
}

// NewRouter builds the full router.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	if deps.HTTP != nil {
		r.Use(deps.HTTP.Middleware)
	}

	r.Get("/healthz", healthHandler(deps.Checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Viewer(deps.Validator, deps.Logger))
		deps.Reports.Register(r)
		deps.Map.Register(r)
	})
	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		httputil.WriteJSON(w, status, result)
	}
}
