// Package httpx serves the operational HTTP surface: health probes, manual cycle triggers and
// the content-type catalogue.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/target/pressqueue/internal/core"
	"github.com/target/pressqueue/internal/domain/contenttype"
)

// RouterServices holds the dependencies of the ops router.
type RouterServices struct {
	Cycles   core.CycleRunner      // Optional: nil when the processor is disabled in this instance
	DB       Pinger                // Optional: readiness check
	Cache    HealthChecker         // Optional: readiness check
	Registry *contenttype.Registry // Optional: defaults to the embedded registry
	Logger   *slog.Logger
}

// NewRouter builds the ops router.
func NewRouter(s RouterServices) http.Handler {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := s.Registry
	if registry == nil {
		registry = contenttype.Default()
	}

	health := &healthHandlers{db: s.DB, cache: s.Cache}
	ops := &opsHandlers{cycles: s.Cycles, registry: registry, logger: logger.With("component", "ops_http")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(Recover(logger))
	r.Use(Logging(logger))

	r.Get("/healthz", health.healthz)
	r.Get("/readyz", health.readyz)
	r.Post("/cycles", ops.runCycle)
	r.Get("/content-types", ops.listContentTypes)
	return r
}
