package httpx

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker is satisfied by the Redis cache repository.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type healthHandlers struct {
	db    Pinger
	cache HealthChecker
}

// healthz reports liveness only.
func (h *healthHandlers) healthz(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz checks Postgres and, when configured, Redis.
func (h *healthHandlers) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{}
	ready := true
	if h.db != nil {
		checks["postgres"] = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			checks["postgres"] = err.Error()
			ready = false
		}
	}
	if h.cache != nil {
		checks["redis"] = "ok"
		if err := h.cache.Health(ctx); err != nil {
			checks["redis"] = err.Error()
			ready = false
		}
	}

	status, code := "ok", http.StatusOK
	if !ready {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	WriteJSON(w, code, map[string]any{"status": status, "checks": checks})
}
