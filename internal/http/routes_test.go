package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/pressqueue/internal/core"
	apperrors "github.com/target/pressqueue/internal/errors"
)

type cycleFunc func(ctx context.Context) (core.CycleResult, error)

func (f cycleFunc) RunCycle(ctx context.Context) (core.CycleResult, error) { return f(ctx) }

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }
func (f pingFunc) Health(ctx context.Context) error      { return f(ctx) }

func serve(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthz(t *testing.T) {
	rec, body := serve(t, NewRouter(RouterServices{}), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyz(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec, body := serve(t, NewRouter(RouterServices{DB: ok, Cache: ok}), http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"postgres": "ok", "redis": "ok"}, body["checks"])

	rec, body = serve(t, NewRouter(RouterServices{DB: down}), http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, map[string]any{"postgres": "connection refused"}, body["checks"])
}

func TestRunCycle(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		runner := cycleFunc(func(context.Context) (core.CycleResult, error) {
			return core.CycleResult{Due: 2, Completed: 1, Failed: 1}, nil
		})
		rec, body := serve(t, NewRouter(RouterServices{Cycles: runner}), http.MethodPost, "/cycles")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.InDelta(t, 2, body["due"], 0)
	})

	t.Run("busy", func(t *testing.T) {
		runner := cycleFunc(func(context.Context) (core.CycleResult, error) {
			return core.CycleResult{Skipped: true, SkipReason: core.CycleSkipInProgress}, nil
		})
		rec, body := serve(t, NewRouter(RouterServices{Cycles: runner}), http.MethodPost, "/cycles")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "in_progress", body["skip_reason"])
	})

	t.Run("discovery failure", func(t *testing.T) {
		runner := cycleFunc(func(context.Context) (core.CycleResult, error) {
			return core.CycleResult{}, &apperrors.DiscoveryError{Cause: errors.New("db down")}
		})
		rec, body := serve(t, NewRouter(RouterServices{Cycles: runner}), http.MethodPost, "/cycles")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "cycle_failed", body["error"])
	})

	t.Run("processor disabled", func(t *testing.T) {
		rec, body := serve(t, NewRouter(RouterServices{}), http.MethodPost, "/cycles")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "processor_disabled", body["error"])
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewRouter(RouterServices{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cycles", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestListContentTypes(t *testing.T) {
	rec, body := serve(t, NewRouter(RouterServices{}), http.MethodGet, "/content-types")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 15, body["count"], 0)

	types, ok := body["content_types"].([]any)
	require.True(t, ok)
	first, ok := types[0].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, first["key"])
	assert.NotEmpty(t, first["required_variables"])
}
