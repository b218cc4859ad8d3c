// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadinessHealthy(t *testing.T) {
	h := NewHandler(
		Dependency{Name: "database", Checker: CheckerFunc(ok)},
		Dependency{Name: "redis", Checker: CheckerFunc(ok)},
	)

	rec := serve(h, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Checks, 2)
	assert.Equal(t, "database", body.Checks[0].Name)
	assert.Equal(t, "redis", body.Checks[1].Name)
}

func TestReadinessDegraded(t *testing.T) {
	h := NewHandler(
		Dependency{Name: "database", Checker: CheckerFunc(ok)},
		Dependency{Name: "kafka", Checker: CheckerFunc(failing)},
		Dependency{Name: "redis"},
	)

	rec := serve(h, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.True(t, body.Checks[0].Healthy)
	assert.Equal(t, "ping failed", body.Checks[1].Message)
	assert.Equal(t, "redis checker not configured", body.Checks[2].Message)
}

func TestShutdownFlag(t *testing.T) {
	h := NewHandler()

	assert.Equal(t, http.StatusOK, serve(h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(h, "/readyz").Code)

	h.SetShutdown(true)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, "/healthz").Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", serve(h, "/livez").Header().Get("Cache-Control"))
}
