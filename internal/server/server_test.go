// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/health"
)

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestRouterRecoversPanics(t *testing.T) {
	srv := New(Config{ServerConfig: testConfig()})
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestShutdownMarksHealthDown(t *testing.T) {
	h := health.NewHandler()
	srv := New(Config{ServerConfig: testConfig(), HealthHandler: h})
	h.RegisterRoutes(srv.Router())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	require.NoError(t, srv.Shutdown(context.Background(), 10*time.Millisecond))
	require.NoError(t, <-errCh)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestShutdownHonoursContext(t *testing.T) {
	srv := New(Config{ServerConfig: testConfig()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, srv.Shutdown(ctx, time.Minute), context.Canceled)
}
