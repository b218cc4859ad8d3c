// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func hit(h http.Handler, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterLocalFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	rl := NewRateLimiter(client, RateLimitConfig{
		Limit:   PerWindow(1, 2, time.Hour),
		KeyFunc: KeyByIPAndEndpoint,
	})
	h := rl.Handler(http.HandlerFunc(ok))

	assert.Equal(t, http.StatusOK, hit(h, "/api/auth/login", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "/api/auth/login", "10.0.0.1").Code)

	rec := hit(h, "/api/auth/login", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(h, "/api/auth/login", "10.0.0.2").Code)
	assert.Equal(t, http.StatusOK, hit(h, "/api/auth/register", "10.0.0.1").Code)
}

func TestRateLimiterSetsHeaders(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	rl := NewRateLimiter(client, RateLimitConfig{Limit: PerWindow(100, 20, time.Minute)})
	rec := hit(rl.Handler(http.HandlerFunc(ok)), "/api/products", "10.0.0.9")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "100;w=60", rec.Header().Get("RateLimit-Policy"))
}

func TestRateLimiterBypass(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	rl := NewRateLimiter(client, RateLimitConfig{
		Limit:      PerWindow(1, 1, time.Hour),
		BypassFunc: func(r *http.Request) bool { return r.URL.Path == "/healthz" },
	})
	h := rl.Handler(http.HandlerFunc(ok))

	for range 3 {
		assert.Equal(t, http.StatusOK, hit(h, "/healthz", "10.0.0.1").Code)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/api/users/{id}/add_product/{id}", normalizeEndpoint("/api/users/12/add_product/7"))
	assert.Equal(t, "/api/auth/login", normalizeEndpoint("/api/auth/login/"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "10.0.0.1", clientIP(req))
}
