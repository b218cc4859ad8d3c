// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	users, admins, products int
	err                     error
}

func (c counts) Count(context.Context) (int, error)       { return c.users, c.err }
func (c counts) CountAdmins(context.Context) (int, error) { return c.admins, c.err }

type productCount int

func (p productCount) Count(context.Context) (int, error) { return int(p), nil }

func pass(next http.Handler) http.Handler { return next }

func newRouter(cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, pass, pass)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSystemStats(t *testing.T) {
	router := newRouter(HandlerConfig{
		DBStats:    func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25, InUse: 2} },
		RedisStats: func() *redis.PoolStats { return &redis.PoolStats{Hits: 7} },
		DBPing:     func(context.Context) error { return nil },
		RedisPing:  func(context.Context) error { return errors.New("down") },
		Users:      counts{users: 50, admins: 1},
		Products:   productCount(12),
	})

	rec := get(router, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Database.Healthy)
	assert.False(t, body.Redis.Healthy)
	assert.Equal(t, 25, body.Database.Stats.MaxOpenConnections)
	assert.Equal(t, uint32(7), body.Redis.Stats.Hits)
	require.NotNil(t, body.Domain)
	assert.Equal(t, DomainStats{Users: 50, Admins: 1, Products: 12}, *body.Domain)
	assert.NotEmpty(t, body.Runtime.GoVersion)
}

func TestDomainStatsError(t *testing.T) {
	router := newRouter(HandlerConfig{
		Users:    counts{err: errors.New("db gone")},
		Products: productCount(1),
	})

	assert.Equal(t, http.StatusInternalServerError, get(router, "/admin/stats/domain").Code)

	rec := get(router, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var body SystemStatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Nil(t, body.Domain)
	assert.Nil(t, body.Database.Stats)
}
