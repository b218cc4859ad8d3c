// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
)

func testJWTConfig(t *testing.T) config.JWTConfig {
	t.Helper()

	dir := t.TempDir()
	return config.JWTConfig{
		PrivateKeyPath:    filepath.Join(dir, "keys", "private.pem"),
		PublicKeyPath:     filepath.Join(dir, "keys", "public.pem"),
		AccessTokenExpire: time.Hour,
		Issuer:            "storefront",
		Audience:          "storefront-api",
		GenerateKeys:      true,
	}
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()

	cfg := testJWTConfig(t)
	created, err := EnsureKeyPair(cfg)
	require.NoError(t, err)
	require.True(t, created)

	m, err := NewJWTManager(cfg)
	require.NoError(t, err)
	return m
}

func TestEnsureKeyPair(t *testing.T) {
	cfg := testJWTConfig(t)

	created, err := EnsureKeyPair(cfg)
	require.NoError(t, err)
	assert.True(t, created)

	info, err := os.Stat(cfg.PrivateKeyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	created, err = EnsureKeyPair(cfg)
	require.NoError(t, err)
	assert.False(t, created, "existing keys are kept")

	cfg.GenerateKeys = false
	cfg.PrivateKeyPath = filepath.Join(t.TempDir(), "missing.pem")
	created, err = EnsureKeyPair(cfg)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestNewJWTManagerMissingKey(t *testing.T) {
	cfg := testJWTConfig(t)

	_, err := NewJWTManager(cfg)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager(t)

	issued, err := m.CreateAccessToken(42, "ann@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, 5*time.Second)

	claims, err := m.ParseAccessToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, issued.TokenID, claims.TokenID)
}

func TestParseAccessTokenExpired(t *testing.T) {
	m := newTestJWTManager(t)

	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issued, err := m.CreateAccessToken(1, "a@example.com")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseAccessToken(issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestParseAccessTokenRejectsForeignTokens(t *testing.T) {
	m := newTestJWTManager(t)
	other := newTestJWTManager(t)

	issued, err := other.CreateAccessToken(1, "a@example.com")
	require.NoError(t, err)

	_, err = m.ParseAccessToken(issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid, "signed by another key")

	_, err = m.ParseAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	m.config.Audience = "someone-else"
	issued, err = m.CreateAccessToken(1, "a@example.com")
	require.NoError(t, err)
	m.config.Audience = "storefront-api"

	_, err = m.ParseAccessToken(issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid, "wrong audience")
}

func TestJWKSHandler(t *testing.T) {
	m := newTestJWTManager(t)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Keys, 1)
	assert.Equal(t, m.GetKeyID(), body.Keys[0]["kid"])
	assert.Equal(t, "EC", body.Keys[0]["kty"])
	assert.NotContains(t, body.Keys[0], "d", "private part must not leak")
}
