// AngelaMos | 2026
// security_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Argon2Params{
	Memory:  1024,
	Time:    1,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

func withTestParams(t *testing.T) {
	t.Helper()

	prev := passwordParams
	passwordParams = testParams
	t.Cleanup(func() { passwordParams = prev })
}

func TestHashAndVerifyPassword(t *testing.T) {
	withTestParams(t)

	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("s3cret-pass", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashesAreSalted(t *testing.T) {
	withTestParams(t)

	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordWithRehash(t *testing.T) {
	withTestParams(t)

	old, err := hashWithParams("pw", Argon2Params{
		Memory: 512, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16,
	})
	require.NoError(t, err)

	ok, newHash, err := VerifyPasswordWithRehash("pw", old)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, newHash)
	assert.False(t, needsRehash(newHash))

	current, err := HashPassword("pw")
	require.NoError(t, err)
	ok, newHash, err = VerifyPasswordWithRehash("pw", current)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, newHash)
}

func TestVerifyPasswordTimingSafeMissingHash(t *testing.T) {
	withTestParams(t)

	ok, newHash, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, newHash)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, bad := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=1$m=1,t=1,p=1$c2FsdA$aGFzaA",
	} {
		_, err := VerifyPassword("pw", bad)
		assert.Error(t, err, bad)
	}
}
