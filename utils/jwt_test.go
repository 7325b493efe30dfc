package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("secret", "user-1", "alice", time.Hour)
	require.NoError(t, err)

	uid, uname, err := ParseJWT("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
	assert.Equal(t, "alice", uname)
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret", "user-1", "alice", time.Hour)
	require.NoError(t, err)

	_, _, err = ParseJWT("other-secret", token)
	assert.Error(t, err)
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT("secret", "user-1", "alice", -time.Minute)
	require.NoError(t, err)

	_, _, err = ParseJWT("secret", token)
	assert.Error(t, err)
}

func TestJWTEmptyAndGarbage(t *testing.T) {
	_, _, err := ParseJWT("secret", "")
	assert.Error(t, err)

	_, _, err = ParseJWT("secret", "not.a.token")
	assert.Error(t, err)
}
