package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("WF_STR", "value")
	t.Setenv("WF_BOOL", "yes")
	t.Setenv("WF_BAD_BOOL", "maybe")
	t.Setenv("WF_INT", "42")
	t.Setenv("WF_DUR", "8s")

	assert.Equal(t, "value", Getenv("WF_STR", "x"))
	assert.Equal(t, "x", Getenv("WF_MISSING", "x"))
	assert.True(t, GetenvBool("WF_BOOL", false))
	assert.True(t, GetenvBool("WF_BAD_BOOL", true))
	assert.False(t, GetenvBool("WF_MISSING", false))
	assert.Equal(t, 42, GetenvInt("WF_INT", 1))
	assert.Equal(t, 1, GetenvInt("WF_MISSING", 1))
	assert.Equal(t, 8*time.Second, GetenvDuration("WF_DUR", time.Second))
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 17 ")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	_, err = ParseID("0")
	assert.Error(t, err)
	_, err = ParseID("abc")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	ConfigureJWT("test-secret", time.Minute)

	token, err := GenerateAccessToken(7, "alice", "Operator")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Operator", claims.Role)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)
}
