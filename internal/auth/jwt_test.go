package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("u1", "1234567890123456", "faceattend", "secret", time.Minute, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := Parse(pair.AccessToken, "secret", "faceattend")
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "1234567890123456", claims.NIK)
	assert.NotEmpty(t, claims.ID)

	refreshClaims, err := Parse(pair.RefreshToken, "secret", "faceattend")
	require.NoError(t, err)
	assert.NotEqual(t, claims.ID, refreshClaims.ID)
}

func TestParseWrongKey(t *testing.T) {
	pair, err := Issue("u1", "1234567890123456", "faceattend", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "other-secret", "faceattend")
	assert.Error(t, err)
}

func TestParseIssuerMismatch(t *testing.T) {
	pair, err := Issue("u1", "1234567890123456", "someone-else", "secret", time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "faceattend")
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	pair, err := Issue("u1", "1234567890123456", "faceattend", "secret", -time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = Parse(pair.AccessToken, "secret", "faceattend")
	assert.Error(t, err)
}
