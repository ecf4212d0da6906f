package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/config"
)

func testManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	return m
}

func TestJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(config.AuthConfig{})
	require.Error(t, err)
}

func TestTokenPairRoundTrip(t *testing.T) {
	m := testManager(t)
	pair, err := m.GeneratePair("EMP001", "Asha Rao", true)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.EqualValues(t, 3600, pair.ExpiresIn)

	claims, err := m.VerifyLogin(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "EMP001", claims.UserCode)
	assert.Equal(t, TokenTypeLogin, claims.TokenType)
	assert.True(t, claims.IsAdmin)

	refresh, err := m.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m := testManager(t)
	pair, err := m.GeneratePair("EMP001", "Asha Rao", false)
	require.NoError(t, err)

	_, err = m.VerifyLogin(pair.RefreshToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a login token")

	_, err = m.VerifyRefresh(pair.AccessToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a refresh token")
}

func TestExpiredTokenRejected(t *testing.T) {
	m := testManager(t)
	pair, err := m.GeneratePair("EMP001", "Asha Rao", false)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.VerifyLogin(pair.AccessToken)
	require.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	m := testManager(t)
	other, err := NewJWTManager(config.AuthConfig{JWTSecret: "different", AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour})
	require.NoError(t, err)

	pair, err := other.GeneratePair("EMP001", "Asha Rao", false)
	require.NoError(t, err)
	_, err = m.VerifyLogin(pair.AccessToken)
	require.Error(t, err)
}
