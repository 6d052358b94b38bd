package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(&Config{
		Secret:            "test-secret-key",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: 24 * time.Hour,
		Issuer:            "cottage-pos-backend",
	})
}

func TestGenerateAndParse(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair(7, "Amira", "staff")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Greater(t, pair.ExpiresAt, time.Now().Unix())

	claims, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.StaffID)
	assert.Equal(t, "Amira", claims.Name)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "cottage-pos-backend", claims.Issuer)
}

func TestParseExpiredToken(t *testing.T) {
	m := NewManager(&Config{
		Secret:            "test-secret-key",
		AccessExpireTime:  -time.Hour,
		RefreshExpireTime: -time.Hour,
		Issuer:            "cottage-pos-backend",
	})

	pair, err := m.GenerateTokenPair(1, "Raj", "admin")
	require.NoError(t, err)

	_, err = m.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseMalformedToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestParseWrongSecret(t *testing.T) {
	m := newTestManager()
	pair, err := m.GenerateTokenPair(1, "Raj", "admin")
	require.NoError(t, err)

	other := NewManager(&Config{
		Secret:            "different-secret",
		AccessExpireTime:  time.Hour,
		RefreshExpireTime: time.Hour,
		Issuer:            "cottage-pos-backend",
	})
	_, err = other.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshToken(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair(3, "Maya", "admin")
	require.NoError(t, err)

	refreshed, err := m.RefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	claims, err := m.ParseToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims.StaffID)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateToken(t *testing.T) {
	m := newTestManager()

	pair, err := m.GenerateTokenPair(1, "Raj", "admin")
	require.NoError(t, err)

	ok, err := m.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.ValidateToken("garbage")
	assert.Error(t, err)
	assert.False(t, ok)
}
