package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name          string
		accessSecret  string
		refreshSecret string
		accessExpiry  time.Duration
		refreshExpiry time.Duration
	}{
		{
			name:          "standard initialization",
			accessSecret:  "access-secret",
			refreshSecret: "refresh-secret",
			accessExpiry:  15 * time.Minute,
			refreshExpiry: 7 * 24 * time.Hour,
		},
		{
			name:          "short expiry times",
			accessSecret:  "a",
			refreshSecret: "r",
			accessExpiry:  time.Minute,
			refreshExpiry: 10 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.accessSecret, tt.refreshSecret, tt.accessExpiry, tt.refreshExpiry)

			assert.NotNil(t, g)
			assert.Equal(t, tt.accessSecret, g.accessSecret)
			assert.Equal(t, tt.refreshSecret, g.refreshSecret)
			assert.Equal(t, tt.accessExpiry, g.accessTokenExpiry)
			assert.Equal(t, tt.refreshExpiry, g.refreshTokenExpiry)
		})
	}
}

func TestGenerator_GenerateTokens(t *testing.T) {
	g := NewGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	t.Run("round trip preserves claims", func(t *testing.T) {
		claims := &Claims{UserID: 123, Email: "alice@example.com", SessionID: "session-1"}

		accessToken, refreshToken, err := g.GenerateTokens(claims)
		require.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)
		assert.NotEqual(t, accessToken, refreshToken)

		parsed, err := g.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, 123, parsed.UserID)
		assert.Equal(t, "alice@example.com", parsed.Email)
		assert.Equal(t, "session-1", parsed.SessionID)

		parsed, err = g.ValidateRefreshToken(refreshToken)
		require.NoError(t, err)
		assert.Equal(t, 123, parsed.UserID)
		assert.Equal(t, "session-1", parsed.SessionID)
	})

	t.Run("userID zero", func(t *testing.T) {
		accessToken, _, err := g.GenerateTokens(&Claims{UserID: 0, Email: "x@example.com", SessionID: "s"})
		require.NoError(t, err)

		parsed, err := g.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, 0, parsed.UserID)
	})
}

func TestGenerator_Validate(t *testing.T) {
	g := NewGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	claims := &Claims{UserID: 7, Email: "bob@example.com", SessionID: "session-7"}

	accessToken, refreshToken, err := g.GenerateTokens(claims)
	require.NoError(t, err)

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		_, err := g.ValidateRefreshToken(accessToken)
		assert.Error(t, err)
	})

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		_, err := g.ValidateAccessToken(refreshToken)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewGenerator("different-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		_, err := other.ValidateAccessToken(accessToken)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewGenerator("access-secret", "refresh-secret", -time.Minute, -time.Minute)
		accessToken, _, err := expired.GenerateTokens(claims)
		require.NoError(t, err)

		_, err = g.ValidateAccessToken(accessToken)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := g.ValidateAccessToken("not.a.token")
		assert.Error(t, err)
	})
}
