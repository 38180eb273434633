package service

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "b8a3c2267dc85f855dea9b46b452bf20"

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator("secret", time.Hour, 7*24*time.Hour)

	assert.Equal(t, "secret", tg.secret)
	assert.Equal(t, time.Hour, tg.accessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, tg.refreshTokenExpiry)
}

func TestTokenGenerator_GenerateTokens(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, 7*24*time.Hour)

	t.Run("access token carries user and role", func(t *testing.T) {
		accessToken, refreshToken, err := tg.GenerateTokens(42, "Instructor")
		require.NoError(t, err)
		assert.NotEqual(t, accessToken, refreshToken)
		assert.Len(t, strings.Split(accessToken, "."), 3)

		userID, role, err := tg.ValidateAccessToken(accessToken)
		require.NoError(t, err)
		assert.Equal(t, 42, userID)
		assert.Equal(t, "Instructor", role)
	})

	t.Run("refresh tokens are unique within the same second", func(t *testing.T) {
		_, first, err := tg.GenerateTokens(1, "Student")
		require.NoError(t, err)
		_, second, err := tg.GenerateTokens(1, "Student")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestTokenGenerator_ValidateAccessToken(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, 7*24*time.Hour)
	accessToken, refreshToken, err := tg.GenerateTokens(7, "Admin")
	require.NoError(t, err)

	expired := NewTokenGenerator(testSecret, -time.Minute, time.Hour)
	expiredToken, _, err := expired.GenerateTokens(7, "Admin")
	require.NoError(t, err)

	otherSecret := NewTokenGenerator("another-secret", time.Hour, time.Hour)
	foreignToken, _, err := otherSecret.GenerateTokens(7, "Admin")
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id": 7,
		"role":    "Admin",
		"type":    "access",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	missingRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name          string
		token         string
		expectedError bool
		errorContains string
	}{
		{name: "valid", token: accessToken},
		{name: "refresh token rejected", token: refreshToken, expectedError: true, errorContains: "token type is not access"},
		{name: "expired", token: expiredToken, expectedError: true, errorContains: "failed to parse token"},
		{name: "wrong secret", token: foreignToken, expectedError: true, errorContains: "failed to parse token"},
		{name: "none algorithm", token: noneToken, expectedError: true},
		{name: "missing role", token: missingRole, expectedError: true, errorContains: "role not found"},
		{name: "garbage", token: "not-a-token", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, role, err := tg.ValidateAccessToken(tt.token)
			if tt.expectedError {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 7, userID)
			assert.Equal(t, "Admin", role)
		})
	}
}

func TestTokenGenerator_ValidateRefreshToken(t *testing.T) {
	tg := NewTokenGenerator(testSecret, time.Hour, time.Hour)
	accessToken, refreshToken, err := tg.GenerateTokens(1, "Student")
	require.NoError(t, err)

	assert.NoError(t, tg.ValidateRefreshToken(refreshToken))

	err = tg.ValidateRefreshToken(accessToken)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "token type is not refresh")
}
