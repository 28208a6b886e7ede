package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager() *JWTManager {
	return NewJWTManager("test-secret-key", 15*time.Minute, 24*time.Hour)
}

func TestJWTManager_GenerateAndValidateAccessToken(t *testing.T) {
	// Arrange
	manager := newTestJWTManager()
	userID := uuid.New()

	// Act
	token, err := manager.GenerateAccessToken(userID, "user@example.com", true, false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.True(t, claims.IsStaff)
	assert.False(t, claims.ShopOwner)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestJWTManager_ValidateToken_Expired(t *testing.T) {
	// Arrange
	manager := NewJWTManager("test-secret-key", -1*time.Minute, 24*time.Hour)
	token, err := manager.GenerateAccessToken(uuid.New(), "user@example.com", false, false)
	require.NoError(t, err)

	// Act
	claims, err := manager.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTManager_ValidateToken_WrongSecret(t *testing.T) {
	// Arrange
	manager := newTestJWTManager()
	other := NewJWTManager("another-secret-key", 15*time.Minute, 24*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "user@example.com", false, false)
	require.NoError(t, err)

	// Act
	claims, err := other.ValidateToken(token)

	// Assert
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTManager_ValidateToken_Garbage(t *testing.T) {
	manager := newTestJWTManager()

	claims, err := manager.ValidateToken("not-a-jwt-token")

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTManager_GenerateRefreshToken(t *testing.T) {
	manager := newTestJWTManager()

	first, err := manager.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := manager.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestJWTManager_Durations(t *testing.T) {
	manager := newTestJWTManager()

	assert.Equal(t, 15*time.Minute, manager.GetAccessTokenDuration())
	assert.Equal(t, 24*time.Hour, manager.GetRefreshTokenDuration())
}
