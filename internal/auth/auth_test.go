package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/garage-ops/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       "5f8d0d55b54764421b7156c1",
		Username: "testuser",
		Role:     models.RoleMechanic,
	}
}

func TestNewService_Defaults(t *testing.T) {
	service := NewService("", 0)
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)

	service = NewService("s3cret", time.Hour)
	assert.Equal(t, []byte("s3cret"), service.jwtSecret)
	assert.Equal(t, time.Hour, service.tokenExp)
}

func TestService_HashAndCheckPassword(t *testing.T) {
	service := NewService("secret", time.Hour)

	hash, err := service.HashPassword("testpassword123")
	require.NoError(t, err)
	assert.NotEqual(t, "testpassword123", hash)

	assert.True(t, service.CheckPassword("testpassword123", hash))
	assert.False(t, service.CheckPassword("wrongpassword", hash))
}

func TestService_ValidateToken(t *testing.T) {
	service := NewService("secret", time.Hour)
	user := testUser()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Username, claims.Username)
	assert.Equal(t, user.Role, claims.Role)

	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)

	_, err = service.ValidateToken("invalid-token")
	assert.Equal(t, ErrInvalidToken, err)

	other := NewService("different", time.Hour)
	_, err = other.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_GenerateTokenRequiresID(t *testing.T) {
	service := NewService("secret", time.Hour)
	_, err := service.GenerateToken(&models.User{Username: "ghost"})
	assert.Error(t, err)
	_, err = service.GenerateToken(nil)
	assert.Error(t, err)
}

func TestService_TokenExpiration(t *testing.T) {
	service := NewService("secret", time.Hour)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	token, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, issued.Add(time.Hour).Unix(), claims.Exp)

	service.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	service := NewService("secret", time.Hour)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return issued }

	refresh, err := service.GenerateRefreshToken(testUser())
	require.NoError(t, err)
	access, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = service.ValidateToken(refresh)
	assert.Equal(t, ErrInvalidToken, err)
	_, err = service.ValidateRefreshToken(access)
	assert.Equal(t, ErrInvalidToken, err)

	// still valid after the access token would have expired
	service.now = func() time.Time { return issued.Add(48 * time.Hour) }
	claims, err := service.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.Username)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := NewService("secret", time.Hour)

	extracted, err := service.ExtractTokenFromHeader("Bearer valid-token")
	assert.NoError(t, err)
	assert.Equal(t, "valid-token", extracted)

	for _, header := range []string{"", "InvalidFormat", "Bearer ", "Basic abc"} {
		_, err = service.ExtractTokenFromHeader(header)
		assert.Equal(t, ErrInvalidToken, err, header)
	}
}

func TestService_ValidatePassword(t *testing.T) {
	service := NewService("secret", time.Hour)

	assert.NoError(t, service.ValidatePassword("validpassword123"))

	err := service.ValidatePassword("short")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 8 characters")
}

func TestService_ValidateEmail(t *testing.T) {
	service := NewService("secret", time.Hour)

	assert.NoError(t, service.ValidateEmail("test@example.com"))

	for _, email := range []string{"testexample.com", "test@", "test", "Test <test@example.com>", "test@localhost"} {
		err := service.ValidateEmail(email)
		require.Error(t, err, email)
		assert.Contains(t, err.Error(), "invalid email format")
	}
}

func TestService_ValidateUsername(t *testing.T) {
	service := NewService("secret", time.Hour)

	assert.NoError(t, service.ValidateUsername("testuser"))

	err := service.ValidateUsername("ab")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 3 characters")

	err = service.ValidateUsername(strings.Repeat("a", 51))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "less than 50 characters")
}
