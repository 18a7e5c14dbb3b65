package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/garage-ops/internal/auth"
	"github.com/ukydev/garage-ops/internal/models"
)

func tokenFor(t *testing.T, svc *auth.Service, username string, role models.Role) string {
	t.Helper()
	token, err := svc.GenerateToken(&models.User{ID: "user-" + username, Username: username, Role: role})
	require.NoError(t, err)
	return token
}

// serve runs h and reports whether the wrapped handler was reached.
func serve(h func(http.Handler) http.Handler, req *http.Request) (*httptest.ResponseRecorder, bool) {
	called := false
	w := httptest.NewRecorder()
	h(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })).ServeHTTP(w, req)
	return w, called
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	authService := auth.NewService("secret", time.Hour)
	middleware := NewAuthMiddleware(authService)

	t.Run("valid token", func(t *testing.T) {
		token := tokenFor(t, authService, "testuser", models.RoleMechanic)
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			claims, ok := GetUserFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, "testuser", claims.Username)
			assert.Equal(t, models.RoleMechanic, claims.Role)
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		w, called := serve(middleware.Authenticate, httptest.NewRequest("GET", "/api/vehicles", nil))
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w, called := serve(middleware.Authenticate, req)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		refresh, err := authService.GenerateRefreshToken(&models.User{ID: "u1", Username: "x", Role: models.RoleAdmin})
		require.NoError(t, err)
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		w, called := serve(middleware.Authenticate, req)
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("public paths skip auth", func(t *testing.T) {
		for _, path := range []string{"/api/auth/login", "/health", "/metrics"} {
			w, called := serve(middleware.Authenticate, httptest.NewRequest("POST", path, nil))
			assert.True(t, called, path)
			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})

	t.Run("me is not public", func(t *testing.T) {
		_, called := serve(middleware.Authenticate, httptest.NewRequest("GET", "/api/auth/me", nil))
		assert.False(t, called)
	})
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	authService := auth.NewService("secret", time.Hour)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name     string
		role     models.Role
		required models.Role
		want     int
	}{
		{"admin passes mechanic check", models.RoleAdmin, models.RoleMechanic, http.StatusOK},
		{"mechanic passes mechanic check", models.RoleMechanic, models.RoleMechanic, http.StatusOK},
		{"mechanic fails admin check", models.RoleMechanic, models.RoleAdmin, http.StatusForbidden},
		{"viewer fails mechanic check", models.RoleViewer, models.RoleMechanic, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/users", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, "u", tt.role))
			chain := func(next http.Handler) http.Handler {
				return middleware.Authenticate(middleware.RequireRole(tt.required)(next))
			}
			w, called := serve(chain, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.want == http.StatusOK, called)
		})
	}
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	authService := auth.NewService("secret", time.Hour)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name       string
		role       models.Role
		permission string
		want       int
	}{
		{"admin can delete users", models.RoleAdmin, models.PermDeleteUser, http.StatusOK},
		{"mechanic manages inventory", models.RoleMechanic, models.PermManageInventory, http.StatusOK},
		{"mechanic cannot manage users", models.RoleMechanic, models.PermManageUsers, http.StatusForbidden},
		{"viewer reads analytics", models.RoleViewer, models.PermViewAnalytics, http.StatusOK},
		{"viewer cannot edit vehicles", models.RoleViewer, models.PermManageVehicles, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/anything", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, "u", tt.role))
			chain := func(next http.Handler) http.Handler {
				return middleware.Authenticate(middleware.RequirePermission(tt.permission)(next))
			}
			w, called := serve(chain, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.want == http.StatusOK, called)
		})
	}

	t.Run("no claims on context", func(t *testing.T) {
		w, called := serve(middleware.RequirePermission(models.PermViewVehicles), httptest.NewRequest("GET", "/", nil))
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetUserFromContext(t *testing.T) {
	claims := &models.Claims{UserID: "test-id", Username: "testuser", Role: models.RoleAdmin}

	got, ok := GetUserFromContext(ContextWithUser(context.Background(), claims))
	assert.True(t, ok)
	assert.Equal(t, claims, got)

	_, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)

	// a plain string key must not collide with ours
	_, ok = GetUserFromContext(context.WithValue(context.Background(), "user", claims))
	assert.False(t, ok)
}
