package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-ops/internal/auth"
	"github.com/ukydev/garage-ops/internal/db"
	"github.com/ukydev/garage-ops/internal/middleware"
	"github.com/ukydev/garage-ops/internal/models"
)

// AuthHandler handles authentication and account requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

func (h *AuthHandler) issueTokens(w http.ResponseWriter, status int, user *models.User) {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		log.WithError(err).Error("Failed to generate token")
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	refreshToken, err := h.authService.GenerateRefreshToken(user)
	if err != nil {
		log.WithError(err).Error("Failed to generate refresh token")
		writeError(w, http.StatusInternalServerError, "failed to generate refresh token")
		return
	}
	writeJSON(w, status, models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeJSON(w, r, &loginReq); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if loginReq.Username == "" || loginReq.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.userCollection.FindUserByUsername(r.Context(), loginReq.Username)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.WithError(err).Error("Failed to look up user")
		}
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "account is deactivated")
		return
	}
	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		log.WithField("user", loginReq.Username).Info("Failed login attempt")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.WithError(err).WithField("user", user.Username).Warn("Failed to update last login")
	}
	h.issueTokens(w, http.StatusOK, user)
}

// Register creates an account. The first account may pick any role; after
// that, self-registration is limited to viewers.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerReq models.RegisterRequest
	if err := decodeJSON(w, r, &registerReq); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, err := range []error{
		h.authService.ValidateUsername(registerReq.Username),
		h.authService.ValidateEmail(registerReq.Email),
		h.authService.ValidatePassword(registerReq.Password),
	} {
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if registerReq.Role == "" {
		registerReq.Role = models.RoleViewer
	}
	if !models.IsValidRole(registerReq.Role) {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	ctx := r.Context()
	if registerReq.Role != models.RoleViewer {
		users, err := h.userCollection.FindUsers(ctx)
		if err != nil {
			writeStoreError(w, err, "list users")
			return
		}
		if len(users) > 0 {
			writeError(w, http.StatusForbidden, "only the first account may choose a role")
			return
		}
	}

	if _, err := h.userCollection.FindUserByUsername(ctx, registerReq.Username); err == nil {
		writeError(w, http.StatusConflict, "username already exists")
		return
	}
	if _, err := h.userCollection.FindUserByEmail(ctx, registerReq.Email); err == nil {
		writeError(w, http.StatusConflict, "email already exists")
		return
	}

	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		log.WithError(err).Error("Failed to hash password")
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &models.User{
		Username:     registerReq.Username,
		Email:        registerReq.Email,
		PasswordHash: passwordHash,
		Role:         registerReq.Role,
		FirstName:    registerReq.FirstName,
		LastName:     registerReq.LastName,
	}
	if err := h.userCollection.InsertUser(ctx, user); err != nil {
		writeStoreError(w, err, "create user")
		return
	}
	log.WithFields(log.Fields{"user": user.Username, "role": user.Role}).Info("User registered")
	h.issueTokens(w, http.StatusCreated, user)
}

// Refresh exchanges a refresh token for a fresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	claims, err := h.authService.ValidateRefreshToken(req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	// reload so role changes and deactivation take effect
	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "account is deactivated")
		return
	}
	h.issueTokens(w, http.StatusOK, user)
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user context not found")
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err, "load user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile updates the current user's name and email
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user context not found")
		return
	}

	var updateReq struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := decodeJSON(w, r, &updateReq); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err, "load user")
		return
	}

	if updateReq.FirstName != "" {
		user.FirstName = updateReq.FirstName
	}
	if updateReq.LastName != "" {
		user.LastName = updateReq.LastName
	}
	if updateReq.Email != "" {
		if err := h.authService.ValidateEmail(updateReq.Email); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		existingUser, err := h.userCollection.FindUserByEmail(r.Context(), updateReq.Email)
		if err == nil && existingUser.ID != claims.UserID {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		user.Email = updateReq.Email
	}

	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeStoreError(w, err, "update user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword changes the current user's password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "user context not found")
		return
	}

	var passwordReq struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &passwordReq); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if passwordReq.CurrentPassword == "" || passwordReq.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "current password and new password are required")
		return
	}
	if err := h.authService.ValidatePassword(passwordReq.NewPassword); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err, "load user")
		return
	}
	if !h.authService.CheckPassword(passwordReq.CurrentPassword, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	newPasswordHash, err := h.authService.HashPassword(passwordReq.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user.PasswordHash = newPasswordHash
	if err := h.userCollection.UpdateUser(r.Context(), claims.UserID, *user); err != nil {
		writeStoreError(w, err, "update password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// ListUsers returns every account. Admin only.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userCollection.FindUsers(r.Context())
	if err != nil {
		writeStoreError(w, err, "list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}
