package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tourindo/tourism_api/internal/middleware"
	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/service"
	"github.com/tourindo/tourism_api/internal/utils"
)

// maxAvatarSize caps avatar uploads at 2 MB.
const maxAvatarSize = 2 << 20

// AuthHandler handles authentication and own-profile HTTP endpoints.
type AuthHandler struct {
	authService      *service.AuthService
	directoryService *service.DirectoryService
	hydrateTimeout   time.Duration
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService, directoryService *service.DirectoryService, hydrateTimeout time.Duration) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		directoryService: directoryService,
		hydrateTimeout:   hydrateTimeout,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// A pending or rejected account is not signed in, but it still
		// gets its session back so the dashboard can show the waiting
		// screen instead of the login form.
		if result != nil && (errors.Is(err, utils.ErrAwaitingApproval) || errors.Is(err, utils.ErrAccountRejected)) {
			utils.FailWithData(c, err, result)
			return
		}
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Login successful", result)
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 201, "Registration submitted, awaiting approval", result)
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	sessionID := middleware.GetSessionID(c)
	if admin == nil || sessionID == "" {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	h.authService.Logout(c.Request.Context(), sessionID, admin.ID)
	utils.Success(c, 200, "Logged out", nil)
}

// HydrateSession handles POST /v1/auth/session/hydrate
//
// Rebuilds the caller's session state from its bearer token. The response
// is always 200 with a phase field; connectivity problems surface as
// CONNECTION_ERROR rather than an HTTP failure so a stale snapshot can
// still be displayed.
func (h *AuthHandler) HydrateSession(c *gin.Context) {
	sessionID := ""
	token := extractBearer(c)
	if token != "" {
		if claims, err := utils.ValidateJWT(token); err == nil {
			sessionID = claims.ID
		}
	}

	manager := service.NewSessionManager(h.authService, sessionID, h.hydrateTimeout)
	state := manager.Hydrate(c.Request.Context())
	utils.Success(c, 200, "Session hydrated", state)
}

// Me handles GET /v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	utils.Success(c, 200, "Profile retrieved", gin.H{
		"admin":              admin,
		"capabilities":       models.CapabilitiesFor(admin.Role),
		"mustChangePassword": admin.MustChangePass,
	})
}

// UpdateProfile handles PUT /v1/auth/me
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	updated, err := h.directoryService.UpdateProfile(c.Request.Context(), admin.ID, req)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	// Keep the cached session snapshot in line with the new profile.
	if sessionID := middleware.GetSessionID(c); sessionID != "" {
		if _, err := h.authService.Refresh(c.Request.Context(), sessionID); err != nil {
			utils.Fail(c, err)
			return
		}
	}

	utils.Success(c, 200, "Profile updated", updated)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword handles PUT /v1/auth/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), admin.ID, req.CurrentPassword, req.NewPassword); err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Password changed", nil)
}

// UploadAvatar handles POST /v1/auth/me/avatar
func (h *AuthHandler) UploadAvatar(c *gin.Context) {
	admin := middleware.GetAdmin(c)
	if admin == nil {
		utils.Error(c, 401, "UNAUTHORIZED", "Not authenticated")
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing avatar file")
		return
	}
	defer file.Close()

	if header.Size > maxAvatarSize {
		utils.Error(c, 400, "FILE_TOO_LARGE", "Avatar must be at most 2 MB")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarSize+1))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Failed to read avatar file")
		return
	}
	if len(data) > maxAvatarSize {
		utils.Error(c, 400, "FILE_TOO_LARGE", "Avatar must be at most 2 MB")
		return
	}

	url, err := h.directoryService.UpdateAvatar(c.Request.Context(), admin.ID, data, header.Header.Get("Content-Type"))
	if err != nil {
		utils.Fail(c, err)
		return
	}

	utils.Success(c, 200, "Avatar uploaded", gin.H{"avatarUrl": url})
}

func extractBearer(c *gin.Context) string {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
