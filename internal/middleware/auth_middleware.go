package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tourindo/tourism_api/internal/models"
	"github.com/tourindo/tourism_api/internal/service"
	"github.com/tourindo/tourism_api/internal/utils"
)

// AuthMiddleware authenticates dashboard requests: it validates the
// session token and checks the backend session is still live and bound to
// an existing identity. Authorization stays in the workflow services; the
// middleware only gates on capabilities where a route demands one.
type AuthMiddleware struct {
	authService *service.AuthService
	rateLimiter *InvalidAuthRateLimiter
}

// NewAuthMiddleware constructs a new AuthMiddleware.
func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		rateLimiter: NewInvalidAuthRateLimiter(),
	}
}

// Handle returns a Gin middleware function that enforces authentication.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Bearer token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			m.handleAuthError(c, "INVALID_TOKEN", "Missing or invalid authorization header")
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		// 2. Validate the token signature and expiry
		claims, err := utils.ValidateJWT(token)
		if err != nil {
			m.handleAuthError(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		// 3. The token is only as alive as its backend session record.
		// An infrastructure fault here is not an authentication failure:
		// it must not sign the client out or count against the
		// invalid-auth limiter.
		admin, err := m.authService.Verify(c.Request.Context(), claims.ID)
		if err != nil {
			if utils.IsKind(err, utils.KindTransient) {
				utils.Fail(c, err)
				c.Abort()
				return
			}
			m.handleAuthError(c, utils.AsAppError(err).Code, "Session is no longer valid")
			return
		}

		// 4. Pending and rejected accounts hold a session but are not
		// signed in; they may only reach the session endpoints.
		c.Set("admin", admin)
		c.Set("admin_id", admin.ID)
		c.Set("session_id", claims.ID)
		c.Set("email", admin.Email)

		c.Next()
	}
}

// RequireActive rejects pending or rejected accounts on routes that need
// a signed-in admin.
func (m *AuthMiddleware) RequireActive() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := GetAdmin(c)
		if admin == nil || !admin.Active() {
			utils.Fail(c, utils.ErrAwaitingApproval)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCapability gates a route on one resolved capability. The
// capability set is data derived from the role in exactly one place.
func (m *AuthMiddleware) RequireCapability(check func(models.Capabilities) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := GetAdmin(c)
		if admin == nil || !check(models.CapabilitiesFor(admin.Role)) {
			utils.Fail(c, utils.ErrNotAuthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) handleAuthError(c *gin.Context, code, message string) {
	// Apply rate limit for invalid auth attempts
	ip := c.ClientIP()
	if !m.rateLimiter.Allow(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, 401, code, message)
	c.Abort()
}

// GetAdmin returns the authenticated admin identity from context.
func GetAdmin(c *gin.Context) *models.AdminIdentity {
	admin, _ := c.Get("admin")
	if admin == nil {
		return nil
	}
	return admin.(*models.AdminIdentity)
}

// GetSessionID returns the backend session id bound to this request.
func GetSessionID(c *gin.Context) string {
	return c.GetString("session_id")
}
