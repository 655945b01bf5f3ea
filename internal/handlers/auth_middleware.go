package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stemhub-africa/stemhub-service/internal/models"
	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
)

// AuthMiddleware resolves the caller from a bearer token or the session cookie
type AuthMiddleware struct {
	sessions   services.SessionService
	cookieName string
	appBaseURL string
	logger     utils.Logger
}

// NewAuthMiddleware builds the gate. Browser navigations that fail it are sent to appBaseURL's login page.
func NewAuthMiddleware(sessions services.SessionService, cookieName, appBaseURL string, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions:   sessions,
		cookieName: cookieName,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
		logger:     logger,
	}
}

// RequireAuth bootstraps the platform user for the presented token
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.tokenFromRequest(c)
		if token == "" {
			am.deny(c, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := am.sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			utils.LoggerFromContext(c, am.logger).Warn("Authentication failed", "error", err, "path", c.Request.URL.Path)
			am.deny(c, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)

		c.Next()
	}
}

// RequireRole admits users holding one of roles. Admins pass every gate.
func (am *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			am.deny(c, http.StatusUnauthorized, "authentication required")
			return
		}

		if role != models.RoleAdmin && !slices.Contains(roles, role) {
			am.deny(c, http.StatusForbidden, fmt.Sprintf("insufficient permissions, required role: %v", roles))
			return
		}

		c.Next()
	}
}

func (am *AuthMiddleware) tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := c.Cookie(am.cookieName); err == nil {
		return cookie
	}
	return ""
}

// deny sends browser navigations to the app's login page and answers API calls with JSON
func (am *AuthMiddleware) deny(c *gin.Context, status int, message string) {
	if wantsHTML(c) {
		c.Redirect(http.StatusFound, am.appBaseURL+"/login?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	}

	errorCode := "unauthorized"
	if status == http.StatusForbidden {
		errorCode = "forbidden"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: errorCode})
}

func wantsHTML(c *gin.Context) bool {
	return c.Request.Method == http.MethodGet && strings.Contains(c.GetHeader("Accept"), "text/html")
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
