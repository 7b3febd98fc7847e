package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"threadhub/internal/core"
	"threadhub/pkg/models"
)

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware validates JWT token and sets user context
func AuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortWithError(c, models.NewError(models.KindUnauthenticated, "missing authorization header", nil))
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			abortWithError(c, models.NewError(models.KindUnauthenticated, "invalid authorization format", nil))
			return
		}

		user, err := authSvc.ValidateToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, models.NewError(models.KindUnauthenticated, "unauthorized", err))
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the user when a valid token is present and
// lets anonymous requests through
func OptionalAuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := authSvc.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", user)
			}
		}
		c.Next()
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetUser retrieves the full authenticated user from the context
func GetUser(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		return nil, false
	}

	u, ok := user.(*models.User)
	return u, ok
}

// RoleMiddleware ensures the user has at least the given role
func RoleMiddleware(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetUser(c)
		if !exists {
			abortWithError(c, models.ErrUnauthenticated)
			return
		}

		if !user.HasRole(role) {
			abortWithError(c, models.NewBackendRejected("forbidden: "+string(role)+" access required", 403))
			return
		}

		c.Next()
	}
}
