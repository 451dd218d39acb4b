package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"calendar-booking-server/internal/utils"
)

const (
	ctxEmail = "adminEmail"
	ctxRole  = "adminRole"
)

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := utils.ValidateToken(parts[1], secret)
		if err != nil {
			utils.Abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		// Set identity in context for downstream handlers
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxRole, claims.Role)

		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware for role-based authorization.
// It should be used *after* AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRoleFromContext(c)
		if !ok {
			utils.Abort(c, http.StatusInternalServerError, "Role not found in context. AuthMiddleware might be missing.")
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		utils.Abort(c, http.StatusForbidden, "You do not have permission to access this resource.")
	}
}

// GetEmailFromContext returns the authenticated email set by AuthMiddleware.
func GetEmailFromContext(c *gin.Context) (string, bool) {
	return c.GetString(ctxEmail), c.GetString(ctxEmail) != ""
}

// GetRoleFromContext returns the authenticated role set by AuthMiddleware.
func GetRoleFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxRole)
	if !exists {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
