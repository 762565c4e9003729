package middleware

import (
	"net/http"
	"strings"

	"oahelper-api/internal/api/respond"
	"oahelper-api/internal/domain/session"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(sessions *session.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Abort(c, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			respond.Abort(c, http.StatusUnauthorized, "Bearer token malformed")
			return
		}

		claims, err := sessions.Parse(strings.TrimSpace(tokenString))
		if err != nil {
			respond.Abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			respond.Abort(c, http.StatusUnauthorized, "Role not found in token")
			return
		}

		if value != role {
			respond.Abort(c, http.StatusForbidden, "Access denied")
			return
		}

		c.Next()
	}
}
