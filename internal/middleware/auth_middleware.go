// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"neusentra-service/internal/pkg/response"
	"neusentra-service/internal/pkg/token"
)

// TokenValidator verifies an access token and its live session.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (*token.Claims, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Auth validates the Bearer token and requires its session to still be
// live in the cache. A structurally valid token for a logged-out session
// is rejected.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.validator.ValidateAccessToken(c.Request.Context(), raw)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}

		c.Set("login_id", claims.LoginID)
		c.Set("user_id", claims.UserID)
		c.Set("name", claims.Name)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header.
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// GetLoginID gets the login id from context.
func GetLoginID(c *gin.Context) (string, bool) {
	loginID, exists := c.Get("login_id")
	if !exists {
		return "", false
	}

	id, ok := loginID.(string)
	return id, ok
}

// MustGetLoginID gets the login id from context or panics.
func MustGetLoginID(c *gin.Context) string {
	loginID, exists := GetLoginID(c)
	if !exists {
		panic("login_id not found in context")
	}
	return loginID
}

// GetRole gets the caller's role from context.
func GetRole(c *gin.Context) string {
	role, exists := c.Get("role")
	if !exists {
		return ""
	}

	r, ok := role.(string)
	if !ok {
		return ""
	}
	return r
}
