// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"feedranker/internal/utils"
)

// AuthMiddleware resolves the caller's identity from a bearer access token.
// Issuing/refreshing tokens, passwords, and account state are the external
// auth collaborator's job; this middleware only verifies the token and
// extracts the subject user id.
type AuthMiddleware struct {
	jwt *utils.JWTService
}

func NewAuthMiddleware(jwt *utils.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

// RequireAuth rejects requests without a valid access token.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.extractToken(c)
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, utils.ErrUnauthorized, "missing token")
			c.Abort()
			return
		}

		claims, err := am.jwt.ValidateAccessToken(token)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, utils.ErrInvalidToken, err.Error())
			c.Abort()
			return
		}

		c.Set(utils.ContextUserID, claims.UserID)
		c.Next()
	}
}

// OptionalAuth resolves identity when present but never rejects the request.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.extractToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, err := am.jwt.ValidateAccessToken(token)
		if err != nil {
			c.Next()
			return
		}
		c.Set(utils.ContextUserID, claims.UserID)
		c.Next()
	}
}

func (am *AuthMiddleware) extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	return ""
}

// GetCurrentUserID reads the identity resolved by RequireAuth/OptionalAuth.
func GetCurrentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(utils.ContextUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// IsAuthenticated reports whether the request carried a resolved identity.
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(utils.ContextUserID)
	return exists
}
