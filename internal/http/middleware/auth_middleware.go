package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Mishael-2584/odel-portal/domain"
)

// AuthMW wraps the auth service for route middleware. Both middlewares
// check the persisted session row through the service, never the token
// alone, so a logged-out session is rejected before its token expires.
type AuthMW struct {
	authSvc domain.AuthService
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(authSvc domain.AuthService) *AuthMW {
	return &AuthMW{authSvc: authSvc}
}

// StudentAuth returns middleware requiring a valid student session.
func (mw *AuthMW) StudentAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := mw.authSvc.ValidateStudentSession(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": rejectionMessage(err)})
			c.Abort()
			return
		}

		c.Set("student_claims", claims)
		c.Set("session_id", claims.SessionID)
		c.Next()
	}
}

// AdminAuth returns middleware requiring a valid admin session. On success
// the admin's role is placed in context for the casbin enforcer.
func (mw *AuthMW) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := mw.authSvc.ValidateAdminSession(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": rejectionMessage(err)})
			c.Abort()
			return
		}

		c.Set("admin_claims", claims)
		c.Set("session_id", claims.SessionID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrSessionExpired):
		return "Session expired"
	case errors.Is(err, domain.ErrSessionRevoked):
		return "Session has been logged out"
	default:
		return "Invalid session"
	}
}
