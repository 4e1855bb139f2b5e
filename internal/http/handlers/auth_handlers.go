package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mishael-2584/odel-portal/domain"
)

// AuthHandlers handles student and admin authentication HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc}
}

// MagicCodeRequest asks for a login code to be emailed
type MagicCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyRequest submits an emailed code for verification
type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// AdminLoginRequest represents admin login credentials
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RequestMagicCode handles login code issuance. The response does not reveal
// whether an email maps to a student account.
func (h *AuthHandlers) RequestMagicCode(c *gin.Context) {
	var req MagicCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.authSvc.RequestMagicCode(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, domain.ErrStudentNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send login code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"message": "If the email is registered, a login code has been sent",
		},
	})
}

// Verify handles magic code verification and session issuance
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.VerifyMagicCode(c.Request.Context(), req.Email, req.Code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodeInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired code"})
		case errors.Is(err, domain.ErrCodeExpired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Code has expired, request a new one"})
		case errors.Is(err, domain.ErrCodeAttemptsExhausted):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many attempts, request a new code"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"token":      result.Token,
			"token_type": "Bearer",
			"expires_in": result.ExpiresIn,
			"student": gin.H{
				"email":           result.Student.Email,
				"moodle_user_id":  result.Student.MoodleUserID,
				"moodle_username": result.Student.MoodleUsername,
				"student_name":    result.Student.StudentName,
				"roles":           result.Student.Roles,
			},
		},
	})
}

// AdminLogin handles admin password login
func (h *AuthHandlers) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authSvc.AdminLogin(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		case errors.Is(err, domain.ErrAccountInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is inactive"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"token":      result.Token,
			"token_type": "Bearer",
			"expires_in": result.ExpiresIn,
			"admin": gin.H{
				"id":    result.Admin.AdminID,
				"email": result.Admin.Email,
				"name":  result.Admin.Name,
				"role":  result.Admin.Role,
			},
		},
	})
}

// Me returns the authenticated student's profile from their session claims
func (h *AuthHandlers) Me(c *gin.Context) {
	claims, exists := c.Get("student_claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session claims not found"})
		return
	}
	student := claims.(*domain.StudentClaims)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"email":           student.Email,
			"moodle_user_id":  student.MoodleUserID,
			"moodle_username": student.MoodleUsername,
			"student_name":    student.StudentName,
			"roles":           student.Roles,
		},
	})
}

// Logout deactivates the authenticated student's session row
func (h *AuthHandlers) Logout(c *gin.Context) {
	sessionID, exists := c.Get("session_id")
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID not found"})
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), sessionID.(string)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"message": "Logged out successfully"},
	})
}

// AdminLogout deactivates the authenticated admin's session row
func (h *AuthHandlers) AdminLogout(c *gin.Context) {
	sessionID, exists := c.Get("session_id")
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID not found"})
		return
	}

	if err := h.authSvc.AdminLogout(c.Request.Context(), sessionID.(string)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"message": "Logged out successfully"},
	})
}
