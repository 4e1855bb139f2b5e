package domain

import (
	"errors"
	"fmt"
)

// Magic code errors
var (
	ErrCodeInvalid           = errors.New("invalid or expired code")
	ErrCodeExpired           = errors.New("code has expired")
	ErrCodeAttemptsExhausted = errors.New("maximum verification attempts exceeded")
)

// Token errors
var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("malformed token")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
	ErrSessionRevoked  = errors.New("session has been revoked")
)

// Account errors
var (
	ErrStudentNotFound    = errors.New("no student account found for email")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
)

// TransportError is a non-2xx HTTP response from the Moodle web service.
type TransportError struct {
	StatusCode int
	Function   string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("moodle: %s returned HTTP %d", e.Function, e.StatusCode)
}

// APIError is a 2xx response from the Moodle web service carrying an
// exception/error/errorcode payload instead of data.
type APIError struct {
	Function  string
	Exception string
	ErrorCode string
	Message   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("moodle: %s failed: %s (%s)", e.Function, e.Message, e.ErrorCode)
}
