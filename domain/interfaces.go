package domain

import (
	"context"
	"time"
)

// MoodleClient defines the read-only operations issued against the LMS web
// service. Implementations return an error when the fetch itself failed so
// callers can tell "zero results" apart from "LMS unreachable"; the fail-soft
// degradation to empty payloads happens one layer up, in the catalog service.
type MoodleClient interface {
	GetCourses(ctx context.Context) ([]Course, error)
	GetCategories(ctx context.Context) ([]Category, error)
	GetEnrolledUsers(ctx context.Context, courseID int) ([]MoodleUser, error)
	GetUserByID(ctx context.Context, userID int) (*MoodleUser, error)
	GetUserByEmail(ctx context.Context, email string) (*MoodleUser, error)
	GetUserCourses(ctx context.Context, userID int) ([]Course, error)
	GetUserRoles(ctx context.Context, courseID, userID int) ([]string, error)
}

// Cache is a keyed TTL cache. Get evicts and misses on stale entries; Set
// overwrites unconditionally, with an optional per-entry TTL override.
type Cache interface {
	Get(ctx context.Context, key string) (any, bool)
	Set(ctx context.Context, key string, value any, ttl ...time.Duration)
	Clear(ctx context.Context)
}

// MagicCodeRepository persists issued login codes. ConsumeByID must be an
// atomically-checked update (is_used flips false->true exactly once) so that
// two concurrent verifications of the same code cannot both succeed.
type MagicCodeRepository interface {
	Create(ctx context.Context, code *MagicCode) error
	FindLatestActive(ctx context.Context, email string) (*MagicCode, error)
	IncrementAttempts(ctx context.Context, id uint) error
	ConsumeByID(ctx context.Context, id uint) (bool, error)
	DeleteExpired(ctx context.Context) error
}

// StudentSessionRepository persists student session rows.
type StudentSessionRepository interface {
	Create(ctx context.Context, session *StudentSession) error
	FindByID(ctx context.Context, sessionID string) (*StudentSession, error)
	Deactivate(ctx context.Context, sessionID string) error
	DeactivateByEmail(ctx context.Context, email string) error
}

// AdminSessionRepository persists admin session rows.
type AdminSessionRepository interface {
	Create(ctx context.Context, session *AdminSession) error
	FindByID(ctx context.Context, sessionID string) (*AdminSession, error)
	Deactivate(ctx context.Context, sessionID string) error
}

// AdminRepository reads portal administrator accounts.
type AdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	FindByID(ctx context.Context, id uint) (*Admin, error)
}

// StudentClaims are the claims embedded in a student session token.
type StudentClaims struct {
	Email          string   `json:"email"`
	MoodleUserID   int      `json:"moodle_user_id"`
	MoodleUsername string   `json:"moodle_username"`
	StudentName    string   `json:"student_name"`
	Roles          []string `json:"roles"`
	SessionID      string   `json:"session_id"`
	IssuedAt       int64    `json:"iat"`
	ExpiresAt      int64    `json:"exp"`
}

// AdminClaims are the claims embedded in an admin session token.
type AdminClaims struct {
	AdminID   uint   `json:"admin_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// TokenService mints and validates signed session tokens. Validation fails
// closed: any signature, shape, or expiry problem yields an error and no
// claims.
type TokenService interface {
	GenerateStudentToken(claims *StudentClaims) (string, error)
	GenerateAdminToken(claims *AdminClaims) (string, error)
	ValidateStudentToken(token string) (*StudentClaims, error)
	ValidateAdminToken(token string) (*AdminClaims, error)
}

// PasswordService hashes and verifies admin passwords.
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// MailerService dispatches templated mail through the portal mailer endpoint.
type MailerService interface {
	SendMagicCode(ctx context.Context, to, studentName, code string, expiryMinutes int) error
}

// AuthService is the passwordless student login and admin login flow.
type AuthService interface {
	RequestMagicCode(ctx context.Context, email string) error
	VerifyMagicCode(ctx context.Context, email, code, ip, userAgent string) (*AuthResult, error)
	AdminLogin(ctx context.Context, email, password, ip, userAgent string) (*AuthResult, error)
	ValidateStudentSession(ctx context.Context, token string) (*StudentClaims, error)
	ValidateAdminSession(ctx context.Context, token string) (*AdminClaims, error)
	Logout(ctx context.Context, sessionID string) error
	AdminLogout(ctx context.Context, sessionID string) error
}

// CatalogService serves cached LMS catalog data. Operations return an error
// when the LMS is unreachable; the HTTP handlers translate that into the
// degraded empty-payload responses the portal front end expects.
type CatalogService interface {
	ListCourses(ctx context.Context, opts CourseListOptions) ([]Course, int, error)
	GetCourse(ctx context.Context, courseID int) (*Course, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CategoryTree(ctx context.Context) (CategoryTree, error)
	CategoryPath(ctx context.Context, categoryID int) ([]PathSegment, error)
	CourseEnrollment(ctx context.Context, courseID int) (*CourseEnrollmentStats, error)
	CourseStatistics(ctx context.Context) (*CourseStats, error)
	CategoryStatistics(ctx context.Context, categoryID int) (*CategoryStats, error)
	UserCourses(ctx context.Context, userID int) ([]Course, error)
	UserRoles(ctx context.Context, courseID, userID int) ([]string, error)
	ClearCache(ctx context.Context)
}

// CourseListOptions filters and paginates ListCourses. Filtering runs
// in-process over the full cached course list, not on the remote query.
type CourseListOptions struct {
	CategoryID int
	Search     string
	Offset     int
	Limit      int
}
