package mocks

import (
	"context"

	"github.com/Mishael-2584/odel-portal/domain"
)

// MockTokenService implements domain.TokenService for testing
type MockTokenService struct {
	GenerateStudentTokenFunc func(claims *domain.StudentClaims) (string, error)
	GenerateAdminTokenFunc   func(claims *domain.AdminClaims) (string, error)
	ValidateStudentTokenFunc func(token string) (*domain.StudentClaims, error)
	ValidateAdminTokenFunc   func(token string) (*domain.AdminClaims, error)
}

// NewMockTokenService creates a new MockTokenService
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

func (m *MockTokenService) GenerateStudentToken(claims *domain.StudentClaims) (string, error) {
	if m.GenerateStudentTokenFunc != nil {
		return m.GenerateStudentTokenFunc(claims)
	}
	return "mock_student_token", nil
}

func (m *MockTokenService) GenerateAdminToken(claims *domain.AdminClaims) (string, error) {
	if m.GenerateAdminTokenFunc != nil {
		return m.GenerateAdminTokenFunc(claims)
	}
	return "mock_admin_token", nil
}

func (m *MockTokenService) ValidateStudentToken(token string) (*domain.StudentClaims, error) {
	if m.ValidateStudentTokenFunc != nil {
		return m.ValidateStudentTokenFunc(token)
	}
	return nil, domain.ErrTokenInvalid
}

func (m *MockTokenService) ValidateAdminToken(token string) (*domain.AdminClaims, error) {
	if m.ValidateAdminTokenFunc != nil {
		return m.ValidateAdminTokenFunc(token)
	}
	return nil, domain.ErrTokenInvalid
}

var _ domain.TokenService = (*MockTokenService)(nil)

// MockPasswordService implements domain.PasswordService for testing
type MockPasswordService struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(hashedPassword, password string) bool
}

// NewMockPasswordService creates a new MockPasswordService
func NewMockPasswordService() *MockPasswordService {
	return &MockPasswordService{}
}

func (m *MockPasswordService) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed_" + password, nil
}

func (m *MockPasswordService) Verify(hashedPassword, password string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hashedPassword, password)
	}
	return hashedPassword == "hashed_"+password
}

var _ domain.PasswordService = (*MockPasswordService)(nil)

// MockMailerService implements domain.MailerService for testing
type MockMailerService struct {
	SendMagicCodeFunc func(ctx context.Context, to, studentName, code string, expiryMinutes int) error
	SentCodes         []string
}

// NewMockMailerService creates a new MockMailerService
func NewMockMailerService() *MockMailerService {
	return &MockMailerService{}
}

func (m *MockMailerService) SendMagicCode(ctx context.Context, to, studentName, code string, expiryMinutes int) error {
	m.SentCodes = append(m.SentCodes, code)
	if m.SendMagicCodeFunc != nil {
		return m.SendMagicCodeFunc(ctx, to, studentName, code, expiryMinutes)
	}
	return nil
}

var _ domain.MailerService = (*MockMailerService)(nil)

// MockAuthService implements domain.AuthService for testing handlers
type MockAuthService struct {
	RequestMagicCodeFunc       func(ctx context.Context, email string) error
	VerifyMagicCodeFunc        func(ctx context.Context, email, code, ip, userAgent string) (*domain.AuthResult, error)
	AdminLoginFunc             func(ctx context.Context, email, password, ip, userAgent string) (*domain.AuthResult, error)
	ValidateStudentSessionFunc func(ctx context.Context, token string) (*domain.StudentClaims, error)
	ValidateAdminSessionFunc   func(ctx context.Context, token string) (*domain.AdminClaims, error)
	LogoutFunc                 func(ctx context.Context, sessionID string) error
	AdminLogoutFunc            func(ctx context.Context, sessionID string) error
}

// NewMockAuthService creates a new MockAuthService
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) RequestMagicCode(ctx context.Context, email string) error {
	if m.RequestMagicCodeFunc != nil {
		return m.RequestMagicCodeFunc(ctx, email)
	}
	return nil
}

func (m *MockAuthService) VerifyMagicCode(ctx context.Context, email, code, ip, userAgent string) (*domain.AuthResult, error) {
	if m.VerifyMagicCodeFunc != nil {
		return m.VerifyMagicCodeFunc(ctx, email, code, ip, userAgent)
	}
	return nil, domain.ErrCodeInvalid
}

func (m *MockAuthService) AdminLogin(ctx context.Context, email, password, ip, userAgent string) (*domain.AuthResult, error) {
	if m.AdminLoginFunc != nil {
		return m.AdminLoginFunc(ctx, email, password, ip, userAgent)
	}
	return nil, domain.ErrInvalidCredentials
}

func (m *MockAuthService) ValidateStudentSession(ctx context.Context, token string) (*domain.StudentClaims, error) {
	if m.ValidateStudentSessionFunc != nil {
		return m.ValidateStudentSessionFunc(ctx, token)
	}
	return nil, domain.ErrTokenInvalid
}

func (m *MockAuthService) ValidateAdminSession(ctx context.Context, token string) (*domain.AdminClaims, error) {
	if m.ValidateAdminSessionFunc != nil {
		return m.ValidateAdminSessionFunc(ctx, token)
	}
	return nil, domain.ErrTokenInvalid
}

func (m *MockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockAuthService) AdminLogout(ctx context.Context, sessionID string) error {
	if m.AdminLogoutFunc != nil {
		return m.AdminLogoutFunc(ctx, sessionID)
	}
	return nil
}

var _ domain.AuthService = (*MockAuthService)(nil)

// MockCatalogService implements domain.CatalogService for testing handlers
type MockCatalogService struct {
	ListCoursesFunc        func(ctx context.Context, opts domain.CourseListOptions) ([]domain.Course, int, error)
	GetCourseFunc          func(ctx context.Context, courseID int) (*domain.Course, error)
	ListCategoriesFunc     func(ctx context.Context) ([]domain.Category, error)
	CategoryTreeFunc       func(ctx context.Context) (domain.CategoryTree, error)
	CategoryPathFunc       func(ctx context.Context, categoryID int) ([]domain.PathSegment, error)
	CourseEnrollmentFunc   func(ctx context.Context, courseID int) (*domain.CourseEnrollmentStats, error)
	CourseStatisticsFunc   func(ctx context.Context) (*domain.CourseStats, error)
	CategoryStatisticsFunc func(ctx context.Context, categoryID int) (*domain.CategoryStats, error)
	UserCoursesFunc        func(ctx context.Context, userID int) ([]domain.Course, error)
	UserRolesFunc          func(ctx context.Context, courseID, userID int) ([]string, error)
	ClearCacheFunc         func(ctx context.Context)
	ClearCacheCalls        int
}

// NewMockCatalogService creates a new MockCatalogService
func NewMockCatalogService() *MockCatalogService {
	return &MockCatalogService{}
}

func (m *MockCatalogService) ListCourses(ctx context.Context, opts domain.CourseListOptions) ([]domain.Course, int, error) {
	if m.ListCoursesFunc != nil {
		return m.ListCoursesFunc(ctx, opts)
	}
	return []domain.Course{}, 0, nil
}

func (m *MockCatalogService) GetCourse(ctx context.Context, courseID int) (*domain.Course, error) {
	if m.GetCourseFunc != nil {
		return m.GetCourseFunc(ctx, courseID)
	}
	return nil, nil
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	return []domain.Category{}, nil
}

func (m *MockCatalogService) CategoryTree(ctx context.Context) (domain.CategoryTree, error) {
	if m.CategoryTreeFunc != nil {
		return m.CategoryTreeFunc(ctx)
	}
	return domain.CategoryTree{}, nil
}

func (m *MockCatalogService) CategoryPath(ctx context.Context, categoryID int) ([]domain.PathSegment, error) {
	if m.CategoryPathFunc != nil {
		return m.CategoryPathFunc(ctx, categoryID)
	}
	return []domain.PathSegment{}, nil
}

func (m *MockCatalogService) CourseEnrollment(ctx context.Context, courseID int) (*domain.CourseEnrollmentStats, error) {
	if m.CourseEnrollmentFunc != nil {
		return m.CourseEnrollmentFunc(ctx, courseID)
	}
	return &domain.CourseEnrollmentStats{CourseID: courseID}, nil
}

func (m *MockCatalogService) CourseStatistics(ctx context.Context) (*domain.CourseStats, error) {
	if m.CourseStatisticsFunc != nil {
		return m.CourseStatisticsFunc(ctx)
	}
	return &domain.CourseStats{CoursesByCategory: map[int]int{}}, nil
}

func (m *MockCatalogService) CategoryStatistics(ctx context.Context, categoryID int) (*domain.CategoryStats, error) {
	if m.CategoryStatisticsFunc != nil {
		return m.CategoryStatisticsFunc(ctx, categoryID)
	}
	return &domain.CategoryStats{CategoryID: categoryID}, nil
}

func (m *MockCatalogService) UserCourses(ctx context.Context, userID int) ([]domain.Course, error) {
	if m.UserCoursesFunc != nil {
		return m.UserCoursesFunc(ctx, userID)
	}
	return []domain.Course{}, nil
}

func (m *MockCatalogService) UserRoles(ctx context.Context, courseID, userID int) ([]string, error) {
	if m.UserRolesFunc != nil {
		return m.UserRolesFunc(ctx, courseID, userID)
	}
	return []string{}, nil
}

func (m *MockCatalogService) ClearCache(ctx context.Context) {
	m.ClearCacheCalls++
	if m.ClearCacheFunc != nil {
		m.ClearCacheFunc(ctx)
	}
}

var _ domain.CatalogService = (*MockCatalogService)(nil)
