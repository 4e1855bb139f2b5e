package mocks

import (
	"context"

	"github.com/Mishael-2584/odel-portal/domain"
)

// MockMagicCodeRepository implements domain.MagicCodeRepository for testing
type MockMagicCodeRepository struct {
	CreateFunc            func(ctx context.Context, code *domain.MagicCode) error
	FindLatestActiveFunc  func(ctx context.Context, email string) (*domain.MagicCode, error)
	IncrementAttemptsFunc func(ctx context.Context, id uint) error
	ConsumeByIDFunc       func(ctx context.Context, id uint) (bool, error)
	DeleteExpiredFunc     func(ctx context.Context) error
}

// NewMockMagicCodeRepository creates a new MockMagicCodeRepository
func NewMockMagicCodeRepository() *MockMagicCodeRepository {
	return &MockMagicCodeRepository{}
}

func (m *MockMagicCodeRepository) Create(ctx context.Context, code *domain.MagicCode) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, code)
	}
	return nil
}

func (m *MockMagicCodeRepository) FindLatestActive(ctx context.Context, email string) (*domain.MagicCode, error) {
	if m.FindLatestActiveFunc != nil {
		return m.FindLatestActiveFunc(ctx, email)
	}
	return nil, domain.ErrCodeInvalid
}

func (m *MockMagicCodeRepository) IncrementAttempts(ctx context.Context, id uint) error {
	if m.IncrementAttemptsFunc != nil {
		return m.IncrementAttemptsFunc(ctx, id)
	}
	return nil
}

func (m *MockMagicCodeRepository) ConsumeByID(ctx context.Context, id uint) (bool, error) {
	if m.ConsumeByIDFunc != nil {
		return m.ConsumeByIDFunc(ctx, id)
	}
	return true, nil
}

func (m *MockMagicCodeRepository) DeleteExpired(ctx context.Context) error {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	return nil
}

var _ domain.MagicCodeRepository = (*MockMagicCodeRepository)(nil)

// MockStudentSessionRepository implements domain.StudentSessionRepository
// for testing
type MockStudentSessionRepository struct {
	CreateFunc            func(ctx context.Context, session *domain.StudentSession) error
	FindByIDFunc          func(ctx context.Context, sessionID string) (*domain.StudentSession, error)
	DeactivateFunc        func(ctx context.Context, sessionID string) error
	DeactivateByEmailFunc func(ctx context.Context, email string) error
}

// NewMockStudentSessionRepository creates a new MockStudentSessionRepository
func NewMockStudentSessionRepository() *MockStudentSessionRepository {
	return &MockStudentSessionRepository{}
}

func (m *MockStudentSessionRepository) Create(ctx context.Context, session *domain.StudentSession) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

func (m *MockStudentSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.StudentSession, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, sessionID)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockStudentSessionRepository) Deactivate(ctx context.Context, sessionID string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockStudentSessionRepository) DeactivateByEmail(ctx context.Context, email string) error {
	if m.DeactivateByEmailFunc != nil {
		return m.DeactivateByEmailFunc(ctx, email)
	}
	return nil
}

var _ domain.StudentSessionRepository = (*MockStudentSessionRepository)(nil)

// MockAdminSessionRepository implements domain.AdminSessionRepository for
// testing
type MockAdminSessionRepository struct {
	CreateFunc     func(ctx context.Context, session *domain.AdminSession) error
	FindByIDFunc   func(ctx context.Context, sessionID string) (*domain.AdminSession, error)
	DeactivateFunc func(ctx context.Context, sessionID string) error
}

// NewMockAdminSessionRepository creates a new MockAdminSessionRepository
func NewMockAdminSessionRepository() *MockAdminSessionRepository {
	return &MockAdminSessionRepository{}
}

func (m *MockAdminSessionRepository) Create(ctx context.Context, session *domain.AdminSession) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

func (m *MockAdminSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.AdminSession, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, sessionID)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockAdminSessionRepository) Deactivate(ctx context.Context, sessionID string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, sessionID)
	}
	return nil
}

var _ domain.AdminSessionRepository = (*MockAdminSessionRepository)(nil)

// MockAdminRepository implements domain.AdminRepository for testing
type MockAdminRepository struct {
	FindByEmailFunc func(ctx context.Context, email string) (*domain.Admin, error)
	FindByIDFunc    func(ctx context.Context, id uint) (*domain.Admin, error)
}

// NewMockAdminRepository creates a new MockAdminRepository
func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{}
}

func (m *MockAdminRepository) FindByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	return nil, domain.ErrAdminNotFound
}

func (m *MockAdminRepository) FindByID(ctx context.Context, id uint) (*domain.Admin, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrAdminNotFound
}

var _ domain.AdminRepository = (*MockAdminRepository)(nil)
