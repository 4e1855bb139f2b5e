package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Mishael-2584/odel-portal/domain"
)

// StudentSessionRepositoryImpl implements domain.StudentSessionRepository
// using GORM. Logout deactivates the row rather than deleting it, so the
// session history survives for auditing.
type StudentSessionRepositoryImpl struct {
	db *gorm.DB
}

// DBStudentSession represents the database model for StudentSession
type DBStudentSession struct {
	ID             string    `gorm:"primaryKey;size:64"`
	Email          string    `gorm:"index;size:255"`
	MoodleUserID   int       `gorm:"column:moodle_user_id;index"`
	MoodleUsername string    `gorm:"column:moodle_username;size:255"`
	StudentName    string    `gorm:"size:255"`
	Token          string    `gorm:"column:jwt_token;type:text"`
	ExpiresAt      time.Time `gorm:"index"`
	IPAddress      string    `gorm:"size:64"`
	UserAgent      string    `gorm:"size:512"`
	IsActive       bool      `gorm:"index"`
	CreatedAt      time.Time
}

// TableName returns the table name for GORM
func (DBStudentSession) TableName() string {
	return "student_sessions"
}

// NewStudentSessionRepository creates a new student session repository
func NewStudentSessionRepository(db *gorm.DB) domain.StudentSessionRepository {
	return &StudentSessionRepositoryImpl{db: db}
}

// Create implements domain.StudentSessionRepository
func (r *StudentSessionRepositoryImpl) Create(ctx context.Context, session *domain.StudentSession) error {
	return r.db.WithContext(ctx).Create(studentToDB(session)).Error
}

// FindByID returns a session row. An inactive row yields ErrSessionRevoked
// and an expired one ErrSessionExpired; both checks are independent of the
// token's own embedded expiry.
func (r *StudentSessionRepositoryImpl) FindByID(ctx context.Context, sessionID string) (*domain.StudentSession, error) {
	var dbSession DBStudentSession
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&dbSession).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	if !dbSession.IsActive {
		return nil, domain.ErrSessionRevoked
	}
	if dbSession.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	return studentToDomain(&dbSession), nil
}

// Deactivate implements logout: the row is kept, only is_active flips.
func (r *StudentSessionRepositoryImpl) Deactivate(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&DBStudentSession{}).
		Where("id = ?", sessionID).
		Update("is_active", false).Error
}

// DeactivateByEmail revokes every active session for an email.
func (r *StudentSessionRepositoryImpl) DeactivateByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Model(&DBStudentSession{}).
		Where("email = ? AND is_active = ?", email, true).
		Update("is_active", false).Error
}

func studentToDB(s *domain.StudentSession) *DBStudentSession {
	return &DBStudentSession{
		ID:             s.ID,
		Email:          s.Email,
		MoodleUserID:   s.MoodleUserID,
		MoodleUsername: s.MoodleUsername,
		StudentName:    s.StudentName,
		Token:          s.Token,
		ExpiresAt:      s.ExpiresAt,
		IPAddress:      s.IPAddress,
		UserAgent:      s.UserAgent,
		IsActive:       s.IsActive,
	}
}

func studentToDomain(s *DBStudentSession) *domain.StudentSession {
	return &domain.StudentSession{
		ID:             s.ID,
		Email:          s.Email,
		MoodleUserID:   s.MoodleUserID,
		MoodleUsername: s.MoodleUsername,
		StudentName:    s.StudentName,
		Token:          s.Token,
		ExpiresAt:      s.ExpiresAt,
		IPAddress:      s.IPAddress,
		UserAgent:      s.UserAgent,
		IsActive:       s.IsActive,
		CreatedAt:      s.CreatedAt,
	}
}

// AdminSessionRepositoryImpl implements domain.AdminSessionRepository
type AdminSessionRepositoryImpl struct {
	db *gorm.DB
}

// DBAdminSession represents the database model for AdminSession
type DBAdminSession struct {
	ID        string    `gorm:"primaryKey;size:64"`
	AdminID   uint      `gorm:"index"`
	Email     string    `gorm:"index;size:255"`
	Token     string    `gorm:"column:jwt_token;type:text"`
	ExpiresAt time.Time `gorm:"index"`
	IPAddress string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:512"`
	IsActive  bool      `gorm:"index"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (DBAdminSession) TableName() string {
	return "admin_sessions"
}

// NewAdminSessionRepository creates a new admin session repository
func NewAdminSessionRepository(db *gorm.DB) domain.AdminSessionRepository {
	return &AdminSessionRepositoryImpl{db: db}
}

// Create implements domain.AdminSessionRepository
func (r *AdminSessionRepositoryImpl) Create(ctx context.Context, session *domain.AdminSession) error {
	return r.db.WithContext(ctx).Create(&DBAdminSession{
		ID:        session.ID,
		AdminID:   session.AdminID,
		Email:     session.Email,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		IPAddress: session.IPAddress,
		UserAgent: session.UserAgent,
		IsActive:  session.IsActive,
	}).Error
}

// FindByID implements domain.AdminSessionRepository
func (r *AdminSessionRepositoryImpl) FindByID(ctx context.Context, sessionID string) (*domain.AdminSession, error) {
	var dbSession DBAdminSession
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&dbSession).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	if !dbSession.IsActive {
		return nil, domain.ErrSessionRevoked
	}
	if dbSession.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrSessionExpired
	}
	return &domain.AdminSession{
		ID:        dbSession.ID,
		AdminID:   dbSession.AdminID,
		Email:     dbSession.Email,
		Token:     dbSession.Token,
		ExpiresAt: dbSession.ExpiresAt,
		IPAddress: dbSession.IPAddress,
		UserAgent: dbSession.UserAgent,
		IsActive:  dbSession.IsActive,
		CreatedAt: dbSession.CreatedAt,
	}, nil
}

// Deactivate implements domain.AdminSessionRepository
func (r *AdminSessionRepositoryImpl) Deactivate(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&DBAdminSession{}).
		Where("id = ?", sessionID).
		Update("is_active", false).Error
}
