package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Mishael-2584/odel-portal/domain"
)

// MagicCodeRepositoryImpl implements domain.MagicCodeRepository using GORM
type MagicCodeRepositoryImpl struct {
	db *gorm.DB
}

// DBMagicCode represents the database model for MagicCode (with GORM tags)
type DBMagicCode struct {
	ID             uint      `gorm:"primaryKey"`
	Email          string    `gorm:"index;size:255"`
	Code           string    `gorm:"size:16"`
	MoodleUserID   int       `gorm:"column:moodle_user_id"`
	ExpiresAt      time.Time `gorm:"index"`
	IsUsed         bool      `gorm:"index"`
	AttemptedCount int
	CreatedAt      time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBMagicCode) TableName() string {
	return "magic_codes"
}

// NewMagicCodeRepository creates a new magic code repository
func NewMagicCodeRepository(db *gorm.DB) domain.MagicCodeRepository {
	return &MagicCodeRepositoryImpl{db: db}
}

// Create implements domain.MagicCodeRepository
func (r *MagicCodeRepositoryImpl) Create(ctx context.Context, code *domain.MagicCode) error {
	dbCode := r.domainToDB(code)
	if err := r.db.WithContext(ctx).Create(dbCode).Error; err != nil {
		return err
	}
	code.ID = dbCode.ID
	code.CreatedAt = dbCode.CreatedAt
	return nil
}

// FindLatestActive returns the most recently issued unused code for email.
// Prior unused codes are not invalidated on a new issue, so the latest row is
// the one a login attempt is verified against.
func (r *MagicCodeRepositoryImpl) FindLatestActive(ctx context.Context, email string) (*domain.MagicCode, error) {
	var dbCode DBMagicCode
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_used = ?", email, false).
		Order("created_at DESC").
		First(&dbCode).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrCodeInvalid
		}
		return nil, err
	}
	return r.dbToDomain(&dbCode), nil
}

// IncrementAttempts records one failed verification against a code row.
func (r *MagicCodeRepositoryImpl) IncrementAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&DBMagicCode{}).
		Where("id = ?", id).
		UpdateColumn("attempted_count", gorm.Expr("attempted_count + 1")).Error
}

// ConsumeByID marks a code used. The update is conditional on is_used still
// being false, so of two concurrent verifications exactly one observes
// rows-affected == 1 and wins.
func (r *MagicCodeRepositoryImpl) ConsumeByID(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&DBMagicCode{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteExpired removes code rows past their expiry, used or not.
func (r *MagicCodeRepositoryImpl) DeleteExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&DBMagicCode{}).Error
}

func (r *MagicCodeRepositoryImpl) domainToDB(code *domain.MagicCode) *DBMagicCode {
	return &DBMagicCode{
		ID:             code.ID,
		Email:          code.Email,
		Code:           code.Code,
		MoodleUserID:   code.MoodleUserID,
		ExpiresAt:      code.ExpiresAt,
		IsUsed:         code.IsUsed,
		AttemptedCount: code.AttemptedCount,
	}
}

func (r *MagicCodeRepositoryImpl) dbToDomain(dbCode *DBMagicCode) *domain.MagicCode {
	return &domain.MagicCode{
		ID:             dbCode.ID,
		Email:          dbCode.Email,
		Code:           dbCode.Code,
		MoodleUserID:   dbCode.MoodleUserID,
		ExpiresAt:      dbCode.ExpiresAt,
		IsUsed:         dbCode.IsUsed,
		AttemptedCount: dbCode.AttemptedCount,
		CreatedAt:      dbCode.CreatedAt,
	}
}
