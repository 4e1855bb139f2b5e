package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Mishael-2584/odel-portal/domain"
)

// AdminRepositoryImpl implements domain.AdminRepository using GORM
type AdminRepositoryImpl struct {
	db *gorm.DB
}

// DBAdmin represents the database model for Admin
type DBAdmin struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"column:password"`
	Name         string `gorm:"size:255"`
	Role         string `gorm:"index;size:64"`
	IsActive     bool   `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (DBAdmin) TableName() string {
	return "admins"
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *gorm.DB) domain.AdminRepository {
	return &AdminRepositoryImpl{db: db}
}

// FindByEmail implements domain.AdminRepository
func (r *AdminRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var dbAdmin DBAdmin
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&dbAdmin).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrAdminNotFound
		}
		return nil, err
	}
	return adminToDomain(&dbAdmin), nil
}

// FindByID implements domain.AdminRepository
func (r *AdminRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Admin, error) {
	var dbAdmin DBAdmin
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbAdmin).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrAdminNotFound
		}
		return nil, err
	}
	return adminToDomain(&dbAdmin), nil
}

func adminToDomain(a *DBAdmin) *domain.Admin {
	return &domain.Admin{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Name:         a.Name,
		Role:         a.Role,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
