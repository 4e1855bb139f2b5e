package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Mishael-2584/odel-portal/internal/infrastructure/repositories"
)

// Open creates the portal database connection.
func Open(dsn string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	return gorm.Open(postgres.Open(dsn), config)
}

// AutoMigrate creates the magic code, session, and admin tables.
func AutoMigrate(db *gorm.DB) error {
	models := []any{
		&repositories.DBMagicCode{},
		&repositories.DBStudentSession{},
		&repositories.DBAdminSession{},
		&repositories.DBAdmin{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate portal tables: %w", err)
	}
	return nil
}
