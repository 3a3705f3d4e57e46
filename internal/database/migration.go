package database

import (
	"fmt"

	"github.com/muhfadtz/TrackFinance/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Profile{},
		&models.Wallet{},
		&models.Transaction{},
		&models.Goal{},
		&models.Debt{},
		&models.AuditLog{},
		&models.Backup{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
