package database

import (
	"dial2tech_backend/internal/models"

	"gorm.io/gorm"
)

// Migrate brings the schema up to date. The uuid-ossp extension backs the
// uuid_generate_v4 column defaults.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Enquiry{},
		&models.TechnicianQuote{},
		&models.Payment{},
		&models.Notification{},
		&models.DispatchOutbox{},
	)
}
