package database

import (
	"brix-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers (e.g. PgBouncer).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for all ledger models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Platform{},
		&models.Principal{},
		&models.Property{},
		&models.ShareBalance{},
		&models.PayoutRound{},
		&models.ClaimRecord{},
		&models.ShareReservation{},
		&models.LedgerTransaction{},
		&models.Account{},
	)
}

// EnsurePlatform seeds the single Platform row with the genesis admin if it
// does not exist yet. The admin is fixed afterwards; re-running with a
// different value does not rotate it.
func EnsurePlatform(db *gorm.DB, admin string) error {
	var p models.Platform
	err := db.Where("id = ?", 1).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return db.Create(&models.Platform{ID: 1, Admin: admin}).Error
	}
	return err
}
