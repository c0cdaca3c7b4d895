package database

import (
	"fmt"

	"marketplace-app/internal/domain/lessons"
	"marketplace-app/internal/domain/purchases"
	"marketplace-app/internal/domain/reviews"
	"marketplace-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the postgres connection and migrates every domain model.
// The handle is returned to the caller; nothing in this package holds on
// to it.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return nil, fmt.Errorf("enable pgcrypto: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs AutoMigrate for all models. Split out so the sqlite-backed
// tests can reuse it.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&users.User{},
		&lessons.Lesson{},
		&purchases.Purchase{},
		&reviews.Review{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
