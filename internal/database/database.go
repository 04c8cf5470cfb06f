package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/paperbase/paperbase/internal/config"
	"github.com/paperbase/paperbase/internal/model"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.IsDevelopment() {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	// The vector type must exist before gorm creates the units table.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&model.Item{},
		&model.Unit{},
	); err != nil {
		return err
	}

	// Similarity scans always filter by owner, source file, and status, so
	// keep the covering btree index alongside the vector column.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_units_retrieval ON units (owner_id, source_file_id, embedding_status)",
	).Error
}
