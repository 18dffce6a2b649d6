package database

import (
	"fmt"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM and applies the
// schema migration once at startup. Engine components assume the schema
// exists and fail fast when it does not; no DDL is issued per call.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	return db, nil
}

// Migrate applies the schema for all core models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.TaxRule{},
		&model.Job{},
		&model.AuditRecord{},
		&model.SimulationRun{},
		&model.ReconciliationRun{},
	)
}
