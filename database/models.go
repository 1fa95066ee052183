// Package database provides the record store behind the branch analytics service.
//
// This package includes:
//   - Database connection management using GORM and PostgreSQL
//   - Read-only full-scan access to appointments and the pet breed catalog
//   - Typed errors for repository failures
//
// Data Models:
//
//	Appointment and Pet are defined in the models_pkg package so the analytics
//	pipeline can depend on them without importing the connection code.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "petcare-analytics/database/models_pkg"
)

// Database holds the GORM database connection and provides access to the underlying DB instance.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access when needed.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes database connection using GORM
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db: db}, nil
}

// FromGorm wraps an already opened GORM handle
func FromGorm(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Core data models re-exported for callers that only import database
type Appointment = models.Appointment
type Pet = models.Pet
type PetTypeCatalog = models.PetTypeCatalog
