package database

import (
	"context"
	"fmt"
	"log"
)

// RecordRepository reads appointment and pet records for analytics.
// Analytics never writes appointments; only the schema is managed here.
type RecordRepository struct {
	db *Database
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *Database) *RecordRepository {
	return &RecordRepository{db: db}
}

// InitSchema performs auto-migration of the tables the pipeline reads
func (r *RecordRepository) InitSchema() error {
	fmt.Println("🔄 Starting database schema initialization...")

	if err := r.db.db.AutoMigrate(&Appointment{}, &Pet{}); err != nil {
		return WrapDBError("InitSchema", fmt.Errorf("auto-migration failed: %w", err))
	}

	fmt.Println("✅ Database schema ready")
	return nil
}

// ListAppointments returns every appointment. No filter is pushed down:
// the aggregator buckets the whole history.
func (r *RecordRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	var appointments []Appointment
	if err := r.db.db.WithContext(ctx).Find(&appointments).Error; err != nil {
		return nil, WrapDBError("ListAppointments", err)
	}
	return appointments, nil
}

// ListPets returns every pet breed entry
func (r *RecordRepository) ListPets(ctx context.Context) ([]Pet, error) {
	var pets []Pet
	if err := r.db.db.WithContext(ctx).Find(&pets).Error; err != nil {
		return nil, WrapDBError("ListPets", err)
	}
	return pets, nil
}

// CountAppointmentsByBranch returns appointment counts grouped by branch.
// Used by the health endpoint to show the store is reachable and populated.
func (r *RecordRepository) CountAppointmentsByBranch(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Branch string
		Count  int64
	}
	err := r.db.db.WithContext(ctx).
		Model(&Appointment{}).
		Select("branch, COUNT(*) AS count").
		Group("branch").
		Scan(&rows).Error
	if err != nil {
		return nil, WrapDBError("CountAppointmentsByBranch", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Branch] = row.Count
	}
	log.Printf("📊 Appointment counts loaded for %d branches", len(counts))
	return counts, nil
}
