package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses as written by the booking flows
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Pet types understood by the analytics pipeline.
// PetTypeUnknown collects appointments whose type cannot be inferred.
const (
	PetTypeDog     = "Dog"
	PetTypeCat     = "Cat"
	PetTypeBird    = "Bird"
	PetTypeFish    = "Fish"
	PetTypeRabbit  = "Rabbit"
	PetTypeUnknown = "Unknown"
)

// KnownStatuses lists every appointment status, in display order
var KnownStatuses = []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// KnownPetTypes lists every concrete pet type, in display order (Unknown excluded)
var KnownPetTypes = []string{PetTypeDog, PetTypeCat, PetTypeBird, PetTypeFish, PetTypeRabbit}

// Appointment represents a booked visit at one of the clinic branches.
// Records are created by the booking flows and are read-only for analytics.
//
// Key Fields:
//   - Branch: one of the configured branch names
//   - AppointmentDate: visit date, nil when the stored value could not be parsed
//   - Status: Pending, Confirmed, Completed or Cancelled
//   - PetName: free text, doubles as a breed hint for type lookup
//   - PetType: optional explicit type, newer bookings fill it in
//   - Reason: free text, may carry "Interested in <Type>:" from the shop flow
type Appointment struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Branch          string     `gorm:"size:100;index;not null" json:"branch"`
	AppointmentDate *time.Time `gorm:"index" json:"appointmentDate,omitempty"`
	Status          string     `gorm:"size:20;index;not null;default:Pending" json:"status"`
	PetName         string     `gorm:"size:200" json:"petName"`
	PetType         string     `gorm:"size:20" json:"petType,omitempty"`
	Reason          string     `gorm:"type:text" json:"reason"`
	OwnerName       string     `gorm:"size:200" json:"ownerName,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name for Appointment
func (Appointment) TableName() string {
	return "appointments"
}

// Pet is a breed entry of the shop catalog
type Pet struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string    `gorm:"size:200" json:"name"`
	Breed   string    `gorm:"size:200;index;not null" json:"breed"`
	PetType string    `gorm:"size:20;not null" json:"petType"`
}

// TableName specifies the table name for Pet
func (Pet) TableName() string {
	return "pets"
}

// PetTypeCatalog maps a normalised breed name to its pet type
type PetTypeCatalog map[string]string

// NewPetTypeCatalog builds a catalog from stored pets, then applies extra
// breed -> type overrides. Entries with an unrecognised type are ignored.
func NewPetTypeCatalog(pets []Pet, extra map[string]string) PetTypeCatalog {
	catalog := make(PetTypeCatalog, len(pets)+len(extra))
	for _, p := range pets {
		catalog.add(p.Breed, p.PetType)
	}
	for breed, petType := range extra {
		catalog.add(breed, petType)
	}
	return catalog
}

func (c PetTypeCatalog) add(breed, petType string) {
	key := normalizeKey(breed)
	if key == "" {
		return
	}
	if canonical, ok := CanonicalPetType(petType); ok {
		c[key] = canonical
	}
}

// Lookup returns the pet type for a breed, ignoring case and surrounding spaces
func (c PetTypeCatalog) Lookup(breed string) (string, bool) {
	if c == nil {
		return "", false
	}
	petType, ok := c[normalizeKey(breed)]
	return petType, ok
}

// CanonicalPetType maps a case-insensitive pet type to its canonical spelling.
// It reports false for Unknown and any value outside KnownPetTypes.
func CanonicalPetType(value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, t := range KnownPetTypes {
		if strings.EqualFold(t, value) {
			return t, true
		}
	}
	return "", false
}

// IsKnownStatus reports whether status is one of KnownStatuses
func IsKnownStatus(status string) bool {
	for _, s := range KnownStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
