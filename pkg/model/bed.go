package model

import "time"

// Bed categories. The set is fixed; facilities provision beds into one of these.
const (
	CategoryGeneral = "general"
	CategoryICU     = "icu"
	CategoryPrivate = "private"
)

// Bed represents one allocatable bed inside a facility. Occupied is true
// iff HolderID is set; both are flipped together by a single conditional
// update in the beds repository, never by separate writes.
type Bed struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FacilityID    string    `json:"facility_id" bson:"facility_id" validate:"required"`
	Number        int       `json:"number" bson:"number" validate:"required,min=1"`
	Category      string    `json:"category" bson:"category" validate:"required,bed_category"`
	Occupied      bool      `json:"occupied" bson:"occupied"`
	HolderID      string    `json:"holder_id,omitempty" bson:"holder_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty" bson:"reservation_id,omitempty"`
	PricePerDay   float64   `json:"price_per_day" bson:"price_per_day" validate:"min=0"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// BedUpdate carries the mutable directory fields. Occupancy is not
// updatable through the directory path.
type BedUpdate struct {
	Number      *int     `json:"number,omitempty" validate:"omitempty,min=1"`
	Category    string   `json:"category,omitempty" validate:"omitempty,bed_category"`
	PricePerDay *float64 `json:"price_per_day,omitempty" validate:"omitempty,min=0"`
}

// CategoryAvailability is one row of a facility availability report.
type CategoryAvailability struct {
	Category  string `json:"category" bson:"_id"`
	Total     int64  `json:"total" bson:"total"`
	Available int64  `json:"available" bson:"available"`
}

func ValidCategory(c string) bool {
	switch c {
	case CategoryGeneral, CategoryICU, CategoryPrivate:
		return true
	}
	return false
}
