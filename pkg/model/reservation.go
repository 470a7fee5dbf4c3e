package model

import "time"

// Reservation states. Transitions are monotonic:
// provisional -> confirmed -> admitted, provisional -> cancelled|expired,
// confirmed -> cancelled. Admitted reservations cannot be cancelled.
const (
	ReservationProvisional = "provisional"
	ReservationConfirmed   = "confirmed"
	ReservationAdmitted    = "admitted"
	ReservationCancelled   = "cancelled"
	ReservationExpired     = "expired"
)

// Reservation is a requester's claim on one bed category at one facility.
// BedID is set only in confirmed/admitted states. A provisional reservation
// reserves intent, not capacity: no bed is held until confirmation.
type Reservation struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FacilityID  string     `json:"facility_id" bson:"facility_id" validate:"required"`
	RequesterID string     `json:"requester_id" bson:"requester_id" validate:"required"`
	Category    string     `json:"category" bson:"category" validate:"required,bed_category"`
	State       string     `json:"state" bson:"state" validate:"omitempty,oneof=provisional confirmed admitted cancelled expired"`
	BedID       string     `json:"bed_id,omitempty" bson:"bed_id,omitempty"`
	PatientName string     `json:"patient_name" bson:"patient_name" validate:"required,min=2,max=100"`
	Phone       string     `json:"phone" bson:"phone" validate:"required,requester_phone"`
	Notes       string     `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=500"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	AdmittedAt  *time.Time `json:"admitted_at,omitempty" bson:"admitted_at,omitempty"`
	ReleasedAt  *time.Time `json:"released_at,omitempty" bson:"released_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// Active reports whether the reservation still participates in the lifecycle.
func (r *Reservation) Active() bool {
	return r.State == ReservationProvisional || r.State == ReservationConfirmed || r.State == ReservationAdmitted
}

// ProvisionalLapsed reports whether a provisional reservation's window has
// passed at the given instant. Expiry is evaluated lazily at every read or
// transition; there is no scheduled sweep.
func (r *Reservation) ProvisionalLapsed(now time.Time) bool {
	return r.State == ReservationProvisional && r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
