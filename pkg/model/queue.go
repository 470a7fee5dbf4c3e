package model

import "time"

// Queue entry states. At most one entry per facility is in_consultation
// at any time; the sequencer's advance operation maintains that invariant
// with conditional updates.
const (
	QueueWaiting        = "waiting"
	QueueInConsultation = "in_consultation"
	QueueCompleted      = "completed"
	QueueCancelled      = "cancelled"
)

// QueueEntry is one requester's position in a facility's outpatient queue.
// Token numbers are strictly increasing per facility, issued from an atomic
// per-facility counter. EstimatedWaitMin is a snapshot taken at join time
// and is not recomputed as the queue moves.
type QueueEntry struct {
	ID               string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FacilityID       string     `json:"facility_id" bson:"facility_id" validate:"required"`
	RequesterID      string     `json:"requester_id" bson:"requester_id" validate:"required"`
	Token            int64      `json:"token" bson:"token"`
	Department       string     `json:"department" bson:"department" validate:"required,min=2,max=60"`
	PatientName      string     `json:"patient_name" bson:"patient_name" validate:"required,min=2,max=100"`
	Phone            string     `json:"phone" bson:"phone" validate:"required,requester_phone"`
	State            string     `json:"state" bson:"state"`
	EstimatedWaitMin int        `json:"estimated_wait_min" bson:"estimated_wait_min"`
	CheckedInAt      time.Time  `json:"checked_in_at" bson:"checked_in_at"`
	StartedAt        *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// ActiveState reports whether the entry is still in the queue.
func (e *QueueEntry) ActiveState() bool {
	return e.State == QueueWaiting || e.State == QueueInConsultation
}

// TokenCounter is the per-facility sequence document. Tokens come from a
// single atomically incremented field, not from scanning for the current
// maximum, so two concurrent joins can never draw the same number.
type TokenCounter struct {
	FacilityID string `bson:"_id"`
	Seq        int64  `bson:"seq"`
}

// QueueSnapshot is the observable queue state broadcast to facility
// observers after every join and advance.
type QueueSnapshot struct {
	FacilityID   string        `json:"facility_id"`
	ServingToken int64         `json:"serving_token"`
	Entries      []*QueueEntry `json:"entries"`
}
