package model

import "time"

// Triage priorities, most urgent first.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
)

// Emergency statuses in their only legal order.
const (
	EmergencyPending    = "pending"
	EmergencyAssigned   = "assigned"
	EmergencyAdmitted   = "admitted"
	EmergencyTreated    = "treated"
	EmergencyDischarged = "discharged"
)

// EmergencyAdmission is a priority claim resolved atomically at creation:
// either a bed was allocated and the record exists with BedID set, or no
// record exists at all. There is no waiting sub-state for emergencies.
//
// PriorityRank is derived from Priority at write time so listings can sort
// critical before high before medium with a plain index scan.
type EmergencyAdmission struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FacilityID      string    `json:"facility_id" bson:"facility_id" validate:"required"`
	RequesterID     string    `json:"requester_id" bson:"requester_id" validate:"required"`
	ReservationID   string    `json:"reservation_id" bson:"reservation_id"`
	BedID           string    `json:"bed_id" bson:"bed_id"`
	Category        string    `json:"category" bson:"category" validate:"required,bed_category"`
	Priority        string    `json:"priority" bson:"priority" validate:"required,triage_priority"`
	PriorityRank    int       `json:"-" bson:"priority_rank"`
	Condition       string    `json:"condition" bson:"condition" validate:"required,min=3,max=1000"`
	Vitals          string    `json:"vitals,omitempty" bson:"vitals,omitempty" validate:"omitempty,max=1000"`
	PatientName     string    `json:"patient_name" bson:"patient_name" validate:"required,min=2,max=100"`
	Phone           string    `json:"phone" bson:"phone" validate:"required,requester_phone"`
	Status          string    `json:"status" bson:"status"`
	ResponseMinutes int       `json:"response_minutes" bson:"response_minutes"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

// PriorityRankOf maps a triage priority onto its sort rank (lower is more
// urgent). Unknown priorities rank last.
func PriorityRankOf(priority string) int {
	switch priority {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	}
	return 3
}

// EmergencyStatusRank orders the status progression. A transition is legal
// only when the target rank is strictly greater than the current one.
func EmergencyStatusRank(status string) (int, bool) {
	switch status {
	case EmergencyPending:
		return 0, true
	case EmergencyAssigned:
		return 1, true
	case EmergencyAdmitted:
		return 2, true
	case EmergencyTreated:
		return 3, true
	case EmergencyDischarged:
		return 4, true
	}
	return 0, false
}
