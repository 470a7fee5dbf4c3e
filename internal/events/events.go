package events

import (
	"time"

	"wardq/pkg/model"
)

// Event types carried on the snapshot topics.
const (
	TypeResourceSnapshotChanged = "resource.snapshot.changed"
	TypeQueueSnapshotChanged    = "queue.snapshot.changed"
)

// Source identifies this system in event headers.
const Source = "wardq"

// SchemaVersion is bumped whenever a payload shape changes.
const SchemaVersion = "1"

// ResourceSnapshotChanged is emitted after any mutation that changes bed
// occupancy at a facility: confirm, cancel with release, emergency admit,
// discharge.
type ResourceSnapshotChanged struct {
	FacilityID string                        `json:"facility_id"`
	Trigger    string                        `json:"trigger"`
	Categories []*model.CategoryAvailability `json:"categories"`
	OccurredAt time.Time                     `json:"occurred_at"`
}

// QueueSnapshotChanged is emitted after every queue join and advance.
// Entries carries the waiting and in-consultation entries so observers can
// render the whole board without a read-back.
type QueueSnapshotChanged struct {
	FacilityID   string              `json:"facility_id"`
	Trigger      string              `json:"trigger"`
	ServingToken int64               `json:"serving_token"`
	WaitingCount int                 `json:"waiting_count"`
	Entries      []*model.QueueEntry `json:"entries"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// Triggers name the mutation that produced a snapshot.
const (
	TriggerReservationConfirmed = "reservation_confirmed"
	TriggerReservationCancelled = "reservation_cancelled"
	TriggerEmergencyAdmitted    = "emergency_admitted"
	TriggerEmergencyDischarged  = "emergency_discharged"
	TriggerQueueJoined          = "queue_joined"
	TriggerQueueAdvanced        = "queue_advanced"
)
