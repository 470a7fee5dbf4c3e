package testutil

import (
	"io"
	"time"

	"wardq/pkg/client"
	"wardq/pkg/config"
	"wardq/pkg/logger"
	"wardq/pkg/model"
)

// NewTestConfig builds a config wired to the helper's Mongo client with a
// discarded log output, mirroring what the services see in production.
func NewTestConfig(helper *MongoHelper) *config.Config {
	cfg := &config.Config{
		Log: logger.New(logger.Config{
			Level:   logger.ERROR,
			Format:  logger.TEXT,
			Output:  io.Discard,
			Service: "wardq-test",
		}),
		MongoDatabaseName: helper.DBName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		ProvisionalWindow: 30 * time.Minute,
		WaitPerPatient:    10 * time.Minute,
		Client:            client.NewClient(),
	}
	cfg.Client.Mongo = helper.Client
	return cfg
}

// BedBuilder builds bed fixtures
type BedBuilder struct {
	bed *model.Bed
}

func NewBedBuilder() *BedBuilder {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &BedBuilder{
		bed: &model.Bed{
			FacilityID:  "fac-001",
			Number:      1,
			Category:    model.CategoryGeneral,
			PricePerDay: 120,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func (b *BedBuilder) WithFacility(facilityID string) *BedBuilder {
	b.bed.FacilityID = facilityID
	return b
}

func (b *BedBuilder) WithNumber(number int) *BedBuilder {
	b.bed.Number = number
	return b
}

func (b *BedBuilder) WithCategory(category string) *BedBuilder {
	b.bed.Category = category
	return b
}

func (b *BedBuilder) Occupied(holderID string) *BedBuilder {
	b.bed.Occupied = true
	b.bed.HolderID = holderID
	return b
}

func (b *BedBuilder) Build() *model.Bed {
	bed := *b.bed
	return &bed
}

// ReservationBuilder builds reservation fixtures
type ReservationBuilder struct {
	reservation *model.Reservation
}

func NewReservationBuilder() *ReservationBuilder {
	now := time.Now().UTC().Truncate(time.Millisecond)
	expires := now.Add(30 * time.Minute)
	return &ReservationBuilder{
		reservation: &model.Reservation{
			FacilityID:  "fac-001",
			RequesterID: "req-001",
			Category:    model.CategoryGeneral,
			State:       model.ReservationProvisional,
			PatientName: "Asha Naidoo",
			Phone:       "+27821234567",
			ExpiresAt:   &expires,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func (b *ReservationBuilder) WithFacility(facilityID string) *ReservationBuilder {
	b.reservation.FacilityID = facilityID
	return b
}

func (b *ReservationBuilder) WithRequester(requesterID string) *ReservationBuilder {
	b.reservation.RequesterID = requesterID
	return b
}

func (b *ReservationBuilder) WithCategory(category string) *ReservationBuilder {
	b.reservation.Category = category
	return b
}

func (b *ReservationBuilder) WithState(state string) *ReservationBuilder {
	b.reservation.State = state
	return b
}

func (b *ReservationBuilder) WithBed(bedID string) *ReservationBuilder {
	b.reservation.BedID = bedID
	return b
}

func (b *ReservationBuilder) ExpiredAt(t time.Time) *ReservationBuilder {
	b.reservation.ExpiresAt = &t
	return b
}

func (b *ReservationBuilder) Build() *model.Reservation {
	reservation := *b.reservation
	return &reservation
}

// QueueEntryBuilder builds outpatient queue entry fixtures
type QueueEntryBuilder struct {
	entry *model.QueueEntry
}

func NewQueueEntryBuilder() *QueueEntryBuilder {
	return &QueueEntryBuilder{
		entry: &model.QueueEntry{
			FacilityID:  "fac-001",
			RequesterID: "req-001",
			Token:       1,
			Department:  "General Medicine",
			PatientName: "Asha Naidoo",
			Phone:       "+27821234567",
			State:       model.QueueWaiting,
			CheckedInAt: time.Now().UTC().Truncate(time.Millisecond),
		},
	}
}

func (b *QueueEntryBuilder) WithFacility(facilityID string) *QueueEntryBuilder {
	b.entry.FacilityID = facilityID
	return b
}

func (b *QueueEntryBuilder) WithRequester(requesterID string) *QueueEntryBuilder {
	b.entry.RequesterID = requesterID
	return b
}

func (b *QueueEntryBuilder) WithToken(token int64) *QueueEntryBuilder {
	b.entry.Token = token
	return b
}

func (b *QueueEntryBuilder) WithState(state string) *QueueEntryBuilder {
	b.entry.State = state
	return b
}

func (b *QueueEntryBuilder) Build() *model.QueueEntry {
	entry := *b.entry
	return &entry
}

// EmergencyBuilder builds emergency admission fixtures
type EmergencyBuilder struct {
	admission *model.EmergencyAdmission
}

func NewEmergencyBuilder() *EmergencyBuilder {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &EmergencyBuilder{
		admission: &model.EmergencyAdmission{
			FacilityID:   "fac-001",
			RequesterID:  "req-001",
			Category:     model.CategoryICU,
			Priority:     model.PriorityHigh,
			PriorityRank: model.PriorityRankOf(model.PriorityHigh),
			Condition:    "Severe chest pain with shortness of breath",
			PatientName:  "Asha Naidoo",
			Phone:        "+27821234567",
			Status:       model.EmergencyAdmitted,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

func (b *EmergencyBuilder) WithFacility(facilityID string) *EmergencyBuilder {
	b.admission.FacilityID = facilityID
	return b
}

func (b *EmergencyBuilder) WithPriority(priority string) *EmergencyBuilder {
	b.admission.Priority = priority
	b.admission.PriorityRank = model.PriorityRankOf(priority)
	return b
}

func (b *EmergencyBuilder) WithCategory(category string) *EmergencyBuilder {
	b.admission.Category = category
	return b
}

func (b *EmergencyBuilder) Build() *model.EmergencyAdmission {
	admission := *b.admission
	return &admission
}
