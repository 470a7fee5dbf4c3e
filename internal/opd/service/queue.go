package service

import (
	"context"
	"errors"
	"time"

	"wardq/internal/events"
	opderrors "wardq/internal/opd/errors"
	"wardq/internal/opd/repository"
	"wardq/internal/opd/validator"
	"wardq/pkg/config"
	apperrors "wardq/pkg/errors"
	"wardq/pkg/model"
	"wardq/pkg/sanitizer"
)

// AdvanceResult reports what one advance call did. QueueEmpty means there
// was nobody to promote, which is an informational outcome.
type AdvanceResult struct {
	Completed  int64             `json:"completed"`
	Serving    *model.QueueEntry `json:"serving,omitempty"`
	QueueEmpty bool              `json:"queue_empty"`
}

// Position is a requester's live standing in a facility queue.
type Position struct {
	Token            int64  `json:"token"`
	Position         int64  `json:"position"`
	State            string `json:"state"`
	EstimatedWaitMin int    `json:"estimated_wait_min"`
}

type QueueService interface {
	Join(ctx context.Context, entry *model.QueueEntry) error
	Advance(ctx context.Context, facilityID string) (*AdvanceResult, error)
	Snapshot(ctx context.Context, facilityID string) (*model.QueueSnapshot, error)
	MyPosition(ctx context.Context, facilityID, requesterID string) (*Position, error)
}

type queueService struct {
	repo      repository.QueueRepository
	validator *validator.QueueValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewQueueService(
	repo repository.QueueRepository,
	validator *validator.QueueValidator,
	publisher events.Publisher,
	cfg *config.Config,
) QueueService {
	return &queueService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Join checks the requester into the facility's outpatient queue. The
// token comes from the facility's atomic counter, and the estimated wait
// is snapshotted from the queue length at join time.
func (s *queueService) Join(ctx context.Context, entry *model.QueueEntry) error {
	s.sanitize(entry)
	entry.State = model.QueueWaiting

	if err := s.validator.Validate(entry); err != nil {
		s.cfg.Log.Warn("Queue entry validation failed", "error", err)
		return apperrors.Validation("Queue entry validation failed", map[string]any{"error": err.Error()})
	}

	facility, err := s.cfg.Client.Directory.GetFacility(entry.FacilityID)
	if err != nil {
		s.cfg.Log.Error("Facility directory lookup failed", "facility_id", entry.FacilityID, "error", err)
		return apperrors.Unavailable("Facility directory is unavailable")
	}
	if facility == nil {
		return apperrors.NotFoundWithID("Facility", entry.FacilityID)
	}
	// No outpatient service is a pick-another-facility outcome, same
	// class as a full ward, not a lifecycle conflict.
	if !facility.HasOutpatient {
		return apperrors.Capacity("Facility '" + facility.Name + "' does not offer outpatient consultations")
	}

	if existing, err := s.repo.FindActiveByRequester(ctx, entry.FacilityID, entry.RequesterID); err == nil && existing != nil {
		return apperrors.InvalidState("Requester already holds an active queue token")
	} else if err != nil && !errors.Is(err, opderrors.ErrNotFound) {
		s.cfg.Log.Error("Failed to check existing queue entry", "error", err)
		return apperrors.Internal("Failed to check existing queue entry", err)
	}

	ahead, err := s.repo.CountActiveByFacility(ctx, entry.FacilityID)
	if err != nil {
		s.cfg.Log.Error("Failed to measure queue length", "facility_id", entry.FacilityID, "error", err)
		return apperrors.Internal("Failed to measure queue length", err)
	}
	entry.EstimatedWaitMin = int(time.Duration(ahead) * s.cfg.WaitPerPatient / time.Minute)

	token, err := s.repo.NextToken(ctx, entry.FacilityID)
	if err != nil {
		s.cfg.Log.Error("Failed to draw queue token", "facility_id", entry.FacilityID, "error", err)
		return apperrors.Internal("Failed to draw queue token", err)
	}
	entry.Token = token

	if err := s.repo.Create(ctx, entry); err != nil {
		s.cfg.Log.Error("Failed to create queue entry", "facility_id", entry.FacilityID, "error", err)
		return apperrors.Internal("Failed to join queue", err)
	}

	s.publishQueueSnapshot(ctx, entry.FacilityID, events.TriggerQueueJoined)

	s.cfg.Log.Info("Queue joined",
		"id", entry.ID,
		"facility_id", entry.FacilityID,
		"token", token,
		"estimated_wait_min", entry.EstimatedWaitMin,
	)
	return nil
}

// Advance completes whoever is in consultation and calls the next waiting
// token. An empty queue is a normal outcome, not an error.
func (s *queueService) Advance(ctx context.Context, facilityID string) (*AdvanceResult, error) {
	if facilityID == "" {
		return nil, apperrors.InvalidInput("Facility ID is required")
	}

	completed, err := s.repo.CompleteServing(ctx, facilityID)
	if err != nil {
		s.cfg.Log.Error("Failed to complete serving entries", "facility_id", facilityID, "error", err)
		return nil, apperrors.Internal("Failed to advance queue", err)
	}

	result := &AdvanceResult{Completed: completed}

	serving, err := s.repo.PromoteNextWaiting(ctx, facilityID)
	if err != nil {
		if errors.Is(err, opderrors.ErrQueueEmpty) {
			result.QueueEmpty = true
			s.publishQueueSnapshot(ctx, facilityID, events.TriggerQueueAdvanced)
			s.cfg.Log.Info("Queue advanced to empty", "facility_id", facilityID, "completed", completed)
			return result, nil
		}
		s.cfg.Log.Error("Failed to promote next queue entry", "facility_id", facilityID, "error", err)
		return nil, apperrors.Internal("Failed to advance queue", err)
	}

	result.Serving = serving
	s.publishQueueSnapshot(ctx, facilityID, events.TriggerQueueAdvanced)

	s.cfg.Log.Info("Queue advanced",
		"facility_id", facilityID,
		"completed", completed,
		"serving_token", serving.Token,
	)
	return result, nil
}

func (s *queueService) Snapshot(ctx context.Context, facilityID string) (*model.QueueSnapshot, error) {
	if facilityID == "" {
		return nil, apperrors.InvalidInput("Facility ID is required")
	}

	entries, err := s.repo.FindActiveByFacility(ctx, facilityID)
	if err != nil {
		s.cfg.Log.Error("Failed to read queue snapshot", "facility_id", facilityID, "error", err)
		return nil, apperrors.Internal("Failed to read queue snapshot", err)
	}

	snapshot := &model.QueueSnapshot{
		FacilityID: facilityID,
		Entries:    entries,
	}
	for _, entry := range entries {
		if entry.State == model.QueueInConsultation {
			snapshot.ServingToken = entry.Token
			break
		}
	}

	return snapshot, nil
}

// MyPosition computes the requester's standing on read: active entries with
// a lower token, plus one.
func (s *queueService) MyPosition(ctx context.Context, facilityID, requesterID string) (*Position, error) {
	if facilityID == "" {
		return nil, apperrors.InvalidInput("Facility ID is required")
	}
	if requesterID == "" {
		return nil, apperrors.InvalidInput("Requester ID is required")
	}

	entry, err := s.repo.FindActiveByRequester(ctx, facilityID, requesterID)
	if err != nil {
		if errors.Is(err, opderrors.ErrNotFound) {
			return nil, apperrors.NotFound("Active queue entry")
		}
		s.cfg.Log.Error("Failed to find queue entry", "facility_id", facilityID, "error", err)
		return nil, apperrors.Internal("Failed to find queue entry", err)
	}

	ahead, err := s.repo.CountActiveAhead(ctx, facilityID, entry.Token)
	if err != nil {
		s.cfg.Log.Error("Failed to compute queue position", "facility_id", facilityID, "error", err)
		return nil, apperrors.Internal("Failed to compute queue position", err)
	}

	return &Position{
		Token:            entry.Token,
		Position:         ahead + 1,
		State:            entry.State,
		EstimatedWaitMin: entry.EstimatedWaitMin,
	}, nil
}

func (s *queueService) sanitize(e *model.QueueEntry) {
	e.PatientName = sanitizer.SanitizeName(e.PatientName)
	e.Phone = sanitizer.NormalizePhone(e.Phone)
	e.Department = sanitizer.SanitizeDepartment(e.Department)
}

func (s *queueService) publishQueueSnapshot(ctx context.Context, facilityID string, trigger string) {
	snapshot, err := s.Snapshot(ctx, facilityID)
	if err != nil {
		s.cfg.Log.Warn("Skipping queue snapshot, read failed", "facility_id", facilityID, "error", err)
		return
	}

	waiting := 0
	for _, entry := range snapshot.Entries {
		if entry.State == model.QueueWaiting {
			waiting++
		}
	}

	s.publisher.QueueSnapshot(ctx, events.QueueSnapshotChanged{
		FacilityID:   facilityID,
		Trigger:      trigger,
		ServingToken: snapshot.ServingToken,
		WaitingCount: waiting,
		Entries:      snapshot.Entries,
	})
}
