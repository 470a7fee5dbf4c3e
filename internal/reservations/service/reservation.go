package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	bedserrors "wardq/internal/beds/errors"
	bedsrepository "wardq/internal/beds/repository"
	"wardq/internal/events"
	reserrors "wardq/internal/reservations/errors"
	"wardq/internal/reservations/repository"
	"wardq/internal/reservations/validator"
	"wardq/pkg/config"
	apperrors "wardq/pkg/errors"
	"wardq/pkg/model"
	"wardq/pkg/sanitizer"
	"wardq/pkg/sealer"
)

type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation) (string, error)
	Confirm(ctx context.Context, id string, requesterID string) (*model.Reservation, error)
	Cancel(ctx context.Context, id string, requesterID string) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	ListByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error)
	ListByFacility(ctx context.Context, facilityID string, state string, limit int, offset int64) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	bedRepo   bedsrepository.BedRepository
	validator *validator.ReservationValidator
	sealer    *sealer.Sealer
	publisher events.Publisher
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	bedRepo bedsrepository.BedRepository,
	validator *validator.ReservationValidator,
	sealer *sealer.Sealer,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		bedRepo:   bedRepo,
		validator: validator,
		sealer:    sealer,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Create registers a provisional reservation. A provisional reservation
// holds intent, not capacity: the category must have at least one free bed
// right now, but nothing stops other requesters claiming it before confirm.
func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) (string, error) {
	s.sanitize(reservation)
	reservation.State = model.ReservationProvisional
	reservation.BedID = ""

	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return "", apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}

	free, err := s.freeCount(ctx, reservation.FacilityID, reservation.Category)
	if err != nil {
		return "", err
	}
	if free == 0 {
		s.cfg.Log.Info("Reservation rejected, category full",
			"facility_id", reservation.FacilityID,
			"category", reservation.Category,
		)
		return "", apperrors.Capacity("No beds of category '" + reservation.Category + "' are currently available")
	}

	expiresAt := time.Now().UTC().Add(s.cfg.ProvisionalWindow).Truncate(time.Millisecond)
	reservation.ExpiresAt = &expiresAt

	if err := s.repo.Create(ctx, reservation); err != nil {
		s.cfg.Log.Error("Failed to create reservation", "error", err)
		return "", apperrors.Internal("Failed to create reservation", err)
	}

	claim, err := s.sealer.SealClaim(reservation.FacilityID, reservation.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to seal claim token", "id", reservation.ID, "error", err)
		return "", apperrors.Internal("Failed to issue claim token", err)
	}

	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"facility_id", reservation.FacilityID,
		"category", reservation.Category,
		"expires_at", expiresAt,
	)
	return claim, nil
}

// Confirm turns a provisional reservation into a confirmed one by actually
// claiming a bed. The bed allocation and the state transition are each a
// single conditional update; if the state transition loses a race after the
// bed was claimed, the bed is released again.
func (s *reservationService) Confirm(ctx context.Context, ref string, requesterID string) (*model.Reservation, error) {
	id, claimFacility, err := s.resolveRef(ref)
	if err != nil {
		return nil, err
	}

	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if claimFacility != "" && claimFacility != reservation.FacilityID {
		return nil, apperrors.Forbidden("Claim token was issued for a different facility")
	}
	if reservation.RequesterID != requesterID {
		return nil, apperrors.Forbidden("Only the requester who created the reservation may confirm it")
	}

	if reservation.ProvisionalLapsed(time.Now().UTC()) {
		return nil, s.expire(ctx, reservation)
	}

	if reservation.State != model.ReservationProvisional {
		return nil, apperrors.InvalidState("Only a provisional reservation can be confirmed, current state: " + reservation.State)
	}

	bed, err := s.bedRepo.AllocateFree(ctx, reservation.FacilityID, reservation.Category, requesterID, id)
	if err != nil {
		if errors.Is(err, bedserrors.ErrNoneAvailable) {
			s.cfg.Log.Info("Confirmation failed, category full",
				"id", id,
				"facility_id", reservation.FacilityID,
				"category", reservation.Category,
			)
			return nil, apperrors.Capacity("No beds of category '" + reservation.Category + "' are currently available")
		}
		s.cfg.Log.Error("Failed to allocate bed", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to allocate bed", err)
	}

	updated, err := s.repo.Transition(ctx, id, repository.StateTransition{
		From: model.ReservationProvisional,
		To:   model.ReservationConfirmed,
		Set:  bson.M{"bed_id": bed.ID},
	})
	if err != nil {
		// The bed was claimed but the reservation moved on concurrently.
		// Give the bed back before reporting the conflict.
		if releaseErr := s.bedRepo.Release(ctx, bed.ID); releaseErr != nil {
			s.cfg.Log.Error("Failed to release bed after lost confirm race",
				"id", id, "bed_id", bed.ID, "error", releaseErr)
		}
		if errors.Is(err, reserrors.ErrStateChanged) {
			return nil, apperrors.InvalidState("Reservation was modified by a concurrent request")
		}
		s.cfg.Log.Error("Failed to confirm reservation", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to confirm reservation", err)
	}

	s.publishResourceSnapshot(ctx, updated.FacilityID, events.TriggerReservationConfirmed)

	s.cfg.Log.Info("Reservation confirmed",
		"id", id,
		"facility_id", updated.FacilityID,
		"bed_id", bed.ID,
		"bed_number", bed.Number,
	)
	return updated, nil
}

// Cancel is owner-only and legal from provisional and confirmed states.
// Cancelling a confirmed reservation frees its bed.
func (s *reservationService) Cancel(ctx context.Context, ref string, requesterID string) (*model.Reservation, error) {
	id, claimFacility, err := s.resolveRef(ref)
	if err != nil {
		return nil, err
	}

	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if claimFacility != "" && claimFacility != reservation.FacilityID {
		return nil, apperrors.Forbidden("Claim token was issued for a different facility")
	}
	if reservation.RequesterID != requesterID {
		return nil, apperrors.Forbidden("Only the requester who created the reservation may cancel it")
	}

	if reservation.ProvisionalLapsed(time.Now().UTC()) {
		return nil, s.expire(ctx, reservation)
	}

	switch reservation.State {
	case model.ReservationProvisional:
		updated, err := s.repo.Transition(ctx, id, repository.StateTransition{
			From: model.ReservationProvisional,
			To:   model.ReservationCancelled,
		})
		if err != nil {
			return nil, s.mapTransitionError(id, err)
		}
		s.cfg.Log.Info("Reservation cancelled", "id", id, "was", model.ReservationProvisional)
		return updated, nil

	case model.ReservationConfirmed:
		releasedAt := time.Now().UTC().Truncate(time.Millisecond)
		var updated *model.Reservation
		// The transition and the bed release commit together so a failed
		// release can never strand an occupied bed behind a cancelled
		// reservation.
		txErr := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			var err error
			updated, err = s.repo.Transition(sessCtx, id, repository.StateTransition{
				From: model.ReservationConfirmed,
				To:   model.ReservationCancelled,
				Set:  bson.M{"released_at": releasedAt},
			})
			if err != nil {
				return err
			}
			if reservation.BedID == "" {
				return nil
			}
			if err := s.bedRepo.Release(sessCtx, reservation.BedID); err != nil && !errors.Is(err, bedserrors.ErrNotOccupied) {
				return err
			}
			return nil
		})
		if txErr != nil {
			return nil, s.mapTransitionError(id, txErr)
		}

		s.publishResourceSnapshot(ctx, updated.FacilityID, events.TriggerReservationCancelled)

		s.cfg.Log.Info("Reservation cancelled",
			"id", id,
			"was", model.ReservationConfirmed,
			"bed_id", reservation.BedID,
		)
		return updated, nil

	case model.ReservationAdmitted:
		return nil, apperrors.InvalidState("An admitted reservation cannot be cancelled; discharge the patient instead")

	default:
		return nil, apperrors.InvalidState("Reservation is already " + reservation.State)
	}
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	reservation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Lazy expiry: a lapsed provisional reservation is flipped on read so
	// observers never see a stale provisional state.
	if reservation.ProvisionalLapsed(time.Now().UTC()) {
		return s.markExpired(ctx, reservation), nil
	}

	return reservation, nil
}

func (s *reservationService) ListByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if requesterID == "" {
		return nil, 0, apperrors.InvalidInput("Requester ID is required")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByRequester(ctx, requesterID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "requester_id", requesterID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindByRequester(ctx, requesterID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "requester_id", requesterID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return s.expireLapsed(ctx, reservations), count, nil
}

func (s *reservationService) ListByFacility(ctx context.Context, facilityID string, state string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	if facilityID == "" {
		return nil, 0, apperrors.InvalidInput("Facility ID is required")
	}

	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByFacility(ctx, facilityID, state)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "facility_id", facilityID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindByFacility(ctx, facilityID, state, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "facility_id", facilityID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return s.expireLapsed(ctx, reservations), count, nil
}

// --- Helpers ---

func (s *reservationService) sanitize(r *model.Reservation) {
	r.PatientName = sanitizer.SanitizeName(r.PatientName)
	r.Phone = sanitizer.NormalizePhone(r.Phone)
	r.Notes = sanitizer.SanitizeFreeText(r.Notes)
}

// resolveRef accepts either a raw reservation ID or the sealed claim token
// issued at create time. A token also names the facility it was sealed for;
// callers check that pin against the loaded reservation.
func (s *reservationService) resolveRef(ref string) (string, string, error) {
	if ref == "" {
		return "", "", apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if _, err := primitive.ObjectIDFromHex(ref); err == nil {
		return ref, "", nil
	}

	facilityID, reservationID, err := s.sealer.UnsealClaim(ref)
	if err != nil {
		return "", "", apperrors.InvalidInput("Invalid reservation ID or claim token")
	}
	return reservationID, facilityID, nil
}

func (s *reservationService) load(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

// expire flips a lapsed provisional reservation and returns the expiry
// error the caller should surface.
func (s *reservationService) expire(ctx context.Context, reservation *model.Reservation) error {
	s.markExpired(ctx, reservation)
	s.cfg.Log.Info("Reservation expired lazily", "id", reservation.ID)
	return apperrors.Expired("Reservation '" + reservation.ID + "' has expired")
}

func (s *reservationService) markExpired(ctx context.Context, reservation *model.Reservation) *model.Reservation {
	updated, err := s.repo.Transition(ctx, reservation.ID, repository.StateTransition{
		From: model.ReservationProvisional,
		To:   model.ReservationExpired,
	})
	if err != nil {
		// A concurrent request may have expired or cancelled it already;
		// reflect the flip locally either way.
		if !errors.Is(err, reserrors.ErrStateChanged) {
			s.cfg.Log.Error("Failed to mark reservation expired", "id", reservation.ID, "error", err)
		}
		reservation.State = model.ReservationExpired
		return reservation
	}
	return updated
}

func (s *reservationService) expireLapsed(ctx context.Context, reservations []*model.Reservation) []*model.Reservation {
	now := time.Now().UTC()
	for i, reservation := range reservations {
		if reservation.ProvisionalLapsed(now) {
			reservations[i] = s.markExpired(ctx, reservation)
		}
	}
	return reservations
}

func (s *reservationService) mapTransitionError(id string, err error) error {
	if errors.Is(err, reserrors.ErrStateChanged) {
		return apperrors.InvalidState("Reservation was modified by a concurrent request")
	}
	s.cfg.Log.Error("Failed to transition reservation", "id", id, "error", err)
	return apperrors.Internal("Failed to update reservation", err)
}

func (s *reservationService) freeCount(ctx context.Context, facilityID, category string) (int64, error) {
	availability, err := s.bedRepo.CountByCategory(ctx, facilityID)
	if err != nil {
		s.cfg.Log.Error("Failed to check bed availability", "facility_id", facilityID, "error", err)
		return 0, apperrors.Internal("Failed to check bed availability", err)
	}

	for _, row := range availability {
		if row.Category == category {
			return row.Available, nil
		}
	}
	return 0, nil
}

func (s *reservationService) publishResourceSnapshot(ctx context.Context, facilityID string, trigger string) {
	availability, err := s.bedRepo.CountByCategory(ctx, facilityID)
	if err != nil {
		s.cfg.Log.Warn("Skipping resource snapshot, availability read failed",
			"facility_id", facilityID, "error", err)
		return
	}

	s.publisher.ResourceSnapshot(ctx, events.ResourceSnapshotChanged{
		FacilityID: facilityID,
		Trigger:    trigger,
		Categories: availability,
	})
}
