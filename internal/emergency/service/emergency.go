package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bedserrors "wardq/internal/beds/errors"
	bedsrepository "wardq/internal/beds/repository"
	emerrors "wardq/internal/emergency/errors"
	"wardq/internal/emergency/repository"
	"wardq/internal/emergency/validator"
	"wardq/internal/events"
	resrepository "wardq/internal/reservations/repository"
	"wardq/pkg/config"
	apperrors "wardq/pkg/errors"
	"wardq/pkg/model"
	"wardq/pkg/sanitizer"
)

type EmergencyService interface {
	Admit(ctx context.Context, admission *model.EmergencyAdmission) error
	GetByID(ctx context.Context, id string) (*model.EmergencyAdmission, error)
	ListByPriority(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.EmergencyAdmission, int64, error)
	UpdateStatus(ctx context.Context, id string, status string) (*model.EmergencyAdmission, error)
	CheckCapacity(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error)
}

type emergencyService struct {
	repo      repository.EmergencyRepository
	bedRepo   bedsrepository.BedRepository
	resRepo   resrepository.ReservationRepository
	validator *validator.EmergencyValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewEmergencyService(
	repo repository.EmergencyRepository,
	bedRepo bedsrepository.BedRepository,
	resRepo resrepository.ReservationRepository,
	validator *validator.EmergencyValidator,
	publisher events.Publisher,
	cfg *config.Config,
) EmergencyService {
	return &emergencyService{
		repo:      repo,
		bedRepo:   bedRepo,
		resRepo:   resRepo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Admit resolves an emergency claim in one pass: the bed is taken first by
// the atomic allocator, and only then are the admitted reservation and the
// admission record written, together in a transaction. Either the patient
// ends up with a bed and full records, or nothing is written at all.
func (s *emergencyService) Admit(ctx context.Context, admission *model.EmergencyAdmission) error {
	s.sanitize(admission)
	admission.Status = ""
	admission.BedID = ""
	admission.ReservationID = ""

	if err := s.validator.Validate(admission); err != nil {
		s.cfg.Log.Warn("Emergency admission validation failed", "error", err)
		return apperrors.Validation("Emergency admission validation failed", map[string]any{"error": err.Error()})
	}

	bed, err := s.bedRepo.AllocateFree(ctx, admission.FacilityID, admission.Category, admission.RequesterID, "")
	if err != nil {
		if errors.Is(err, bedserrors.ErrNoneAvailable) {
			s.cfg.Log.Warn("Emergency admission rejected, no capacity",
				"facility_id", admission.FacilityID,
				"category", admission.Category,
				"priority", admission.Priority,
			)
			return apperrors.Capacity("No beds of category '" + admission.Category + "' are available for emergency admission")
		}
		s.cfg.Log.Error("Failed to allocate emergency bed", "error", err)
		return apperrors.Internal("Failed to allocate emergency bed", err)
	}

	admittedAt := time.Now().UTC().Truncate(time.Millisecond)
	reservation := &model.Reservation{
		FacilityID:  admission.FacilityID,
		RequesterID: admission.RequesterID,
		Category:    admission.Category,
		State:       model.ReservationAdmitted,
		BedID:       bed.ID,
		PatientName: admission.PatientName,
		Phone:       admission.Phone,
		Notes:       admission.Condition,
		AdmittedAt:  &admittedAt,
	}

	admission.BedID = bed.ID
	admission.Status = model.EmergencyAdmitted
	admission.ResponseMinutes = 0

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.resRepo.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create admission reservation", err)
		}
		admission.ReservationID = reservation.ID
		if err := s.repo.Create(sessCtx, admission); err != nil {
			return apperrors.Internal("Failed to create emergency admission", err)
		}
		return nil
	})
	if err != nil {
		// The bed was claimed before the transaction; give it back.
		if releaseErr := s.bedRepo.Release(ctx, bed.ID); releaseErr != nil {
			s.cfg.Log.Error("Failed to release bed after admission rollback",
				"bed_id", bed.ID, "error", releaseErr)
		}
		s.cfg.Log.Error("Failed to record emergency admission", "error", err)
		return err
	}

	if err := s.bedRepo.AssignReservation(ctx, bed.ID, reservation.ID); err != nil {
		s.cfg.Log.Warn("Failed to link bed to admission reservation",
			"bed_id", bed.ID, "reservation_id", reservation.ID, "error", err)
	}

	s.publishResourceSnapshot(ctx, admission.FacilityID, events.TriggerEmergencyAdmitted)

	s.cfg.Log.Info("Emergency admission completed",
		"id", admission.ID,
		"facility_id", admission.FacilityID,
		"priority", admission.Priority,
		"bed_id", bed.ID,
		"bed_number", bed.Number,
	)
	return nil
}

func (s *emergencyService) GetByID(ctx context.Context, id string) (*model.EmergencyAdmission, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Emergency admission ID cannot be empty")
	}

	admission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, emerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Emergency admission", id)
		}
		if errors.Is(err, emerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid emergency admission ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve emergency admission", err)
	}

	return admission, nil
}

// ListByPriority returns admissions in triage order. Facility is optional;
// an empty facility ID gives the cross-facility dispatcher view.
func (s *emergencyService) ListByPriority(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.EmergencyAdmission, int64, error) {
	var count int64
	var admissions []*model.EmergencyAdmission
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByFacility(ctx, facilityID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count emergency admissions", "facility_id", facilityID, "error", errCount)
			errCount = apperrors.Internal("Failed to count emergency admissions", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		admissions, errFind = s.repo.FindByFacilityOrderedByPriority(ctx, facilityID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list emergency admissions", "facility_id", facilityID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve emergency admissions", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return admissions, count, nil
}

// UpdateStatus advances the admission one or more steps forward in the
// progression. Backward and repeated transitions are rejected. Discharge
// frees the bed.
func (s *emergencyService) UpdateStatus(ctx context.Context, id string, status string) (*model.EmergencyAdmission, error) {
	if err := s.validator.ValidateStatus(status); err != nil {
		return nil, apperrors.Validation("Invalid emergency status", map[string]any{"error": err.Error()})
	}

	admission, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	currentRank, _ := model.EmergencyStatusRank(admission.Status)
	targetRank, _ := model.EmergencyStatusRank(status)
	if targetRank <= currentRank {
		return nil, apperrors.InvalidState(
			"Emergency status can only move forward, current: " + admission.Status + ", requested: " + status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, admission.Status, status)
	if err != nil {
		if errors.Is(err, emerrors.ErrStatusOrder) {
			return nil, apperrors.InvalidState("Emergency status was changed by a concurrent request")
		}
		if errors.Is(err, emerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Emergency admission", id)
		}
		s.cfg.Log.Error("Failed to update emergency status", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update emergency status", err)
	}

	if status == model.EmergencyDischarged && updated.BedID != "" {
		if err := s.bedRepo.Release(ctx, updated.BedID); err != nil {
			s.cfg.Log.Error("Failed to release bed on discharge",
				"id", id, "bed_id", updated.BedID, "error", err)
		}
		s.publishResourceSnapshot(ctx, updated.FacilityID, events.TriggerEmergencyDischarged)
	}

	s.cfg.Log.Info("Emergency status updated",
		"id", id,
		"from", admission.Status,
		"to", status,
	)
	return updated, nil
}

// CheckCapacity reports per-category totals without touching any state, so
// dispatchers can route an ambulance before committing to an admission.
func (s *emergencyService) CheckCapacity(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error) {
	if facilityID == "" {
		return nil, apperrors.InvalidInput("Facility ID is required")
	}

	availability, err := s.bedRepo.CountByCategory(ctx, facilityID)
	if err != nil {
		s.cfg.Log.Error("Failed to check emergency capacity", "facility_id", facilityID, "error", err)
		return nil, apperrors.Internal("Failed to check emergency capacity", err)
	}

	return availability, nil
}

func (s *emergencyService) sanitize(a *model.EmergencyAdmission) {
	a.PatientName = sanitizer.SanitizeName(a.PatientName)
	a.Phone = sanitizer.NormalizePhone(a.Phone)
	a.Condition = sanitizer.SanitizeFreeText(a.Condition)
	a.Vitals = sanitizer.SanitizeFreeText(a.Vitals)
}

func (s *emergencyService) publishResourceSnapshot(ctx context.Context, facilityID string, trigger string) {
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
