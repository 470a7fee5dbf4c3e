package service

import (
	"context"
	"errors"
	"sync"

	bedserrors "wardq/internal/beds/errors"
	"wardq/internal/beds/repository"
	"wardq/internal/beds/validator"
	"wardq/pkg/config"
	apperrors "wardq/pkg/errors"
	"wardq/pkg/model"
)

type BedService interface {
	Create(ctx context.Context, bed *model.Bed) error
	GetByID(ctx context.Context, id string) (*model.Bed, error)
	GetByFacility(ctx context.Context, facilityID string, category string, limit int, offset int64) ([]*model.Bed, int64, error)
	Update(ctx context.Context, id string, updates *model.BedUpdate) error
	Delete(ctx context.Context, id string) error
	Availability(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error)
}

type bedService struct {
	repo      repository.BedRepository
	validator *validator.BedValidator
	cfg       *config.Config
}

func NewBedService(repo repository.BedRepository, validator *validator.BedValidator, cfg *config.Config) BedService {
	return &bedService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *bedService) Create(ctx context.Context, bed *model.Bed) error {
	bed.Occupied = false
	bed.HolderID = ""
	bed.ReservationID = ""

	if err := s.validator.Validate(bed); err != nil {
		s.cfg.Log.Warn("Bed validation failed", "error", err)
		return apperrors.Validation("Bed validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, bed); err != nil {
		if errors.Is(err, bedserrors.ErrDuplicateNumber) {
			return apperrors.InvalidState("A bed with this number already exists in the facility")
		}
		s.cfg.Log.Error("Failed to create bed", "error", err)
		return apperrors.Internal("Failed to create bed", err)
	}

	s.cfg.Log.Info("Bed created",
		"id", bed.ID,
		"facility_id", bed.FacilityID,
		"number", bed.Number,
		"category", bed.Category,
	)
	return nil
}

func (s *bedService) GetByID(ctx context.Context, id string) (*model.Bed, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Bed ID cannot be empty")
	}

	bed, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bedserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Bed", id)
		}
		if errors.Is(err, bedserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid bed ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve bed", err)
	}

	return bed, nil
}

func (s *bedService) GetByFacility(ctx context.Context, facilityID string, category string, limit int, offset int64) ([]*model.Bed, int64, error) {
	if facilityID == "" {
		return nil, 0, apperrors.InvalidInput("Facility ID is required")
	}
	if category != "" && !model.ValidCategory(category) {
		return nil, 0, apperrors.InvalidInput("Unknown bed category: " + category)
	}

	var count int64
	var beds []*model.Bed
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByFacility(ctx, facilityID, category)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count beds", "facility_id", facilityID, "error", errCount)
			errCount = apperrors.Internal("Failed to count beds", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		beds, errFind = s.repo.FindByFacility(ctx, facilityID, category, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list beds", "facility_id", facilityID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve beds", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return beds, count, nil
}

func (s *bedService) Update(ctx context.Context, id string, updates *model.BedUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Bed ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Bed update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeBedUpdates(existing, updates)
	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, bedserrors.ErrDuplicateNumber) {
			return apperrors.InvalidState("A bed with this number already exists in the facility")
		}
		if errors.Is(err, bedserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Bed", id)
		}
		s.cfg.Log.Error("Failed to update bed", "id", id, "error", err)
		return apperrors.Internal("Failed to update bed", err)
	}

	s.cfg.Log.Info("Bed updated", "id", id)
	return nil
}

// Delete removes a bed from the directory. Deleting an occupied bed is
// rejected rather than silently evicting its patient.
func (s *bedService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Bed ID cannot be empty")
	}

	err := s.repo.Delete(ctx, id)
	if err == nil {
		s.cfg.Log.Info("Bed deleted", "id", id)
		return nil
	}

	if errors.Is(err, bedserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid bed ID format")
	}
	if errors.Is(err, bedserrors.ErrNotFound) {
		// Delete skips occupied beds, so distinguish missing from occupied.
		bed, findErr := s.repo.FindByID(ctx, id)
		if findErr != nil {
			return apperrors.NotFoundWithID("Bed", id)
		}
		if bed.Occupied {
			return apperrors.InvalidState("Cannot delete an occupied bed")
		}
		return apperrors.NotFoundWithID("Bed", id)
	}

	s.cfg.Log.Error("Failed to delete bed", "id", id, "error", err)
	return apperrors.Internal("Failed to delete bed", err)
}

func (s *bedService) Availability(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error) {
	if facilityID == "" {
		return nil, apperrors.InvalidInput("Facility ID is required")
	}

	availability, err := s.repo.CountByCategory(ctx, facilityID)
	if err != nil {
		s.cfg.Log.Error("Failed to compute bed availability", "facility_id", facilityID, "error", err)
		return nil, apperrors.Internal("Failed to compute bed availability", err)
	}

	return availability, nil
}

func (s *bedService) mergeBedUpdates(existing *model.Bed, updates *model.BedUpdate) *model.Bed {
	merged := *existing

	if updates.Number != nil {
		merged.Number = *updates.Number
	}
	if updates.Category != "" {
		merged.Category = updates.Category
	}
	if updates.PricePerDay != nil {
		merged.PricePerDay = *updates.PricePerDay
	}

	return &merged
}
