package service

import (
	"context"
	"testing"
	"time"

	bedserrors "wardq/internal/beds/errors"
	"wardq/internal/beds/validator"
	"wardq/pkg/client"
	"wardq/pkg/config"
	mongotx "wardq/pkg/db/mongo"
	apperrors "wardq/pkg/errors"
	"wardq/pkg/logger"
	"wardq/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mock repository for testing

type mockBedRepository struct {
	createFunc          func(ctx context.Context, bed *model.Bed) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Bed, error)
	findByFacilityFunc  func(ctx context.Context, facilityID string, category string, limit int, offset int64) ([]*model.Bed, error)
	countByFacilityFunc func(ctx context.Context, facilityID string, category string) (int64, error)
	deleteFunc          func(ctx context.Context, id string) error
	countByCategoryFunc func(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error)
}

func (m *mockBedRepository) Create(ctx context.Context, bed *model.Bed) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, bed)
	}
	bed.ID = "65b0c2f1a1b2c3d4e5f60799"
	return nil
}

func (m *mockBedRepository) FindByID(ctx context.Context, id string) (*model.Bed, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bedserrors.ErrNotFound
}

func (m *mockBedRepository) FindByFacility(ctx context.Context, facilityID string, category string, limit int, offset int64) ([]*model.Bed, error) {
	if m.findByFacilityFunc != nil {
		return m.findByFacilityFunc(ctx, facilityID, category, limit, offset)
	}
	return []*model.Bed{}, nil
}

func (m *mockBedRepository) CountByFacility(ctx context.Context, facilityID string, category string) (int64, error) {
	if m.countByFacilityFunc != nil {
		return m.countByFacilityFunc(ctx, facilityID, category)
	}
	return 0, nil
}

func (m *mockBedRepository) Update(ctx context.Context, id string, bed *model.Bed) (*mongo.UpdateResult, error) {
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockBedRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBedRepository) AllocateFree(ctx context.Context, facilityID, category, holderID, reservationID string) (*model.Bed, error) {
	return nil, bedserrors.ErrNoneAvailable
}

func (m *mockBedRepository) AssignReservation(ctx context.Context, bedID, reservationID string) error {
	return nil
}

func (m *mockBedRepository) Release(ctx context.Context, bedID string) error { return nil }

func (m *mockBedRepository) CountByCategory(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error) {
	if m.countByCategoryFunc != nil {
		return m.countByCategoryFunc(ctx, facilityID)
	}
	return []*model.CategoryAvailability{}, nil
}

func (m *mockBedRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func newTestService(repo *mockBedRepository) BedService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:          log,
		Client:       &client.Client{},
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return NewBedService(repo, validator.NewBedValidator(log), cfg)
}

func validBed() *model.Bed {
	return &model.Bed{
		FacilityID:  "city-general",
		Number:      12,
		Category:    model.CategoryGeneral,
		PricePerDay: 1500,
	}
}

func TestCreate_ClearsOccupancy(t *testing.T) {
	var created *model.Bed
	repo := &mockBedRepository{
		createFunc: func(ctx context.Context, bed *model.Bed) error {
			bed.ID = "65b0c2f1a1b2c3d4e5f60799"
			created = bed
			return nil
		},
	}
	svc := newTestService(repo)

	bed := validBed()
	bed.Occupied = true
	bed.HolderID = "sneaky"
	if err := svc.Create(context.Background(), bed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Occupied || created.HolderID != "" || created.ReservationID != "" {
		t.Error("occupancy fields must be cleared on create")
	}
}

func TestCreate_DuplicateNumber(t *testing.T) {
	repo := &mockBedRepository{
		createFunc: func(ctx context.Context, bed *model.Bed) error {
			return bedserrors.ErrDuplicateNumber
		},
	}
	svc := newTestService(repo)

	err := svc.Create(context.Background(), validBed())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidState, err)
	}
}

func TestCreate_InvalidCategory(t *testing.T) {
	svc := newTestService(&mockBedRepository{})

	bed := validBed()
	bed.Category = "suite"

	err := svc.Create(context.Background(), bed)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected %s, got %v", apperrors.CodeValidation, err)
	}
}

func TestDelete_OccupiedRejected(t *testing.T) {
	repo := &mockBedRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			return bedserrors.ErrNotFound
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Bed, error) {
			bed := validBed()
			bed.ID = id
			bed.Occupied = true
			bed.HolderID = "req-1"
			return bed, nil
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), "65b0c2f1a1b2c3d4e5f60799")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidState, err)
	}
}

func TestDelete_Missing(t *testing.T) {
	repo := &mockBedRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			return bedserrors.ErrNotFound
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.Bed, error) {
			return nil, bedserrors.ErrNotFound
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), "65b0c2f1a1b2c3d4e5f60799")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}

func TestGetByFacility_UnknownCategory(t *testing.T) {
	svc := newTestService(&mockBedRepository{})

	_, _, err := svc.GetByFacility(context.Background(), "city-general", "suite", 10, 0)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidInput, err)
	}
}

func TestGetByFacility_ReturnsCount(t *testing.T) {
	repo := &mockBedRepository{
		findByFacilityFunc: func(ctx context.Context, facilityID string, category string, limit int, offset int64) ([]*model.Bed, error) {
			return []*model.Bed{validBed(), validBed()}, nil
		},
		countByFacilityFunc: func(ctx context.Context, facilityID string, category string) (int64, error) {
			return 7, nil
		},
	}
	svc := newTestService(repo)

	beds, count, err := svc.GetByFacility(context.Background(), "city-general", "", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(beds) != 2 || count != 7 {
		t.Errorf("got %d beds, count %d", len(beds), count)
	}
}

func TestAvailability_RequiresFacility(t *testing.T) {
	svc := newTestService(&mockBedRepository{})

	if _, err := svc.Availability(context.Background(), ""); err == nil {
		t.Error("expected error for empty facility ID")
	}
}
