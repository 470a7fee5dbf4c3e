package service

import (
	"context"
	"errors"
	"testing"
	"time"

	bedserrors "wardq/internal/beds/errors"
	emerrors "wardq/internal/emergency/errors"
	"wardq/internal/emergency/validator"
	"wardq/internal/events"
	resrepository "wardq/internal/reservations/repository"
	"wardq/pkg/client"
	"wardq/pkg/config"
	mongotx "wardq/pkg/db/mongo"
	apperrors "wardq/pkg/errors"
	"wardq/pkg/logger"
	"wardq/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// Mock repositories for testing

type mockEmergencyRepository struct {
	createFunc         func(ctx context.Context, a *model.EmergencyAdmission) error
	findByIDFunc       func(ctx context.Context, id string) (*model.EmergencyAdmission, error)
	findByFacilityFunc func(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.EmergencyAdmission, error)
	countFunc          func(ctx context.Context, facilityID string) (int64, error)
	updateStatusFunc   func(ctx context.Context, id string, fromStatus, toStatus string) (*model.EmergencyAdmission, error)
	txFunc             func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockEmergencyRepository) Create(ctx context.Context, a *model.EmergencyAdmission) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	a.ID = "65b0c2f1a1b2c3d4e5f60801"
	return nil
}

func (m *mockEmergencyRepository) FindByID(ctx context.Context, id string) (*model.EmergencyAdmission, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, emerrors.ErrNotFound
}

func (m *mockEmergencyRepository) FindByFacilityOrderedByPriority(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.EmergencyAdmission, error) {
	if m.findByFacilityFunc != nil {
		return m.findByFacilityFunc(ctx, facilityID, limit, offset)
	}
	return []*model.EmergencyAdmission{}, nil
}

func (m *mockEmergencyRepository) CountByFacility(ctx context.Context, facilityID string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, facilityID)
	}
	return 0, nil
}

func (m *mockEmergencyRepository) UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string) (*model.EmergencyAdmission, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, fromStatus, toStatus)
	}
	return nil, emerrors.ErrNotFound
}

func (m *mockEmergencyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.txFunc != nil {
		return m.txFunc(ctx, fn)
	}
	return fn(nil)
}

type mockReservationRepository struct {
	createFunc func(ctx context.Context, r *model.Reservation) error
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	r.ID = "65b0c2f1a1b2c3d4e5f60718"
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepository) FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) CountByRequester(ctx context.Context, requesterID string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) FindByFacility(ctx context.Context, facilityID string, state string, limit int, offset int64) ([]*model.Reservation, error) {
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) CountByFacility(ctx context.Context, facilityID string, state string) (int64, error) {
	return 0, nil
}

func (m *mockReservationRepository) Transition(ctx context.Context, id string, tr resrepository.StateTransition) (*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockBedRepository struct {
	allocateFunc        func(ctx context.Context, facilityID, category, holderID, reservationID string) (*model.Bed, error)
	assignFunc          func(ctx context.Context, bedID, reservationID string) error
	releaseFunc         func(ctx context.Context, bedID string) error
	countByCategoryFunc func(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error)
}

func (m *mockBedRepository) Create(ctx context.Context, bed *model.Bed) error { return nil }

func (m *mockBedRepository) FindByID(ctx context.Context, id string) (*model.Bed, error) {
	return nil, bedserrors.ErrNotFound
}

func (m *mockBedRepository) FindByFacility(ctx context.Context, facilityID string, category string, limit int, offset int64) ([]*model.Bed, error) {
	return []*model.Bed{}, nil
}

func (m *mockBedRepository) CountByFacility(ctx context.Context, facilityID string, category string) (int64, error) {
	return 0, nil
}

func (m *mockBedRepository) Update(ctx context.Context, id string, bed *model.Bed) (*mongo.UpdateResult, error) {
	return nil, nil
}

func (m *mockBedRepository) Delete(ctx context.Context, id string) error { return nil }

func (m *mockBedRepository) AllocateFree(ctx context.Context, facilityID, category, holderID, reservationID string) (*model.Bed, error) {
	if m.allocateFunc != nil {
		return m.allocateFunc(ctx, facilityID, category, holderID, reservationID)
	}
	return nil, bedserrors.ErrNoneAvailable
}

func (m *mockBedRepository) AssignReservation(ctx context.Context, bedID, reservationID string) error {
	if m.assignFunc != nil {
		return m.assignFunc(ctx, bedID, reservationID)
	}
	return nil
}

func (m *mockBedRepository) Release(ctx context.Context, bedID string) error {
	if m.releaseFunc != nil {
		return m.releaseFunc(ctx, bedID)
	}
	return nil
}

func (m *mockBedRepository) CountByCategory(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error) {
	if m.countByCategoryFunc != nil {
		return m.countByCategoryFunc(ctx, facilityID)
	}
	return []*model.CategoryAvailability{}, nil
}

func (m *mockBedRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type capturePublisher struct {
	resource []events.ResourceSnapshotChanged
}

func (p *capturePublisher) ResourceSnapshot(ctx context.Context, event events.ResourceSnapshotChanged) {
	p.resource = append(p.resource, event)
}

func (p *capturePublisher) QueueSnapshot(ctx context.Context, event events.QueueSnapshotChanged) {}

func newTestService(repo *mockEmergencyRepository, bedRepo *mockBedRepository, resRepo *mockReservationRepository, pub events.Publisher) EmergencyService {
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
	return NewEmergencyService(repo, bedRepo, resRepo, validator.NewEmergencyValidator(log), pub, cfg)
}

func validAdmission() *model.EmergencyAdmission {
	return &model.EmergencyAdmission{
		FacilityID:  "city-general",
		RequesterID: "paramedic-7",
		Category:    model.CategoryICU,
		Priority:    model.PriorityCritical,
		Condition:   "Cardiac arrest, CPR in progress",
		PatientName: "Ravi Nair",
		Phone:       "+919876543210",
	}
}

func TestAdmit_NoCapacityWritesNothing(t *testing.T) {
	created := false
	repo := &mockEmergencyRepository{
		createFunc: func(ctx context.Context, a *model.EmergencyAdmission) error {
			created = true
			return nil
		},
	}
	bedRepo := &mockBedRepository{
		allocateFunc: func(ctx context.Context, facilityID, category, holderID, reservationID string) (*model.Bed, error) {
			return nil, bedserrors.ErrNoneAvailable
		},
	}
	svc := newTestService(repo, bedRepo, &mockReservationRepository{}, &capturePublisher{})

	err := svc.Admit(context.Background(), validAdmission())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeCapacity {
		t.Fatalf("expected %s, got %v", apperrors.CodeCapacity, err)
	}
	if created {
		t.Error("no admission record should be written when allocation fails")
	}
}

func TestAdmit_Success(t *testing.T) {
	var createdReservation *model.Reservation
	resRepo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			r.ID = "65b0c2f1a1b2c3d4e5f60718"
			createdReservation = r
			return nil
		},
	}
	assigned := ""
	bedRepo := &mockBedRepository{
		allocateFunc: func(ctx context.Context, facilityID, category, holderID, reservationID string) (*model.Bed, error) {
			return &model.Bed{ID: "65b0c2f1a1b2c3d4e5f60799", Number: 5, Category: category, Occupied: true}, nil
		},
		assignFunc: func(ctx context.Context, bedID, reservationID string) error {
			assigned = reservationID
			return nil
		},
		countByCategoryFunc: func(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error) {
			return []*model.CategoryAvailability{{Category: model.CategoryICU, Total: 4, Available: 1}}, nil
		},
	}
	pub := &capturePublisher{}
	svc := newTestService(&mockEmergencyRepository{}, bedRepo, resRepo, pub)

	admission := validAdmission()
	if err := svc.Admit(context.Background(), admission); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if admission.Status != model.EmergencyAdmitted {
		t.Errorf("expected status %s, got %s", model.EmergencyAdmitted, admission.Status)
	}
	if admission.BedID != "65b0c2f1a1b2c3d4e5f60799" {
		t.Errorf("bed not linked to admission: %q", admission.BedID)
	}
	if admission.ResponseMinutes != 0 {
		t.Errorf("emergency admission should report zero wait, got %d", admission.ResponseMinutes)
	}
	if createdReservation == nil {
		t.Fatal("no admitted reservation was created")
	}
	if createdReservation.State != model.ReservationAdmitted {
		t.Errorf("expected admitted reservation, got %s", createdReservation.State)
	}
	if admission.ReservationID != createdReservation.ID {
		t.Error("admission does not point at its reservation")
	}
	if assigned != createdReservation.ID {
		t.Error("bed was not linked back to the reservation")
	}
	if len(pub.resource) != 1 || pub.resource[0].Trigger != events.TriggerEmergencyAdmitted {
		t.Errorf("expected admission event, got %+v", pub.resource)
	}
}

func TestAdmit_TransactionFailureReleasesBed(t *testing.T) {
	repo := &mockEmergencyRepository{
		txFunc: func(ctx context.Context, fn mongotx.TransactionFunc) error {
			return errors.New("transaction aborted")
		},
	}
	released := ""
	bedRepo := &mockBedRepository{
		allocateFunc: func(ctx context.Context, facilityID, category, holderID, reservationID string) (*model.Bed, error) {
			return &model.Bed{ID: "65b0c2f1a1b2c3d4e5f60799", Number: 5}, nil
		},
		releaseFunc: func(ctx context.Context, bedID string) error {
			released = bedID
			return nil
		},
	}
	svc := newTestService(repo, bedRepo, &mockReservationRepository{}, &capturePublisher{})

	if err := svc.Admit(context.Background(), validAdmission()); err == nil {
		t.Fatal("expected error from failed transaction")
	}
	if released != "65b0c2f1a1b2c3d4e5f60799" {
		t.Error("bed was not released after transaction failure")
	}
}

func TestAdmit_InvalidPriority(t *testing.T) {
	svc := newTestService(&mockEmergencyRepository{}, &mockBedRepository{}, &mockReservationRepository{}, &capturePublisher{})

	admission := validAdmission()
	admission.Priority = "routine"

	err := svc.Admit(context.Background(), admission)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected %s, got %v", apperrors.CodeValidation, err)
	}
}

func admittedInStore() *model.EmergencyAdmission {
	return &model.EmergencyAdmission{
		ID:          "65b0c2f1a1b2c3d4e5f60801",
		FacilityID:  "city-general",
		RequesterID: "paramedic-7",
		BedID:       "65b0c2f1a1b2c3d4e5f60799",
		Category:    model.CategoryICU,
		Priority:    model.PriorityCritical,
		Status:      model.EmergencyAdmitted,
	}
}

func TestUpdateStatus_BackwardRejected(t *testing.T) {
	stored := admittedInStore()
	repo := &mockEmergencyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.EmergencyAdmission, error) {
			return stored, nil
		},
	}
	svc := newTestService(repo, &mockBedRepository{}, &mockReservationRepository{}, &capturePublisher{})

	for _, status := range []string{model.EmergencyPending, model.EmergencyAssigned, model.EmergencyAdmitted} {
		_, err := svc.UpdateStatus(context.Background(), stored.ID, status)
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeInvalidState {
			t.Errorf("status %s: expected %s, got %v", status, apperrors.CodeInvalidState, err)
		}
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	svc := newTestService(&mockEmergencyRepository{}, &mockBedRepository{}, &mockReservationRepository{}, &capturePublisher{})

	_, err := svc.UpdateStatus(context.Background(), "65b0c2f1a1b2c3d4e5f60801", "resting")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected %s, got %v", apperrors.CodeValidation, err)
	}
}

func TestUpdateStatus_DischargeReleasesBed(t *testing.T) {
	stored := admittedInStore()
	stored.Status = model.EmergencyTreated
	repo := &mockEmergencyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.EmergencyAdmission, error) {
			return stored, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, fromStatus, toStatus string) (*model.EmergencyAdmission, error) {
			if fromStatus != model.EmergencyTreated || toStatus != model.EmergencyDischarged {
				t.Errorf("unexpected transition %s -> %s", fromStatus, toStatus)
			}
			updated := *stored
			updated.Status = toStatus
			return &updated, nil
		},
	}
	released := ""
	bedRepo := &mockBedRepository{
		releaseFunc: func(ctx context.Context, bedID string) error {
			released = bedID
			return nil
		},
		countByCategoryFunc: func(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error) {
			return []*model.CategoryAvailability{{Category: model.CategoryICU, Total: 4, Available: 2}}, nil
		},
	}
	pub := &capturePublisher{}
	svc := newTestService(repo, bedRepo, &mockReservationRepository{}, pub)

	updated, err := svc.UpdateStatus(context.Background(), stored.ID, model.EmergencyDischarged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != model.EmergencyDischarged {
		t.Errorf("expected discharged, got %s", updated.Status)
	}
	if released != stored.BedID {
		t.Error("bed was not released on discharge")
	}
	if len(pub.resource) != 1 || pub.resource[0].Trigger != events.TriggerEmergencyDischarged {
		t.Errorf("expected discharge event, got %+v", pub.resource)
	}
}

func TestUpdateStatus_ConcurrentChange(t *testing.T) {
	stored := admittedInStore()
	repo := &mockEmergencyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.EmergencyAdmission, error) {
			return stored, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, fromStatus, toStatus string) (*model.EmergencyAdmission, error) {
			return nil, emerrors.ErrStatusOrder
		},
	}
	svc := newTestService(repo, &mockBedRepository{}, &mockReservationRepository{}, &capturePublisher{})

	_, err := svc.UpdateStatus(context.Background(), stored.ID, model.EmergencyTreated)
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidState, err)
	}
}

func TestListByPriority_EmptyFacilityListsAll(t *testing.T) {
	scoped := "unset"
	repo := &mockEmergencyRepository{
		findByFacilityFunc: func(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.EmergencyAdmission, error) {
			scoped = facilityID
			return []*model.EmergencyAdmission{
				{FacilityID: "city-general", Priority: model.PriorityCritical},
				{FacilityID: "lakeside", Priority: model.PriorityHigh},
			}, nil
		},
		countFunc: func(ctx context.Context, facilityID string) (int64, error) {
			return 2, nil
		},
	}
	svc := newTestService(repo, &mockBedRepository{}, &mockReservationRepository{}, &capturePublisher{})

	admissions, total, err := svc.ListByPriority(context.Background(), "", 10, 0)
	if err != nil {
		t.Fatalf("cross-facility listing must be allowed, got %v", err)
	}
	if scoped != "" {
		t.Errorf("expected unscoped query, got facility %q", scoped)
	}
	if len(admissions) != 2 || total != 2 {
		t.Errorf("got %d admissions, total %d", len(admissions), total)
	}
}

func TestCheckCapacity(t *testing.T) {
	bedRepo := &mockBedRepository{
		countByCategoryFunc: func(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error) {
			return []*model.CategoryAvailability{
				{Category: model.CategoryGeneral, Total: 10, Available: 3},
				{Category: model.CategoryICU, Total: 4, Available: 0},
			}, nil
		},
	}
	svc := newTestService(&mockEmergencyRepository{}, bedRepo, &mockReservationRepository{}, &capturePublisher{})

	availability, err := svc.CheckCapacity(context.Background(), "city-general")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(availability) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(availability))
	}

	if _, err := svc.CheckCapacity(context.Background(), ""); err == nil {
		t.Error("expected error for empty facility ID")
	}
}
