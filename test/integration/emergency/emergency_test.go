package integrationtests

import (
	"context"
	"testing"

	bedsrepository "wardq/internal/beds/repository"
	"wardq/internal/emergency/repository"
	"wardq/internal/emergency/service"
	"wardq/internal/emergency/validator"
	"wardq/internal/events"
	resrepository "wardq/internal/reservations/repository"
	"wardq/pkg/config"
	apperrors "wardq/pkg/errors"
	"wardq/pkg/model"
	"wardq/test/integration/testutil"
)

var (
	helper  *testutil.MongoHelper
	cfg     *config.Config
	bedRepo bedsrepository.BedRepository
	emRepo  repository.EmergencyRepository
	svc     service.EmergencyService
)

func TestMain(t *testing.T) {
	setup(t)
	testAdmitNoCapacityWritesNothing(t)
	testTriageListingOrder(t)
	testCrossFacilityListing(t)
	teardown(t)
}

func setup(t *testing.T) {
	env := testutil.LoadTestEnv(t)
	helper = testutil.NewMongoHelper(t, env.MongoURI, env.DBName)
	helper.CleanDatabase(t)

	cfg = testutil.NewTestConfig(helper)
	bedRepo = bedsrepository.NewMongoBedRepository(cfg)
	emRepo = repository.NewMongoEmergencyRepository(cfg)
	resRepo := resrepository.NewMongoReservationRepository(cfg)

	svc = service.NewEmergencyService(
		emRepo,
		bedRepo,
		resRepo,
		validator.NewEmergencyValidator(cfg.Log),
		events.NopPublisher{},
		cfg,
	)
}

func teardown(t *testing.T) {
	helper.CleanDatabase(t)
	helper.Close(t)
}

// An emergency admission with no free bed is rejected outright and must
// leave no trace: no admission record, no reservation, no bed change.
func testAdmitNoCapacityWritesNothing(t *testing.T) {
	helper.CleanDatabase(t)
	ctx := context.Background()

	taken := testutil.NewBedBuilder().
		WithFacility("fac-full").
		WithCategory(model.CategoryICU).
		Occupied("req-earlier").
		Build()
	if err := bedRepo.Create(ctx, taken); err != nil {
		t.Fatalf("failed to create bed: %v", err)
	}

	admission := testutil.NewEmergencyBuilder().WithFacility("fac-full").Build()
	err := svc.Admit(ctx, admission)
	if err == nil {
		t.Fatal("expected admission to fail with no free beds")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeCapacity {
		t.Fatalf("expected capacity error, got %s: %v", appErr.Code, err)
	}

	if count := helper.CountDocuments(t, testutil.EmergenciesCollection); count != 0 {
		t.Fatalf("expected no admission records, got %d", count)
	}
	if count := helper.CountDocuments(t, testutil.ReservationsCollection); count != 0 {
		t.Fatalf("expected no reservations, got %d", count)
	}
}

// Listings come back critical first, then high, then medium, oldest first
// within a priority.
func testTriageListingOrder(t *testing.T) {
	helper.CleanDatabase(t)
	ctx := context.Background()

	priorities := []string{model.PriorityMedium, model.PriorityCritical, model.PriorityHigh, model.PriorityCritical}
	for _, p := range priorities {
		admission := testutil.NewEmergencyBuilder().WithFacility("fac-triage").WithPriority(p).Build()
		if err := emRepo.Create(ctx, admission); err != nil {
			t.Fatalf("failed to create %s admission: %v", p, err)
		}
	}

	listed, err := emRepo.FindByFacilityOrderedByPriority(ctx, "fac-triage", 10, 0)
	if err != nil {
		t.Fatalf("triage listing failed: %v", err)
	}
	if len(listed) != len(priorities) {
		t.Fatalf("expected %d admissions, got %d", len(priorities), len(listed))
	}

	want := []string{model.PriorityCritical, model.PriorityCritical, model.PriorityHigh, model.PriorityMedium}
	for i, admission := range listed {
		if admission.Priority != want[i] {
			t.Errorf("position %d: expected priority %s, got %s", i, want[i], admission.Priority)
		}
	}
}

// An empty facility ID lists admissions across every facility in triage
// order, the dispatcher view.
func testCrossFacilityListing(t *testing.T) {
	helper.CleanDatabase(t)
	ctx := context.Background()

	east := testutil.NewEmergencyBuilder().WithFacility("fac-east").WithPriority(model.PriorityMedium).Build()
	if err := emRepo.Create(ctx, east); err != nil {
		t.Fatalf("failed to create fac-east admission: %v", err)
	}
	west := testutil.NewEmergencyBuilder().WithFacility("fac-west").WithPriority(model.PriorityCritical).Build()
	if err := emRepo.Create(ctx, west); err != nil {
		t.Fatalf("failed to create fac-west admission: %v", err)
	}

	listed, total, err := svc.ListByPriority(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("cross-facility listing failed: %v", err)
	}
	if total != 2 || len(listed) != 2 {
		t.Fatalf("expected 2 admissions across facilities, got %d (total %d)", len(listed), total)
	}
	if listed[0].FacilityID != "fac-west" {
		t.Fatalf("expected the critical fac-west admission first, got %s", listed[0].FacilityID)
	}
}
