package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wardq/internal/events"
	opderrors "wardq/internal/opd/errors"
	"wardq/internal/opd/validator"
	"wardq/pkg/client"
	"wardq/pkg/config"
	mongotx "wardq/pkg/db/mongo"
	apperrors "wardq/pkg/errors"
	"wardq/pkg/logger"
	"wardq/pkg/model"
)

// Mock repository for testing

type mockQueueRepository struct {
	nextTokenFunc             func(ctx context.Context, facilityID string) (int64, error)
	createFunc                func(ctx context.Context, entry *model.QueueEntry) error
	findActiveByFacilityFunc  func(ctx context.Context, facilityID string) ([]*model.QueueEntry, error)
	countActiveByFacilityFunc func(ctx context.Context, facilityID string) (int64, error)
	findActiveByRequesterFunc func(ctx context.Context, facilityID, requesterID string) (*model.QueueEntry, error)
	countActiveAheadFunc      func(ctx context.Context, facilityID string, token int64) (int64, error)
	completeServingFunc       func(ctx context.Context, facilityID string) (int64, error)
	promoteNextWaitingFunc    func(ctx context.Context, facilityID string) (*model.QueueEntry, error)
}

func (m *mockQueueRepository) NextToken(ctx context.Context, facilityID string) (int64, error) {
	if m.nextTokenFunc != nil {
		return m.nextTokenFunc(ctx, facilityID)
	}
	return 1, nil
}

func (m *mockQueueRepository) Create(ctx context.Context, entry *model.QueueEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	entry.ID = "65b0c2f1a1b2c3d4e5f60901"
	return nil
}

func (m *mockQueueRepository) FindByID(ctx context.Context, id string) (*model.QueueEntry, error) {
	return nil, opderrors.ErrNotFound
}

func (m *mockQueueRepository) FindServing(ctx context.Context, facilityID string) (*model.QueueEntry, error) {
	return nil, opderrors.ErrNotFound
}

func (m *mockQueueRepository) FindActiveByFacility(ctx context.Context, facilityID string) ([]*model.QueueEntry, error) {
	if m.findActiveByFacilityFunc != nil {
		return m.findActiveByFacilityFunc(ctx, facilityID)
	}
	return []*model.QueueEntry{}, nil
}

func (m *mockQueueRepository) CountActiveByFacility(ctx context.Context, facilityID string) (int64, error) {
	if m.countActiveByFacilityFunc != nil {
		return m.countActiveByFacilityFunc(ctx, facilityID)
	}
	return 0, nil
}

func (m *mockQueueRepository) FindActiveByRequester(ctx context.Context, facilityID, requesterID string) (*model.QueueEntry, error) {
	if m.findActiveByRequesterFunc != nil {
		return m.findActiveByRequesterFunc(ctx, facilityID, requesterID)
	}
	return nil, opderrors.ErrNotFound
}

func (m *mockQueueRepository) CountActiveAhead(ctx context.Context, facilityID string, token int64) (int64, error) {
	if m.countActiveAheadFunc != nil {
		return m.countActiveAheadFunc(ctx, facilityID, token)
	}
	return 0, nil
}

func (m *mockQueueRepository) CompleteServing(ctx context.Context, facilityID string) (int64, error) {
	if m.completeServingFunc != nil {
		return m.completeServingFunc(ctx, facilityID)
	}
	return 0, nil
}

func (m *mockQueueRepository) PromoteNextWaiting(ctx context.Context, facilityID string) (*model.QueueEntry, error) {
	if m.promoteNextWaitingFunc != nil {
		return m.promoteNextWaitingFunc(ctx, facilityID)
	}
	return nil, opderrors.ErrQueueEmpty
}

func (m *mockQueueRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type capturePublisher struct {
	queue []events.QueueSnapshotChanged
}

func (p *capturePublisher) ResourceSnapshot(ctx context.Context, event events.ResourceSnapshotChanged) {}

func (p *capturePublisher) QueueSnapshot(ctx context.Context, event events.QueueSnapshotChanged) {
	p.queue = append(p.queue, event)
}

// directoryServer fakes the facility directory collaborator.
func directoryServer(t *testing.T, facilities map[string]client.Facility) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/facilities/id/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/api/v1/facilities/id/"):]
		facility, ok := facilities[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": facility})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestService(repo *mockQueueRepository, pub events.Publisher, directoryURL string) QueueService {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	cfg := &config.Config{
		Log:            log,
		Client:         &client.Client{Directory: client.NewDirectoryClient(directoryURL, 2*time.Second)},
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		WaitPerPatient: 10 * time.Minute,
	}
	return NewQueueService(repo, validator.NewQueueValidator(log), pub, cfg)
}

func validEntry() *model.QueueEntry {
	return &model.QueueEntry{
		FacilityID:  "city-general",
		RequesterID: "req-1",
		Department:  "cardiology",
		PatientName: "Meera Iyer",
		Phone:       "+919876543210",
	}
}

func TestJoin_IssuesTokenAndEstimate(t *testing.T) {
	server := directoryServer(t, map[string]client.Facility{
		"city-general": {ID: "city-general", Name: "City General", HasOutpatient: true},
	})

	var created *model.QueueEntry
	repo := &mockQueueRepository{
		nextTokenFunc: func(ctx context.Context, facilityID string) (int64, error) {
			return 42, nil
		},
		countActiveByFacilityFunc: func(ctx context.Context, facilityID string) (int64, error) {
			return 3, nil
		},
		createFunc: func(ctx context.Context, entry *model.QueueEntry) error {
			entry.ID = "65b0c2f1a1b2c3d4e5f60901"
			created = entry
			return nil
		},
	}
	pub := &capturePublisher{}
	svc := newTestService(repo, pub, server.URL)

	if err := svc.Join(context.Background(), validEntry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("queue entry was not persisted")
	}
	if created.Token != 42 {
		t.Errorf("expected token 42, got %d", created.Token)
	}
	if created.State != model.QueueWaiting {
		t.Errorf("expected waiting state, got %s", created.State)
	}
	if created.EstimatedWaitMin != 30 {
		t.Errorf("expected 30 minute estimate for 3 ahead, got %d", created.EstimatedWaitMin)
	}
	if len(pub.queue) != 1 || pub.queue[0].Trigger != events.TriggerQueueJoined {
		t.Errorf("expected join event, got %+v", pub.queue)
	}
}

func TestJoin_UnknownFacility(t *testing.T) {
	server := directoryServer(t, map[string]client.Facility{})
	svc := newTestService(&mockQueueRepository{}, &capturePublisher{}, server.URL)

	err := svc.Join(context.Background(), validEntry())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}

func TestJoin_NoOutpatientDepartment(t *testing.T) {
	server := directoryServer(t, map[string]client.Facility{
		"city-general": {ID: "city-general", Name: "City General", HasOutpatient: false},
	})
	svc := newTestService(&mockQueueRepository{}, &capturePublisher{}, server.URL)

	err := svc.Join(context.Background(), validEntry())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeCapacity {
		t.Fatalf("expected %s, got %v", apperrors.CodeCapacity, err)
	}
	if appErr.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", appErr.HTTPStatus)
	}
}

func TestJoin_AlreadyQueued(t *testing.T) {
	server := directoryServer(t, map[string]client.Facility{
		"city-general": {ID: "city-general", Name: "City General", HasOutpatient: true},
	})
	repo := &mockQueueRepository{
		findActiveByRequesterFunc: func(ctx context.Context, facilityID, requesterID string) (*model.QueueEntry, error) {
			return &model.QueueEntry{Token: 7, State: model.QueueWaiting}, nil
		},
	}
	svc := newTestService(repo, &capturePublisher{}, server.URL)

	err := svc.Join(context.Background(), validEntry())
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidState {
		t.Fatalf("expected %s, got %v", apperrors.CodeInvalidState, err)
	}
}

func TestAdvance_PromotesNextWaiting(t *testing.T) {
	next := &model.QueueEntry{Token: 8, State: model.QueueInConsultation}
	repo := &mockQueueRepository{
		completeServingFunc: func(ctx context.Context, facilityID string) (int64, error) {
			return 1, nil
		},
		promoteNextWaitingFunc: func(ctx context.Context, facilityID string) (*model.QueueEntry, error) {
			return next, nil
		},
		findActiveByFacilityFunc: func(ctx context.Context, facilityID string) ([]*model.QueueEntry, error) {
			return []*model.QueueEntry{next, {Token: 9, State: model.QueueWaiting}}, nil
		},
	}
	pub := &capturePublisher{}
	svc := newTestService(repo, pub, "http://directory.invalid")

	result, err := svc.Advance(context.Background(), "city-general")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Completed != 1 {
		t.Errorf("expected 1 completed, got %d", result.Completed)
	}
	if result.Serving == nil || result.Serving.Token != 8 {
		t.Errorf("expected token 8 serving, got %+v", result.Serving)
	}
	if result.QueueEmpty {
		t.Error("queue should not report empty")
	}
	if len(pub.queue) != 1 {
		t.Fatalf("expected 1 queue event, got %d", len(pub.queue))
	}
	if pub.queue[0].ServingToken != 8 || pub.queue[0].WaitingCount != 1 {
		t.Errorf("unexpected snapshot %+v", pub.queue[0])
	}
	if len(pub.queue[0].Entries) != 2 {
		t.Errorf("expected snapshot to carry both active entries, got %d", len(pub.queue[0].Entries))
	}
}

func TestAdvance_EmptyQueueIsInformational(t *testing.T) {
	repo := &mockQueueRepository{
		completeServingFunc: func(ctx context.Context, facilityID string) (int64, error) {
			return 1, nil
		},
		promoteNextWaitingFunc: func(ctx context.Context, facilityID string) (*model.QueueEntry, error) {
			return nil, opderrors.ErrQueueEmpty
		},
	}
	pub := &capturePublisher{}
	svc := newTestService(repo, pub, "http://directory.invalid")

	result, err := svc.Advance(context.Background(), "city-general")
	if err != nil {
		t.Fatalf("empty queue must not be an error, got %v", err)
	}
	if !result.QueueEmpty {
		t.Error("expected queue_empty to be reported")
	}
	if result.Serving != nil {
		t.Error("nobody should be serving on an empty queue")
	}
	if len(pub.queue) != 1 {
		t.Error("snapshot should still be published on empty advance")
	}
}

func TestSnapshot_PicksServingToken(t *testing.T) {
	repo := &mockQueueRepository{
		findActiveByFacilityFunc: func(ctx context.Context, facilityID string) ([]*model.QueueEntry, error) {
			return []*model.QueueEntry{
				{Token: 4, State: model.QueueInConsultation},
				{Token: 5, State: model.QueueWaiting},
				{Token: 6, State: model.QueueWaiting},
			}, nil
		},
	}
	svc := newTestService(repo, &capturePublisher{}, "http://directory.invalid")

	snapshot, err := svc.Snapshot(context.Background(), "city-general")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.ServingToken != 4 {
		t.Errorf("expected serving token 4, got %d", snapshot.ServingToken)
	}
	if len(snapshot.Entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(snapshot.Entries))
	}
}

func TestMyPosition(t *testing.T) {
	repo := &mockQueueRepository{
		findActiveByRequesterFunc: func(ctx context.Context, facilityID, requesterID string) (*model.QueueEntry, error) {
			return &model.QueueEntry{Token: 9, State: model.QueueWaiting, EstimatedWaitMin: 40}, nil
		},
		countActiveAheadFunc: func(ctx context.Context, facilityID string, token int64) (int64, error) {
			if token != 9 {
				t.Errorf("counted ahead of wrong token %d", token)
			}
			return 2, nil
		},
	}
	svc := newTestService(repo, &capturePublisher{}, "http://directory.invalid")

	position, err := svc.MyPosition(context.Background(), "city-general", "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if position.Position != 3 {
		t.Errorf("expected position 3, got %d", position.Position)
	}
	if position.Token != 9 || position.EstimatedWaitMin != 40 {
		t.Errorf("unexpected position %+v", position)
	}
}

func TestMyPosition_NotQueued(t *testing.T) {
	svc := newTestService(&mockQueueRepository{}, &capturePublisher{}, "http://directory.invalid")

	_, err := svc.MyPosition(context.Background(), "city-general", "req-1")
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected %s, got %v", apperrors.CodeNotFound, err)
	}
}
