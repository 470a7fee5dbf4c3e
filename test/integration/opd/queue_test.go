package integrationtests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	opderrors "wardq/internal/opd/errors"
	"wardq/internal/opd/repository"
	"wardq/pkg/config"
	"wardq/pkg/model"
	"wardq/test/integration/testutil"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	helper    *testutil.MongoHelper
	cfg       *config.Config
	queueRepo repository.QueueRepository
)

func TestMain(t *testing.T) {
	setup(t)
	testConcurrentTokensUniqueAndDense(t)
	testTokensIndependentPerFacility(t)
	testAdvanceCycle(t)
	teardown(t)
}

func setup(t *testing.T) {
	env := testutil.LoadTestEnv(t)
	helper = testutil.NewMongoHelper(t, env.MongoURI, env.DBName)
	helper.CleanDatabase(t)

	cfg = testutil.NewTestConfig(helper)
	queueRepo = repository.NewMongoQueueRepository(cfg)
}

func teardown(t *testing.T) {
	helper.CleanDatabase(t)
	helper.Close(t)
}

// Tokens are drawn from an atomic per-facility counter, so concurrent
// joins must produce every number from 1 to N exactly once.
func testConcurrentTokensUniqueAndDense(t *testing.T) {
	helper.CleanDatabase(t)
	ctx := context.Background()

	const joins = 30
	tokens := make([]int64, joins)
	errs := make([]error, joins)

	var wg sync.WaitGroup
	for i := 0; i < joins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = queueRepo.NextToken(ctx, "fac-tok")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("token draw %d failed: %v", i, err)
		}
	}

	sorted := append([]int64(nil), tokens...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for i, token := range sorted {
		if token != int64(i+1) {
			t.Fatalf("expected token %d at position %d, got %d (duplicate or gap)", i+1, i, token)
		}
	}
}

func testTokensIndependentPerFacility(t *testing.T) {
	helper.CleanDatabase(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := queueRepo.NextToken(ctx, "fac-a"); err != nil {
			t.Fatalf("fac-a token draw failed: %v", err)
		}
	}

	token, err := queueRepo.NextToken(ctx, "fac-b")
	if err != nil {
		t.Fatalf("fac-b token draw failed: %v", err)
	}
	if token != 1 {
		t.Fatalf("expected fac-b to start at token 1, got %d", token)
	}
}

// Advancing completes the serving entry and promotes the lowest waiting
// token, keeping at most one entry in consultation throughout.
func testAdvanceCycle(t *testing.T) {
	helper.CleanDatabase(t)
	ctx := context.Background()

	for token := int64(1); token <= 3; token++ {
		entry := testutil.NewQueueEntryBuilder().
			WithFacility("fac-adv").
			WithRequester("req-" + string(rune('0'+token))).
			WithToken(token).
			Build()
		if err := queueRepo.Create(ctx, entry); err != nil {
			t.Fatalf("failed to create queue entry %d: %v", token, err)
		}
	}

	promoted, err := queueRepo.PromoteNextWaiting(ctx, "fac-adv")
	if err != nil {
		t.Fatalf("first promote failed: %v", err)
	}
	if promoted.Token != 1 {
		t.Fatalf("expected token 1 promoted first, got %d", promoted.Token)
	}
	assertAtMostOneServing(t, ctx, "fac-adv")

	completed, err := queueRepo.CompleteServing(ctx, "fac-adv")
	if err != nil {
		t.Fatalf("complete serving failed: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed entry, got %d", completed)
	}

	promoted, err = queueRepo.PromoteNextWaiting(ctx, "fac-adv")
	if err != nil {
		t.Fatalf("second promote failed: %v", err)
	}
	if promoted.Token != 2 {
		t.Fatalf("expected token 2 promoted next, got %d", promoted.Token)
	}
	assertAtMostOneServing(t, ctx, "fac-adv")

	if _, err := queueRepo.CompleteServing(ctx, "fac-adv"); err != nil {
		t.Fatalf("complete serving failed: %v", err)
	}
	if _, err := queueRepo.PromoteNextWaiting(ctx, "fac-adv"); err != nil {
		t.Fatalf("third promote failed: %v", err)
	}
	if _, err := queueRepo.CompleteServing(ctx, "fac-adv"); err != nil {
		t.Fatalf("complete serving failed: %v", err)
	}

	_, err = queueRepo.PromoteNextWaiting(ctx, "fac-adv")
	if !errors.Is(err, opderrors.ErrQueueEmpty) {
		t.Fatalf("expected ErrQueueEmpty on drained queue, got %v", err)
	}
}

func assertAtMostOneServing(t *testing.T, ctx context.Context, facilityID string) {
	t.Helper()
	serving, err := helper.GetCollection(testutil.QueueEntriesCollection).CountDocuments(ctx, bson.M{
		"facility_id": facilityID,
		"state":       model.QueueInConsultation,
	})
	if err != nil {
		t.Fatalf("failed to count serving entries: %v", err)
	}
	if serving > 1 {
		t.Fatalf("expected at most one serving entry, got %d", serving)
	}
}
