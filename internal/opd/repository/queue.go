package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	opderrors "wardq/internal/opd/errors"
	"wardq/pkg/config"
	mongotx "wardq/pkg/db/mongo"
	"wardq/pkg/model"
)

const (
	CollectionName        = "QueueEntries"
	CounterCollectionName = "Counters"
)

type mongoQueueRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	counters   *mongo.Collection
	txManager  mongotx.TransactionManager
}

type QueueRepository interface {
	NextToken(ctx context.Context, facilityID string) (int64, error)
	Create(ctx context.Context, entry *model.QueueEntry) error
	FindByID(ctx context.Context, id string) (*model.QueueEntry, error)
	FindActiveByFacility(ctx context.Context, facilityID string) ([]*model.QueueEntry, error)
	CountActiveByFacility(ctx context.Context, facilityID string) (int64, error)
	FindActiveByRequester(ctx context.Context, facilityID, requesterID string) (*model.QueueEntry, error)
	CountActiveAhead(ctx context.Context, facilityID string, token int64) (int64, error)
	CompleteServing(ctx context.Context, facilityID string) (int64, error)
	PromoteNextWaiting(ctx context.Context, facilityID string) (*model.QueueEntry, error)
	FindServing(ctx context.Context, facilityID string) (*model.QueueEntry, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoQueueRepository(cfg *config.Config) QueueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoQueueRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		counters:   db.Collection(CounterCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoQueueRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// NextToken draws the next token number from the facility's counter
// document with an atomic increment. Concurrent joins each get a distinct,
// strictly increasing number; numbers issued to entries that never check in
// simply leave gaps.
func (r *mongoQueueRepository) NextToken(ctx context.Context, facilityID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": facilityID}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter model.TokenCounter
	err := r.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to draw next token: %w", err)
	}

	return counter.Seq, nil
}

func (r *mongoQueueRepository) Create(ctx context.Context, entry *model.QueueEntry) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	entry.CheckedInAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *mongoQueueRepository) FindByID(ctx context.Context, id string) (*model.QueueEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", opderrors.ErrInvalidID, id)
	}

	var entry model.QueueEntry
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, opderrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find queue entry: %w", err)
	}

	return &entry, nil
}

func activeFilter(facilityID string) bson.M {
	return bson.M{
		"facility_id": facilityID,
		"state":       bson.M{"$in": bson.A{model.QueueWaiting, model.QueueInConsultation}},
	}
}

func (r *mongoQueueRepository) FindActiveByFacility(ctx context.Context, facilityID string) ([]*model.QueueEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "token", Value: 1}})

	cursor, err := r.collection.Find(ctx, activeFilter(facilityID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find active queue entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.QueueEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode queue entries: %w", err)
	}

	return entries, nil
}

func (r *mongoQueueRepository) CountActiveByFacility(ctx context.Context, facilityID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, activeFilter(facilityID))
	if err != nil {
		return 0, fmt.Errorf("failed to count active queue entries: %w", err)
	}
	return count, nil
}

func (r *mongoQueueRepository) FindActiveByRequester(ctx context.Context, facilityID, requesterID string) (*model.QueueEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := activeFilter(facilityID)
	filter["requester_id"] = requesterID

	var entry model.QueueEntry
	err := r.collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, opderrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find queue entry: %w", err)
	}

	return &entry, nil
}

// CountActiveAhead counts active entries with a lower token. Position in
// queue is this count plus one, computed on read rather than stored.
func (r *mongoQueueRepository) CountActiveAhead(ctx context.Context, facilityID string, token int64) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := activeFilter(facilityID)
	filter["token"] = bson.M{"$lt": token}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count queue entries ahead: %w", err)
	}
	return count, nil
}

// CompleteServing finishes every in_consultation entry for the facility.
// There should be at most one, but UpdateMany repairs any accumulated
// duplicates instead of leaving them stuck.
func (r *mongoQueueRepository) CompleteServing(ctx context.Context, facilityID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"facility_id": facilityID, "state": model.QueueInConsultation}
	update := bson.M{
		"$set": bson.M{
			"state":        model.QueueCompleted,
			"completed_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to complete serving entries: %w", err)
	}

	return result.ModifiedCount, nil
}

// PromoteNextWaiting moves the lowest-token waiting entry into consultation
// with a single conditional update, so two concurrent advances cannot both
// promote the same entry.
func (r *mongoQueueRepository) PromoteNextWaiting(ctx context.Context, facilityID string) (*model.QueueEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"facility_id": facilityID, "state": model.QueueWaiting}
	update := bson.M{
		"$set": bson.M{
			"state":      model.QueueInConsultation,
			"started_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "token", Value: 1}}).
		SetReturnDocument(options.After)

	var entry model.QueueEntry
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, opderrors.ErrQueueEmpty
		}
		return nil, fmt.Errorf("failed to promote next queue entry: %w", err)
	}

	return &entry, nil
}

func (r *mongoQueueRepository) FindServing(ctx context.Context, facilityID string) (*model.QueueEntry, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"facility_id": facilityID, "state": model.QueueInConsultation}
	opts := options.FindOne().SetSort(bson.D{{Key: "token", Value: 1}})

	var entry model.QueueEntry
	err := r.collection.FindOne(ctx, filter, opts).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, opderrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find serving entry: %w", err)
	}

	return &entry, nil
}

func (r *mongoQueueRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
