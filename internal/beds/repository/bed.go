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

	bedserrors "wardq/internal/beds/errors"
	"wardq/pkg/config"
	mongotx "wardq/pkg/db/mongo"
	"wardq/pkg/model"
)

const (
	CollectionName = "Beds"
)

type mongoBedRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type BedRepository interface {
	Create(ctx context.Context, bed *model.Bed) error
	FindByID(ctx context.Context, id string) (*model.Bed, error)
	FindByFacility(ctx context.Context, facilityID string, category string, limit int, offset int64) ([]*model.Bed, error)
	CountByFacility(ctx context.Context, facilityID string, category string) (int64, error)
	Update(ctx context.Context, id string, bed *model.Bed) (*mongo.UpdateResult, error)
	Delete(ctx context.Context, id string) error
	AllocateFree(ctx context.Context, facilityID, category, holderID, reservationID string) (*model.Bed, error)
	AssignReservation(ctx context.Context, bedID, reservationID string) error
	Release(ctx context.Context, bedID string) error
	CountByCategory(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoBedRepository(cfg *config.Config) BedRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBedRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless the call is already
// inside a transaction, where wrapping the SessionContext would break
// transaction semantics.
func (r *mongoBedRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoBedRepository) Create(ctx context.Context, bed *model.Bed) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	bed.CreatedAt = now
	bed.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, bed)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bedserrors.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to create bed: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		bed.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBedRepository) FindByID(ctx context.Context, id string) (*model.Bed, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bedserrors.ErrInvalidID, id)
	}

	var bed model.Bed
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&bed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bedserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bed: %w", err)
	}

	return &bed, nil
}

func (r *mongoBedRepository) FindByFacility(ctx context.Context, facilityID string, category string, limit int, offset int64) ([]*model.Bed, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"facility_id": facilityID}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "number", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find beds: %w", err)
	}
	defer cursor.Close(ctx)

	var beds []*model.Bed
	if err = cursor.All(ctx, &beds); err != nil {
		return nil, fmt.Errorf("failed to decode beds: %w", err)
	}

	return beds, nil
}

func (r *mongoBedRepository) CountByFacility(ctx context.Context, facilityID string, category string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"facility_id": facilityID}
	if category != "" {
		filter["category"] = category
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count beds: %w", err)
	}
	return count, nil
}

func (r *mongoBedRepository) Update(ctx context.Context, id string, bed *model.Bed) (*mongo.UpdateResult, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bedserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"number":        bed.Number,
			"category":      bed.Category,
			"price_per_day": bed.PricePerDay,
			"updated_at":    time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, bedserrors.ErrDuplicateNumber
		}
		return nil, fmt.Errorf("failed to update bed: %w", err)
	}

	if result.MatchedCount == 0 {
		return nil, bedserrors.ErrNotFound
	}

	return result, nil
}

// Delete removes a free bed. The occupied:false condition rejects deleting a
// bed that currently holds a patient; the caller distinguishes the two cases
// by re-reading the document.
func (r *mongoBedRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bedserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID, "occupied": false})
	if err != nil {
		return fmt.Errorf("failed to delete bed: %w", err)
	}

	if result.DeletedCount == 0 {
		return bedserrors.ErrNotFound
	}

	return nil
}

// AllocateFree claims the lowest-numbered free bed of the category in one
// conditional update. The find and the occupancy flip are a single storage
// operation, so two concurrent allocations can never claim the same bed.
func (r *mongoBedRepository) AllocateFree(ctx context.Context, facilityID, category, holderID, reservationID string) (*model.Bed, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"facility_id": facilityID,
		"category":    category,
		"occupied":    false,
	}
	update := bson.M{
		"$set": bson.M{
			"occupied":       true,
			"holder_id":      holderID,
			"reservation_id": reservationID,
			"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "number", Value: 1}}).
		SetReturnDocument(options.After)

	var bed model.Bed
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&bed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bedserrors.ErrNoneAvailable
		}
		return nil, fmt.Errorf("failed to allocate bed: %w", err)
	}

	return &bed, nil
}

// AssignReservation links an occupied bed to the reservation created after
// the allocation, once the reservation's ID is known.
func (r *mongoBedRepository) AssignReservation(ctx context.Context, bedID, reservationID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(bedID)
	if err != nil {
		return fmt.Errorf("%w: %s", bedserrors.ErrInvalidID, bedID)
	}

	filter := bson.M{"_id": objectID, "occupied": true}
	update := bson.M{
		"$set": bson.M{
			"reservation_id": reservationID,
			"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to assign reservation to bed: %w", err)
	}

	if result.MatchedCount == 0 {
		return bedserrors.ErrNotOccupied
	}

	return nil
}

// Release frees an occupied bed, clearing its holder. The occupied:true
// condition makes a double release a no-op error instead of a silent write.
func (r *mongoBedRepository) Release(ctx context.Context, bedID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(bedID)
	if err != nil {
		return fmt.Errorf("%w: %s", bedserrors.ErrInvalidID, bedID)
	}

	filter := bson.M{"_id": objectID, "occupied": true}
	update := bson.M{
		"$set": bson.M{
			"occupied":   false,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
		"$unset": bson.M{
			"holder_id":      "",
			"reservation_id": "",
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release bed: %w", err)
	}

	if result.MatchedCount == 0 {
		return bedserrors.ErrNotOccupied
	}

	return nil
}

// CountByCategory aggregates per-category totals and free counts for one
// facility.
func (r *mongoBedRepository) CountByCategory(ctx context.Context, facilityID string) ([]*model.CategoryAvailability, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"facility_id": facilityID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$category",
			"total": bson.M{"$sum": 1},
			"available": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$occupied", false}}, 1, 0},
			}},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bed availability: %w", err)
	}
	defer cursor.Close(ctx)

	var availability []*model.CategoryAvailability
	if err = cursor.All(ctx, &availability); err != nil {
		return nil, fmt.Errorf("failed to decode bed availability: %w", err)
	}

	return availability, nil
}

func (r *mongoBedRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
