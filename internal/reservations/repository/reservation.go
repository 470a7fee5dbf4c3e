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

	reserrors "wardq/internal/reservations/errors"
	"wardq/pkg/config"
	mongotx "wardq/pkg/db/mongo"
	"wardq/pkg/model"
)

const (
	CollectionName = "Reservations"
)

// StateTransition describes one conditional state change. Fields in Set are
// applied only when the document is currently in the From state, which is
// what makes racing transitions lose cleanly instead of double-applying.
type StateTransition struct {
	From string
	To   string
	Set  bson.M
}

type mongoReservationRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error)
	CountByRequester(ctx context.Context, requesterID string) (int64, error)
	FindByFacility(ctx context.Context, facilityID string, state string, limit int, offset int64) ([]*model.Reservation, error)
	CountByFacility(ctx context.Context, facilityID string, state string) (int64, error)
	Transition(ctx context.Context, id string, tr StateTransition) (*model.Reservation, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoReservationRepository(cfg *config.Config) ReservationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReservationRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoReservationRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, reservation)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reservation.ID = oid.Hex()
	}
	return nil
}

func (r *mongoReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reserrors.ErrInvalidID, id)
	}

	var reservation model.Reservation
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation: %w", err)
	}

	return &reservation, nil
}

func (r *mongoReservationRepository) FindByRequester(ctx context.Context, requesterID string, limit int, offset int64) ([]*model.Reservation, error) {
	return r.findMany(ctx, bson.M{"requester_id": requesterID}, limit, offset)
}

func (r *mongoReservationRepository) CountByRequester(ctx context.Context, requesterID string) (int64, error) {
	return r.count(ctx, bson.M{"requester_id": requesterID})
}

func (r *mongoReservationRepository) FindByFacility(ctx context.Context, facilityID string, state string, limit int, offset int64) ([]*model.Reservation, error) {
	filter := bson.M{"facility_id": facilityID}
	if state != "" {
		filter["state"] = state
	}
	return r.findMany(ctx, filter, limit, offset)
}

func (r *mongoReservationRepository) CountByFacility(ctx context.Context, facilityID string, state string) (int64, error) {
	filter := bson.M{"facility_id": facilityID}
	if state != "" {
		filter["state"] = state
	}
	return r.count(ctx, filter)
}

func (r *mongoReservationRepository) findMany(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var reservations []*model.Reservation
	if err = cursor.All(ctx, &reservations); err != nil {
		return nil, fmt.Errorf("failed to decode reservations: %w", err)
	}

	return reservations, nil
}

func (r *mongoReservationRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return count, nil
}

// Transition applies a conditional state change and returns the updated
// document. ErrStateChanged means the reservation was not in the expected
// source state, usually because a concurrent request won the race.
func (r *mongoReservationRepository) Transition(ctx context.Context, id string, tr StateTransition) (*model.Reservation, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"state":      tr.To,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	for k, v := range tr.Set {
		set[k] = v
	}

	filter := bson.M{"_id": objectID, "state": tr.From}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reservation model.Reservation
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&reservation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Distinguish a missing document from a lost state race.
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, reserrors.ErrStateChanged
		}
		return nil, fmt.Errorf("failed to transition reservation: %w", err)
	}

	return &reservation, nil
}

func (r *mongoReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
