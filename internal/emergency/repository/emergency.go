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

	emerrors "wardq/internal/emergency/errors"
	"wardq/pkg/config"
	mongotx "wardq/pkg/db/mongo"
	"wardq/pkg/model"
)

const (
	CollectionName = "Emergencies"
)

type mongoEmergencyRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type EmergencyRepository interface {
	Create(ctx context.Context, admission *model.EmergencyAdmission) error
	FindByID(ctx context.Context, id string) (*model.EmergencyAdmission, error)
	FindByFacilityOrderedByPriority(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.EmergencyAdmission, error)
	CountByFacility(ctx context.Context, facilityID string) (int64, error)
	UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string) (*model.EmergencyAdmission, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoEmergencyRepository(cfg *config.Config) EmergencyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEmergencyRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoEmergencyRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoEmergencyRepository) Create(ctx context.Context, admission *model.EmergencyAdmission) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	admission.CreatedAt = now
	admission.UpdatedAt = now
	admission.PriorityRank = model.PriorityRankOf(admission.Priority)

	result, err := r.collection.InsertOne(ctx, admission)
	if err != nil {
		return fmt.Errorf("failed to create emergency admission: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		admission.ID = oid.Hex()
	}
	return nil
}

func (r *mongoEmergencyRepository) FindByID(ctx context.Context, id string) (*model.EmergencyAdmission, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", emerrors.ErrInvalidID, id)
	}

	var admission model.EmergencyAdmission
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&admission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, emerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find emergency admission: %w", err)
	}

	return &admission, nil
}

// facilityFilter scopes a query to one facility, or to all facilities for
// the cross-facility triage view when facilityID is empty.
func facilityFilter(facilityID string) bson.M {
	if facilityID == "" {
		return bson.M{}
	}
	return bson.M{"facility_id": facilityID}
}

// FindByFacilityOrderedByPriority lists admissions in triage order: critical
// before high before medium, oldest first within a priority. An empty
// facilityID lists across all facilities.
func (r *mongoEmergencyRepository) FindByFacilityOrderedByPriority(ctx context.Context, facilityID string, limit int, offset int64) ([]*model.EmergencyAdmission, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{
			{Key: "priority_rank", Value: 1},
			{Key: "created_at", Value: 1},
		}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, facilityFilter(facilityID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find emergency admissions: %w", err)
	}
	defer cursor.Close(ctx)

	var admissions []*model.EmergencyAdmission
	if err = cursor.All(ctx, &admissions); err != nil {
		return nil, fmt.Errorf("failed to decode emergency admissions: %w", err)
	}

	return admissions, nil
}

func (r *mongoEmergencyRepository) CountByFacility(ctx context.Context, facilityID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, facilityFilter(facilityID))
	if err != nil {
		return 0, fmt.Errorf("failed to count emergency admissions: %w", err)
	}
	return count, nil
}

// UpdateStatus applies one conditional status step. The from-status filter
// rejects concurrent updates that already moved the admission on.
func (r *mongoEmergencyRepository) UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string) (*model.EmergencyAdmission, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", emerrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": fromStatus}
	update := bson.M{
		"$set": bson.M{
			"status":     toStatus,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var admission model.EmergencyAdmission
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&admission)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, emerrors.ErrStatusOrder
		}
		return nil, fmt.Errorf("failed to update emergency status: %w", err)
	}

	return &admission, nil
}

func (r *mongoEmergencyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
