package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wardq/internal/migrations/mongo/validators"
)

var (
	// The unique {facility_id, number} index backs the bed directory and
	// the compound {facility_id, category, occupied} index backs the
	// atomic allocator's filter.
	BedsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "facility_id", Value: 1},
				{Key: "number", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "facility_id", Value: 1},
			{Key: "category", Value: 1},
			{Key: "occupied", Value: 1},
		}},
	}

	ReservationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "requester_id", Value: 1},
			{Key: "state", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "facility_id", Value: 1},
			{Key: "state", Value: 1},
			{Key: "created_at", Value: -1},
		}},
	}

	EmergenciesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "facility_id", Value: 1},
			{Key: "priority_rank", Value: 1},
			{Key: "created_at", Value: 1},
		}},
	}

	// The unique {facility_id, token} index is the backstop behind the
	// counter: even a misbehaving writer cannot issue a duplicate token.
	QueueEntriesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "facility_id", Value: 1},
				{Key: "token", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{
			{Key: "facility_id", Value: 1},
			{Key: "state", Value: 1},
			{Key: "token", Value: 1},
		}},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running wardq Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Beds": {
			Indexes:   BedsIndexes,
			Validator: validators.BedValidator,
		},
		"Reservations": {
			Indexes:   ReservationsIndexes,
			Validator: validators.ReservationValidator,
		},
		"Emergencies": {
			Indexes:   EmergenciesIndexes,
			Validator: validators.EmergencyValidator,
		},
		"QueueEntries": {
			Indexes:   QueueEntriesIndexes,
			Validator: validators.QueueEntryValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	// Counters carries one sequence document per facility with no schema
	// beyond {_id, seq}; it only needs to exist.
	if err := ensureCollection(ctx, db, "Counters", nil); err != nil {
		return fmt.Errorf("failed to ensure collection Counters: %w", err)
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts = opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else if validator != nil {
		fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
