package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/liftrecords/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSetEntryRepository struct {
	collection *mongo.Collection
}

func NewMongoSetEntryRepository(db *mongo.Database) *MongoSetEntryRepository {
	return &MongoSetEntryRepository{
		collection: db.Collection("set_entries"),
	}
}

func (r *MongoSetEntryRepository) Create(ctx context.Context, entry *domain.SetEntry) error {
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to create set entry: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid.Hex()
	}
	return nil
}

func (r *MongoSetEntryRepository) GetByID(ctx context.Context, id string) (*domain.SetEntry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var entry domain.SetEntry
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSetEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ListBySession returns entries in the order they were logged
func (r *MongoSetEntryRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.SetEntry, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"session_id": sessionID}, options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []*domain.SetEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *MongoSetEntryRepository) Update(ctx context.Context, entry *domain.SetEntry) error {
	oid, err := primitive.ObjectIDFromHex(entry.ID)
	if err != nil {
		return domain.ErrInvalidID
	}

	entry.UpdatedAt = time.Now()

	update := bson.M{
		"$set": bson.M{
			"exercise_configuration_id": entry.ExerciseConfigurationID,
			"weight":                    entry.Weight,
			"unit":                      entry.Unit,
			"reps":                      entry.Reps,
			"distance_meters":           entry.DistanceMeters,
			"duration_seconds":          entry.DurationSeconds,
			"remarks":                   entry.Remarks,
			"updated_at":                entry.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrSetEntryNotFound
	}
	return nil
}
