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

type MongoPersonalRecordRepository struct {
	collection *mongo.Collection
}

func NewMongoPersonalRecordRepository(db *mongo.Database) *MongoPersonalRecordRepository {
	coll := db.Collection("personal_records")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// At most one active record per (user, configuration, kind)
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "exercise_configuration_id", Value: 1},
				{Key: "kind", Value: 1},
			},
			Options: options.Index().
				SetName("one_active_per_slot").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "exercise_configuration_id", Value: 1},
				{Key: "kind", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("slot_history"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "source_attempt_id", Value: 1}},
			Options: options.Index().SetName("source_attempt"),
		},
	}
	coll.Indexes().CreateMany(ctx, models)

	return &MongoPersonalRecordRepository{
		collection: coll,
	}
}

func (r *MongoPersonalRecordRepository) Create(ctx context.Context, record *domain.PersonalRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create personal record: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *MongoPersonalRecordRepository) GetByID(ctx context.Context, userID, id string) (*domain.PersonalRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRecordNotFound
	}

	var record domain.PersonalRecord
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *MongoPersonalRecordRepository) GetActive(ctx context.Context, userID, configID string, kind domain.RecordKind) (*domain.PersonalRecord, error) {
	var record domain.PersonalRecord
	err := r.collection.FindOne(ctx, bson.M{
		"user_id":                   userID,
		"exercise_configuration_id": configID,
		"kind":                      kind,
		"is_active":                 true,
	}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // No record for this slot yet
		}
		return nil, err
	}
	return &record, nil
}

func (r *MongoPersonalRecordRepository) ListActiveBySourceAttempt(ctx context.Context, userID, attemptID string) ([]*domain.PersonalRecord, error) {
	return r.find(ctx, bson.M{
		"user_id":           userID,
		"source_attempt_id": attemptID,
		"is_active":         true,
	}, options.Find().SetSort(bson.D{{Key: "kind", Value: 1}}))
}

func (r *MongoPersonalRecordRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.PersonalRecord, error) {
	return r.find(ctx, bson.M{
		"user_id":   userID,
		"is_active": true,
	}, options.Find().SetSort(bson.D{
		{Key: "exercise_configuration_id", Value: 1},
		{Key: "kind", Value: 1},
	}))
}

func (r *MongoPersonalRecordRepository) ListHistory(ctx context.Context, userID, configID string, kind domain.RecordKind) ([]*domain.PersonalRecord, error) {
	return r.find(ctx, bson.M{
		"user_id":                   userID,
		"exercise_configuration_id": configID,
		"kind":                      kind,
	}, options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
}

func (r *MongoPersonalRecordRepository) SetActive(ctx context.Context, userID, id string, active bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRecordNotFound
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": userID},
		bson.M{"$set": bson.M{"is_active": active}},
	)
	if err != nil {
		return fmt.Errorf("failed to set record active=%t: %w", active, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *MongoPersonalRecordRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.PersonalRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []*domain.PersonalRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
