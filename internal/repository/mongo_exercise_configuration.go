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

type MongoExerciseConfigurationRepository struct {
	collection *mongo.Collection
}

func NewMongoExerciseConfigurationRepository(db *mongo.Database) *MongoExerciseConfigurationRepository {
	coll := db.Collection("exercise_configurations")

	// Create Index
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mod := mongo.IndexModel{
		Keys: bson.D{
			{Key: "movement_id", Value: 1},
			{Key: "equipment", Value: 1},
			{Key: "modifier", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	coll.Indexes().CreateOne(ctx, mod)

	return &MongoExerciseConfigurationRepository{
		collection: coll,
	}
}

func (r *MongoExerciseConfigurationRepository) Create(ctx context.Context, cfg *domain.ExerciseConfiguration) error {
	cfg.CreatedAt = time.Now()
	cfg.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, cfg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateConfiguration
		}
		return fmt.Errorf("failed to create exercise configuration: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		cfg.ID = oid.Hex()
	}
	return nil
}

func (r *MongoExerciseConfigurationRepository) GetByID(ctx context.Context, id string) (*domain.ExerciseConfiguration, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var cfg domain.ExerciseConfiguration
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrExerciseConfigurationNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *MongoExerciseConfigurationRepository) ListByMovement(ctx context.Context, movementID string) ([]*domain.ExerciseConfiguration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"movement_id": movementID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	configs := []*domain.ExerciseConfiguration{}
	if err := cursor.All(ctx, &configs); err != nil {
		return nil, err
	}
	return configs, nil
}
