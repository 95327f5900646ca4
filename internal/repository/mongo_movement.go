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

type MongoMovementRepository struct {
	collection *mongo.Collection
}

func NewMongoMovementRepository(db *mongo.Database) *MongoMovementRepository {
	return &MongoMovementRepository{
		collection: db.Collection("movements"),
	}
}

func (r *MongoMovementRepository) Create(ctx context.Context, movement *domain.Movement) error {
	movement.CreatedAt = time.Now()
	movement.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, movement)
	if err != nil {
		return fmt.Errorf("failed to create movement: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		movement.ID = oid.Hex()
	}
	return nil
}

func (r *MongoMovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var movement domain.Movement
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&movement)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrMovementNotFound
		}
		return nil, err
	}
	return &movement, nil
}

func (r *MongoMovementRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Movement, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	movements := []*domain.Movement{}
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, err
	}
	return movements, nil
}
