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

type MongoTrainingSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoTrainingSessionRepository(db *mongo.Database) *MongoTrainingSessionRepository {
	return &MongoTrainingSessionRepository{
		collection: db.Collection("training_sessions"),
	}
}

func (r *MongoTrainingSessionRepository) Create(ctx context.Context, session *domain.TrainingSession) error {
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()
	if session.Status == "" {
		session.Status = domain.SessionStatusPlanned
	}

	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

func (r *MongoTrainingSessionRepository) GetByID(ctx context.Context, id string) (*domain.TrainingSession, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var session domain.TrainingSession
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListCompletedByUser returns the user's completed sessions, oldest first
func (r *MongoTrainingSessionRepository) ListCompletedByUser(ctx context.Context, userID string) ([]*domain.TrainingSession, error) {
	filter := bson.M{
		"user_id": userID,
		"status":  domain.SessionStatusCompleted,
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{
		{Key: "completed_at", Value: 1},
		{Key: "_id", Value: 1},
	}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []*domain.TrainingSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *MongoTrainingSessionRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	now := time.Now()
	set := bson.M{
		"status":     status,
		"updated_at": now,
	}
	if status == domain.SessionStatusCompleted {
		set["completed_at"] = now
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
