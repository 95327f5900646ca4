package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMovementNotFound              = errors.New("movement not found")
	ErrExerciseConfigurationNotFound = errors.New("exercise configuration not found")
	ErrDuplicateConfiguration        = errors.New("exercise configuration already exists for this movement")
)

// Movement is a user-owned base exercise, e.g. "Bench Press"
type Movement struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Name      string    `json:"name" bson:"name"`
	Category  string    `json:"category" bson:"category"` // e.g., "Push", "Legs"
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ExerciseConfiguration is the (movement, equipment, modifier) tuple personal
// records are tracked against. Ownership resolves through the movement.
type ExerciseConfiguration struct {
	ID         string    `json:"id" bson:"_id,omitempty"`
	MovementID string    `json:"movement_id" bson:"movement_id"`
	Equipment  string    `json:"equipment" bson:"equipment"`                   // e.g., "Barbell"
	Modifier   string    `json:"modifier,omitempty" bson:"modifier,omitempty"` // e.g., "Paused", "Close Grip"
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

type MovementRepository interface {
	Create(ctx context.Context, movement *Movement) error
	GetByID(ctx context.Context, id string) (*Movement, error)
	ListByUser(ctx context.Context, userID string) ([]*Movement, error)
}

type ExerciseConfigurationRepository interface {
	Create(ctx context.Context, cfg *ExerciseConfiguration) error
	GetByID(ctx context.Context, id string) (*ExerciseConfiguration, error)
	ListByMovement(ctx context.Context, movementID string) ([]*ExerciseConfiguration, error)
}
