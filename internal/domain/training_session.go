package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound         = errors.New("training session not found")
	ErrSessionAlreadyCompleted = errors.New("training session already completed")
)

// Session Status Constants
const (
	SessionStatusPlanned    = "Planned"
	SessionStatusInProgress = "InProgress"
	SessionStatusCompleted  = "Completed"
	SessionStatusAbandoned  = "Abandoned"
)

type TrainingSession struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	UserID      string     `json:"user_id" bson:"user_id"`
	Name        string     `json:"name" bson:"name"` // e.g., "Upper A"
	Status      string     `json:"status" bson:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// IsCompleted reports whether the session's work is final. Records are only
// evaluated against completed sessions unless a check is forced.
func (s *TrainingSession) IsCompleted() bool {
	return s.Status == SessionStatusCompleted
}

type TrainingSessionRepository interface {
	Create(ctx context.Context, session *TrainingSession) error
	GetByID(ctx context.Context, id string) (*TrainingSession, error)
	// ListCompletedByUser returns completed sessions oldest first
	ListCompletedByUser(ctx context.Context, userID string) ([]*TrainingSession, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}
