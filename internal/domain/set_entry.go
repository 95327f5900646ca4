package domain

import (
	"context"
	"errors"
	"time"
)

var ErrSetEntryNotFound = errors.New("set entry not found")

// Set Entry Type Constants
const (
	EntryTypeLift = "Lift"
	EntryTypeRun  = "Run"
	EntryTypeRide = "Ride"
)

// SetEntry is a single logged set inside a training session.
// Lifts carry weight/reps, runs and rides carry distance/duration.
type SetEntry struct {
	ID                      string     `json:"id" bson:"_id,omitempty"`
	ClientID                string     `json:"client_id,omitempty" bson:"client_id,omitempty"` // Frontend ULID for dual-identity
	SessionID               string     `json:"session_id" bson:"session_id"`
	UserID                  string     `json:"user_id" bson:"user_id"`
	Type                    string     `json:"type" bson:"type"`
	ExerciseConfigurationID string     `json:"exercise_configuration_id,omitempty" bson:"exercise_configuration_id,omitempty"`
	Weight                  float64    `json:"weight,omitempty" bson:"weight,omitempty"`
	Unit                    WeightUnit `json:"unit,omitempty" bson:"unit,omitempty"`
	Reps                    int        `json:"reps,omitempty" bson:"reps,omitempty"`
	DistanceMeters          float64    `json:"distance_meters,omitempty" bson:"distance_meters,omitempty"`
	DurationSeconds         int        `json:"duration_seconds,omitempty" bson:"duration_seconds,omitempty"`
	Remarks                 string     `json:"remarks,omitempty" bson:"remarks,omitempty"`
	CreatedAt               time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at" bson:"updated_at"`
}

func (e *SetEntry) IsLift() bool {
	return e.Type == EntryTypeLift
}

// Attempt converts a lift entry into the attempt evaluated for records
func (e *SetEntry) Attempt() Attempt {
	return Attempt{
		SetEntryID:              e.ID,
		SessionID:               e.SessionID,
		ExerciseConfigurationID: e.ExerciseConfigurationID,
		Weight:                  e.Weight,
		Reps:                    e.Reps,
		Unit:                    e.Unit,
	}
}

// ValidateEntryType checks the entry type is one of the known kinds
func ValidateEntryType(t string) error {
	switch t {
	case EntryTypeLift, EntryTypeRun, EntryTypeRide:
		return nil
	}
	return ErrInvalidEntryType
}

type SetEntryRepository interface {
	Create(ctx context.Context, entry *SetEntry) error
	GetByID(ctx context.Context, id string) (*SetEntry, error)
	// ListBySession returns the session's entries in insertion order
	ListBySession(ctx context.Context, sessionID string) ([]*SetEntry, error)
	Update(ctx context.Context, entry *SetEntry) error
}
