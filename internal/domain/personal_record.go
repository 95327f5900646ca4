package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRecordNotFound  = errors.New("personal record not found")
	ErrRecordNotActive = errors.New("personal record is not active")
)

// RecordKind is what a personal record ranks by
type RecordKind string

const (
	// RecordKindStrength ranks by the heaviest weight regardless of reps
	RecordKindStrength RecordKind = "Strength"
	// RecordKindVolume ranks by weight x reps of a single set
	RecordKindVolume RecordKind = "Volume"
)

// ParseRecordKind accepts the canonical names case-insensitively
func ParseRecordKind(s string) (RecordKind, error) {
	switch s {
	case "Strength", "strength", "STRENGTH":
		return RecordKindStrength, nil
	case "Volume", "volume", "VOLUME":
		return RecordKindVolume, nil
	}
	return "", ErrInvalidRecordKind
}

type WeightUnit string

const (
	UnitKilograms WeightUnit = "kg"
	UnitPounds    WeightUnit = "lb"
)

const kilogramsPerPound = 0.45359237

func (u WeightUnit) Valid() bool {
	return u == UnitKilograms || u == UnitPounds
}

// Kilograms converts a weight expressed in u to kilograms
func (u WeightUnit) Kilograms(weight float64) float64 {
	if u == UnitPounds {
		return weight * kilogramsPerPound
	}
	return weight
}

// Attempt is one logged lift set evaluated for records. It is an immutable
// input; the evaluator never stores or modifies it.
type Attempt struct {
	SetEntryID              string     `json:"set_entry_id"`
	SessionID               string     `json:"session_id"`
	ExerciseConfigurationID string     `json:"exercise_configuration_id"`
	Weight                  float64    `json:"weight"`
	Reps                    int        `json:"reps"`
	Unit                    WeightUnit `json:"unit"`
}

func (a Attempt) Validate() error {
	if a.Weight <= 0 || a.Reps < 1 {
		return ErrInvalidAttempt
	}
	if !a.Unit.Valid() {
		return ErrInvalidUnit
	}
	return nil
}

// WeightKg is the attempt weight normalized to kilograms
func (a Attempt) WeightKg() float64 {
	return a.Unit.Kilograms(a.Weight)
}

// VolumeKg is weight x reps normalized to kilograms
func (a Attempt) VolumeKg() float64 {
	return a.WeightKg() * float64(a.Reps)
}

// PersonalRecord is the best attempt for one (user, exercise configuration, kind)
// slot at a point in time. Superseded records stay in place with IsActive=false
// and PreviousRecordID links each record to the one it replaced.
type PersonalRecord struct {
	ID                      string     `json:"id" bson:"_id,omitempty"`
	UserID                  string     `json:"user_id" bson:"user_id"`
	ExerciseConfigurationID string     `json:"exercise_configuration_id" bson:"exercise_configuration_id"`
	Kind                    RecordKind `json:"kind" bson:"kind"`
	Weight                  float64    `json:"weight" bson:"weight"`
	Unit                    WeightUnit `json:"unit" bson:"unit"`
	Reps                    int        `json:"reps" bson:"reps"`
	CreatedAt               time.Time  `json:"created_at" bson:"created_at"`
	PreviousRecordCreatedAt *time.Time `json:"previous_record_created_at,omitempty" bson:"previous_record_created_at,omitempty"`
	PreviousRecordID        string     `json:"previous_record_id,omitempty" bson:"previous_record_id,omitempty"`
	SourceAttemptID         string     `json:"source_attempt_id,omitempty" bson:"source_attempt_id,omitempty"`
	IsActive                bool       `json:"is_active" bson:"is_active"`
}

// Volume is weight x reps in the record's own unit
func (r *PersonalRecord) Volume() float64 {
	return r.Weight * float64(r.Reps)
}

func (r *PersonalRecord) WeightKg() float64 {
	return r.Unit.Kilograms(r.Weight)
}

func (r *PersonalRecord) VolumeKg() float64 {
	return r.Unit.Kilograms(r.Volume())
}

func (r *PersonalRecord) HasPrevious() bool {
	return r.PreviousRecordID != ""
}

// RecordCheckResult reports what SubmitAttempt did for each record kind
type RecordCheckResult struct {
	ExerciseConfigurationID string          `json:"exercise_configuration_id"`
	SourceAttemptID         string          `json:"source_attempt_id"`
	IsNewStrengthPR         bool            `json:"is_new_strength_pr"`
	NewStrengthRecord       *PersonalRecord `json:"new_strength_record,omitempty"`
	PreviousStrengthRecord  *PersonalRecord `json:"previous_strength_record,omitempty"`
	IsNewVolumePR           bool            `json:"is_new_volume_pr"`
	NewVolumeRecord         *PersonalRecord `json:"new_volume_record,omitempty"`
	PreviousVolumeRecord    *PersonalRecord `json:"previous_volume_record,omitempty"`
}

func (r *RecordCheckResult) HasNewRecord() bool {
	return r.IsNewStrengthPR || r.IsNewVolumePR
}

// RevertResult pairs a reverted record with the predecessor it restored.
// Restored is nil when the reverted record was the first of its chain.
type RevertResult struct {
	Reverted *PersonalRecord `json:"reverted"`
	Restored *PersonalRecord `json:"restored,omitempty"`
}

// RecordSummary is the best Strength and Volume record of one configuration
type RecordSummary struct {
	ExerciseConfigurationID string          `json:"exercise_configuration_id"`
	Strength                *PersonalRecord `json:"strength,omitempty"`
	Volume                  *PersonalRecord `json:"volume,omitempty"`
	LastRecordAt            *time.Time      `json:"last_record_at,omitempty"`
}

// NewRecordSummary builds a summary from the active records of a configuration.
// Either record may be nil.
func NewRecordSummary(configID string, strength, volume *PersonalRecord) *RecordSummary {
	summary := &RecordSummary{
		ExerciseConfigurationID: configID,
		Strength:                strength,
		Volume:                  volume,
	}
	for _, r := range []*PersonalRecord{strength, volume} {
		if r == nil {
			continue
		}
		if summary.LastRecordAt == nil || r.CreatedAt.After(*summary.LastRecordAt) {
			at := r.CreatedAt
			summary.LastRecordAt = &at
		}
	}
	return summary
}

// PersonalRecordRepository stores personal records. Every lookup is scoped to
// the owning user; a record of another user is reported as ErrRecordNotFound.
type PersonalRecordRepository interface {
	Create(ctx context.Context, record *PersonalRecord) error
	GetByID(ctx context.Context, userID, id string) (*PersonalRecord, error)
	// GetActive returns the active record of a slot, or nil if there is none
	GetActive(ctx context.Context, userID, configID string, kind RecordKind) (*PersonalRecord, error)
	ListActiveBySourceAttempt(ctx context.Context, userID, attemptID string) ([]*PersonalRecord, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*PersonalRecord, error)
	// ListHistory returns every record of a slot, newest first
	ListHistory(ctx context.Context, userID, configID string, kind RecordKind) ([]*PersonalRecord, error)
	SetActive(ctx context.Context, userID, id string, active bool) error
}

// RecordCache holds derived record views that must be dropped whenever a
// user's records change
type RecordCache interface {
	GetRecordSummaries(ctx context.Context, userID string, dest interface{}) error
	SetRecordSummaries(ctx context.Context, userID string, data interface{}, ttl time.Duration) error
	GetRecordSummary(ctx context.Context, userID, configID string, dest interface{}) error
	SetRecordSummary(ctx context.Context, userID, configID string, data interface{}, ttl time.Duration) error
	InvalidateRecords(ctx context.Context, userID string) error
}

// Transactor runs fn as a single unit of work
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
