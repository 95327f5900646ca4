package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/mansoorceksport/liftrecords/internal/domain"
	"github.com/mansoorceksport/liftrecords/internal/logger"
	"github.com/oklog/ulid/v2"
)

// TrainingService owns movements, configurations, sessions and set entries,
// and notifies the record evaluator whenever finished work changes.
type TrainingService struct {
	movementRepo domain.MovementRepository
	configRepo   domain.ExerciseConfigurationRepository
	sessionRepo  domain.TrainingSessionRepository
	setEntryRepo domain.SetEntryRepository
	records      *PersonalRecordService
	log          *logger.Logger
}

func NewTrainingService(
	movementRepo domain.MovementRepository,
	configRepo domain.ExerciseConfigurationRepository,
	sessionRepo domain.TrainingSessionRepository,
	setEntryRepo domain.SetEntryRepository,
	records *PersonalRecordService,
	log *logger.Logger,
) *TrainingService {
	if log == nil {
		log = logger.Nop()
	}
	return &TrainingService{
		movementRepo: movementRepo,
		configRepo:   configRepo,
		sessionRepo:  sessionRepo,
		setEntryRepo: setEntryRepo,
		records:      records,
		log:          log,
	}
}

// generateULID creates a new ULID string
func generateULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// SetLogResult is a stored set entry plus the record check it triggered, if any
type SetLogResult struct {
	Entry    *domain.SetEntry          `json:"entry"`
	Records  *domain.RecordCheckResult `json:"records,omitempty"`
	Reverted []*domain.RevertResult    `json:"reverted,omitempty"`
}

// SetEntryUpdate carries the editable fields of a set entry; nil means unchanged
type SetEntryUpdate struct {
	Weight          *float64           `json:"weight"`
	Unit            *domain.WeightUnit `json:"unit"`
	Reps            *int               `json:"reps"`
	DistanceMeters  *float64           `json:"distance_meters"`
	DurationSeconds *int               `json:"duration_seconds"`
	Remarks         *string            `json:"remarks"`
}

// --- Movements & Configurations ---

func (s *TrainingService) CreateMovement(ctx context.Context, userID string, movement *domain.Movement) error {
	movement.Name = strings.TrimSpace(movement.Name)
	if movement.Name == "" {
		return fmt.Errorf("%w: movement name is required", domain.ErrInvalidAttempt)
	}
	// Ids are assigned by storage, never by the client
	movement.ID = ""
	movement.UserID = userID
	return s.movementRepo.Create(ctx, movement)
}

func (s *TrainingService) ListMovements(ctx context.Context, userID string) ([]*domain.Movement, error) {
	return s.movementRepo.ListByUser(ctx, userID)
}

// CreateConfiguration adds an equipment/modifier variant to a movement the user owns
func (s *TrainingService) CreateConfiguration(ctx context.Context, userID string, cfg *domain.ExerciseConfiguration) error {
	movement, err := s.movementRepo.GetByID(ctx, cfg.MovementID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.ErrMovementNotFound
		}
		return err
	}
	if movement.UserID != userID {
		return domain.ErrMovementNotFound
	}
	cfg.ID = ""
	return s.configRepo.Create(ctx, cfg)
}

// --- Sessions ---

func (s *TrainingService) CreateSession(ctx context.Context, userID string, session *domain.TrainingSession) error {
	session.ID = ""
	session.UserID = userID
	session.CompletedAt = nil
	switch session.Status {
	case "":
		session.Status = domain.SessionStatusPlanned
	case domain.SessionStatusPlanned, domain.SessionStatusInProgress:
	default:
		// Sessions reach Completed only through CompleteSession so records get evaluated
		return fmt.Errorf("%w: sessions must start as %s or %s", domain.ErrInvalidAttempt,
			domain.SessionStatusPlanned, domain.SessionStatusInProgress)
	}
	return s.sessionRepo.Create(ctx, session)
}

// GetSession returns a session owned by userID together with its set entries
func (s *TrainingService) GetSession(ctx context.Context, userID, sessionID string) (*domain.TrainingSession, []*domain.SetEntry, error) {
	session, err := s.records.LoadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.setEntryRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, entries, nil
}

// CompleteSession marks a session Completed and evaluates all of its lifts
func (s *TrainingService) CompleteSession(ctx context.Context, userID, sessionID string) ([]*domain.RecordCheckResult, error) {
	session, err := s.records.LoadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted() {
		return nil, domain.ErrSessionAlreadyCompleted
	}

	if err := s.sessionRepo.UpdateStatus(ctx, session.ID, domain.SessionStatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	results, err := s.records.ProcessTrainingSession(ctx, userID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("session completed but record processing failed: %w", err)
	}
	return results, nil
}

// --- Set Entries ---

// LogSet stores a new set entry. A lift logged into an already completed
// session is evaluated for records immediately.
func (s *TrainingService) LogSet(ctx context.Context, userID, sessionID string, entry *domain.SetEntry) (*SetLogResult, error) {
	session, err := s.records.LoadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateEntryType(entry.Type); err != nil {
		return nil, err
	}

	entry.ID = ""
	entry.SessionID = session.ID
	entry.UserID = userID
	if entry.ClientID == "" {
		entry.ClientID = generateULID()
	}

	if entry.IsLift() {
		if err := s.prepareLift(ctx, userID, entry); err != nil {
			return nil, err
		}
	}

	if err := s.setEntryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	result := &SetLogResult{Entry: entry}
	if entry.IsLift() && session.IsCompleted() && entry.Attempt().Validate() == nil {
		check, err := s.records.SubmitAttempt(ctx, userID, entry.Attempt(), true)
		if err != nil {
			return nil, fmt.Errorf("set logged but record check failed: %w", err)
		}
		result.Records = check
	}
	return result, nil
}

// UpdateSet edits a set entry. For lifts of a completed session, records the
// old values earned are reverted when the edit lowers them, then the edited
// attempt is evaluated again.
func (s *TrainingService) UpdateSet(ctx context.Context, userID, entryID string, update SetEntryUpdate) (*SetLogResult, error) {
	entry, err := s.setEntryRepo.GetByID(ctx, entryID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrSetEntryNotFound
		}
		return nil, err
	}
	if entry.UserID != userID {
		return nil, domain.ErrSetEntryNotFound
	}

	session, err := s.records.LoadSession(ctx, userID, entry.SessionID)
	if err != nil {
		return nil, err
	}

	oldWeight, oldReps := entry.Weight, entry.Reps

	if update.Weight != nil {
		entry.Weight = *update.Weight
	}
	if update.Unit != nil {
		entry.Unit = *update.Unit
	}
	if update.Reps != nil {
		entry.Reps = *update.Reps
	}
	if update.DistanceMeters != nil {
		entry.DistanceMeters = *update.DistanceMeters
	}
	if update.DurationSeconds != nil {
		entry.DurationSeconds = *update.DurationSeconds
	}
	if update.Remarks != nil {
		entry.Remarks = *update.Remarks
	}
	if entry.IsLift() {
		if err := s.prepareLift(ctx, userID, entry); err != nil {
			return nil, err
		}
	}

	if err := s.setEntryRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	result := &SetLogResult{Entry: entry}
	if !entry.IsLift() || !session.IsCompleted() {
		return result, nil
	}

	reverted, err := s.records.CheckAndRevertIfNeeded(ctx, userID, entry.Attempt(), oldWeight, oldReps)
	if err != nil {
		return nil, fmt.Errorf("set updated but record revert failed: %w", err)
	}
	result.Reverted = reverted

	if entry.Attempt().Validate() == nil {
		check, err := s.records.SubmitAttempt(ctx, userID, entry.Attempt(), true)
		if err != nil {
			return nil, fmt.Errorf("set updated but record check failed: %w", err)
		}
		result.Records = check
	}
	return result, nil
}

// prepareLift validates the lift fields of an entry and defaults its unit.
// Zero weight or reps is allowed for sets planned but not yet performed.
func (s *TrainingService) prepareLift(ctx context.Context, userID string, entry *domain.SetEntry) error {
	if entry.Unit == "" {
		entry.Unit = domain.UnitKilograms
	}
	if !entry.Unit.Valid() {
		return domain.ErrInvalidUnit
	}
	if entry.Weight < 0 || entry.Reps < 0 {
		return domain.ErrInvalidAttempt
	}
	if _, err := s.records.ResolveConfiguration(ctx, userID, entry.ExerciseConfigurationID); err != nil {
		return err
	}
	return nil
}
