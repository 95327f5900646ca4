package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/liftrecords/internal/domain"
	"github.com/mansoorceksport/liftrecords/internal/logger"
	"golang.org/x/sync/errgroup"
)

const recordSummaryCacheTTL = 15 * time.Minute

// RecordMetrics receives record transitions for instrumentation
type RecordMetrics interface {
	RecordCreated(ctx context.Context, kind string)
	RecordReverted(ctx context.Context, kind string)
}

// PersonalRecordService evaluates lift attempts against the active Strength
// and Volume records of an exercise configuration and maintains the history
// chain of each (user, configuration, kind) slot.
type PersonalRecordService struct {
	recordRepo   domain.PersonalRecordRepository
	configRepo   domain.ExerciseConfigurationRepository
	movementRepo domain.MovementRepository
	sessionRepo  domain.TrainingSessionRepository
	setEntryRepo domain.SetEntryRepository
	tx           domain.Transactor
	cache        domain.RecordCache // optional
	metrics      RecordMetrics      // optional
	log          *logger.Logger
	now          func() time.Time
}

func NewPersonalRecordService(
	recordRepo domain.PersonalRecordRepository,
	configRepo domain.ExerciseConfigurationRepository,
	movementRepo domain.MovementRepository,
	sessionRepo domain.TrainingSessionRepository,
	setEntryRepo domain.SetEntryRepository,
	tx domain.Transactor,
	cache domain.RecordCache,
	metrics RecordMetrics,
	log *logger.Logger,
) *PersonalRecordService {
	if log == nil {
		log = logger.Nop()
	}
	return &PersonalRecordService{
		recordRepo:   recordRepo,
		configRepo:   configRepo,
		movementRepo: movementRepo,
		sessionRepo:  sessionRepo,
		setEntryRepo: setEntryRepo,
		tx:           tx,
		cache:        cache,
		metrics:      metrics,
		log:          log,
		now:          time.Now,
	}
}

// ResolveConfiguration loads an exercise configuration and checks that its
// movement belongs to userID. A configuration owned by someone else is
// reported exactly like a missing one.
func (s *PersonalRecordService) ResolveConfiguration(ctx context.Context, userID, configID string) (*domain.ExerciseConfiguration, error) {
	cfg, err := s.configRepo.GetByID(ctx, configID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrExerciseConfigurationNotFound
		}
		return nil, fmt.Errorf("failed to load exercise configuration: %w", err)
	}

	movement, err := s.movementRepo.GetByID(ctx, cfg.MovementID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, fmt.Errorf("failed to load movement: %w", err)
	}
	if movement.UserID != userID {
		return nil, domain.ErrExerciseConfigurationNotFound
	}
	return cfg, nil
}

// LoadSession loads a training session owned by userID
func (s *PersonalRecordService) LoadSession(ctx context.Context, userID, sessionID string) (*domain.TrainingSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// SubmitAttempt checks whether attempt sets a new Strength and/or Volume
// record. Unless forceCheck is set, attempts of sessions that are not
// completed are ignored and the returned result reports no new records.
func (s *PersonalRecordService) SubmitAttempt(ctx context.Context, userID string, attempt domain.Attempt, forceCheck bool) (*domain.RecordCheckResult, error) {
	if err := attempt.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.ResolveConfiguration(ctx, userID, attempt.ExerciseConfigurationID); err != nil {
		return nil, err
	}

	newResult := func() *domain.RecordCheckResult {
		return &domain.RecordCheckResult{
			ExerciseConfigurationID: attempt.ExerciseConfigurationID,
			SourceAttemptID:         attempt.SetEntryID,
		}
	}

	if !forceCheck {
		session, err := s.LoadSession(ctx, userID, attempt.SessionID)
		if err != nil {
			return nil, err
		}
		if !session.IsCompleted() {
			s.log.Debug("skipping record check for unfinished session",
				"user_id", userID, "session_id", session.ID, "status", session.Status)
			return newResult(), nil
		}
	}

	// The driver may run the callback more than once; only the last run counts
	var result *domain.RecordCheckResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		attemptResult := newResult()

		strength, err := s.recordRepo.GetActive(ctx, userID, attempt.ExerciseConfigurationID, domain.RecordKindStrength)
		if err != nil {
			return fmt.Errorf("failed to load active strength record: %w", err)
		}
		volume, err := s.recordRepo.GetActive(ctx, userID, attempt.ExerciseConfigurationID, domain.RecordKindVolume)
		if err != nil {
			return fmt.Errorf("failed to load active volume record: %w", err)
		}

		now := s.now().UTC()

		if strength == nil || beatsStrength(attempt, strength) {
			record, err := s.supersede(ctx, userID, attempt, domain.RecordKindStrength, strength, now)
			if err != nil {
				return err
			}
			attemptResult.IsNewStrengthPR = true
			attemptResult.NewStrengthRecord = record
			attemptResult.PreviousStrengthRecord = strength
		}

		if volume == nil || beatsVolume(attempt, volume) {
			record, err := s.supersede(ctx, userID, attempt, domain.RecordKindVolume, volume, now)
			if err != nil {
				return err
			}
			attemptResult.IsNewVolumePR = true
			attemptResult.NewVolumeRecord = record
			attemptResult.PreviousVolumeRecord = volume
		}

		result = attemptResult
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.HasNewRecord() {
		s.invalidate(ctx, userID)
		for _, r := range []*domain.PersonalRecord{result.NewStrengthRecord, result.NewVolumeRecord} {
			if r == nil {
				continue
			}
			if s.metrics != nil {
				s.metrics.RecordCreated(ctx, string(r.Kind))
			}
			s.log.Info("new personal record",
				"user_id", userID,
				"record_id", r.ID,
				"kind", r.Kind,
				"exercise_configuration_id", r.ExerciseConfigurationID,
				"weight", r.Weight,
				"unit", r.Unit,
				"reps", r.Reps,
				"previous_record_id", r.PreviousRecordID,
			)
		}
	}

	return result, nil
}

// beatsStrength is a strict comparison: matching the current weight keeps the
// earlier record.
func beatsStrength(a domain.Attempt, current *domain.PersonalRecord) bool {
	if a.Unit == current.Unit {
		return a.Weight > current.Weight
	}
	return a.WeightKg() > current.WeightKg()
}

func beatsVolume(a domain.Attempt, current *domain.PersonalRecord) bool {
	if a.Unit == current.Unit {
		return a.Weight*float64(a.Reps) > current.Volume()
	}
	return a.VolumeKg() > current.VolumeKg()
}

// supersede deactivates previous (if any) and stores a new active record
// linked back to it.
func (s *PersonalRecordService) supersede(ctx context.Context, userID string, attempt domain.Attempt, kind domain.RecordKind, previous *domain.PersonalRecord, now time.Time) (*domain.PersonalRecord, error) {
	record := &domain.PersonalRecord{
		UserID:                  userID,
		ExerciseConfigurationID: attempt.ExerciseConfigurationID,
		Kind:                    kind,
		Weight:                  attempt.Weight,
		Unit:                    attempt.Unit,
		Reps:                    attempt.Reps,
		CreatedAt:               now,
		SourceAttemptID:         attempt.SetEntryID,
		IsActive:                true,
	}

	if previous != nil {
		if err := s.recordRepo.SetActive(ctx, userID, previous.ID, false); err != nil {
			return nil, fmt.Errorf("failed to deactivate %s record %s: %w", kind, previous.ID, err)
		}
		previous.IsActive = false

		previousCreatedAt := previous.CreatedAt
		record.PreviousRecordID = previous.ID
		record.PreviousRecordCreatedAt = &previousCreatedAt
	}

	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", kind, err)
	}
	return record, nil
}

// CheckAndRevertIfNeeded undoes records whose source attempt was edited
// below the value that earned them. oldWeight is in the unit the record was
// stored with. It never creates records; callers re-submit the edited attempt
// to find out whether it still sets one.
func (s *PersonalRecordService) CheckAndRevertIfNeeded(ctx context.Context, userID string, updated domain.Attempt, oldWeight float64, oldReps int) ([]*domain.RevertResult, error) {
	if updated.SetEntryID == "" {
		return nil, nil
	}

	var reverted []*domain.RevertResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		records, err := s.recordRepo.ListActiveBySourceAttempt(ctx, userID, updated.SetEntryID)
		if err != nil {
			return fmt.Errorf("failed to load records of attempt %s: %w", updated.SetEntryID, err)
		}

		var batch []*domain.RevertResult
		for _, record := range records {
			if !noLongerJustified(record, updated, oldWeight, oldReps) {
				continue
			}
			result, err := s.revert(ctx, userID, record.ID)
			if err != nil {
				return err
			}
			batch = append(batch, result)
		}
		reverted = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(reverted) > 0 {
		s.invalidate(ctx, userID)
		for _, r := range reverted {
			s.reportRevert(ctx, userID, r)
		}
	}
	return reverted, nil
}

func noLongerJustified(record *domain.PersonalRecord, updated domain.Attempt, oldWeight float64, oldReps int) bool {
	oldUnit := record.Unit
	switch record.Kind {
	case domain.RecordKindStrength:
		if updated.Unit == oldUnit {
			return updated.Weight < oldWeight
		}
		return updated.WeightKg() < oldUnit.Kilograms(oldWeight)
	case domain.RecordKindVolume:
		if updated.Unit == oldUnit {
			return updated.Weight*float64(updated.Reps) < oldWeight*float64(oldReps)
		}
		return updated.VolumeKg() < oldUnit.Kilograms(oldWeight*float64(oldReps))
	}
	return false
}

// RevertToPrevious deactivates an active record and reactivates the record it
// superseded, which is returned. It returns nil when the reverted record was
// the first of its kind. Reverting an inactive record fails with
// ErrRecordNotActive and changes nothing.
func (s *PersonalRecordService) RevertToPrevious(ctx context.Context, userID, recordID string) (*domain.PersonalRecord, error) {
	var result *domain.RevertResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.revert(ctx, userID, recordID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.reportRevert(ctx, userID, result)
	return result.Restored, nil
}

// revert performs the writes of a revert. It has no side effects outside
// storage so it can run inside a transaction that may be retried.
func (s *PersonalRecordService) revert(ctx context.Context, userID, recordID string) (*domain.RevertResult, error) {
	record, err := s.recordRepo.GetByID(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return nil, domain.ErrRecordNotActive
	}

	var previous *domain.PersonalRecord
	if record.HasPrevious() {
		previous, err = s.recordRepo.GetByID(ctx, userID, record.PreviousRecordID)
		if err != nil {
			return nil, fmt.Errorf("failed to load previous record %s: %w", record.PreviousRecordID, err)
		}
	}

	if err := s.recordRepo.SetActive(ctx, userID, record.ID, false); err != nil {
		return nil, fmt.Errorf("failed to deactivate record %s: %w", record.ID, err)
	}
	record.IsActive = false

	if previous != nil {
		if err := s.recordRepo.SetActive(ctx, userID, previous.ID, true); err != nil {
			return nil, fmt.Errorf("failed to reactivate record %s: %w", previous.ID, err)
		}
		previous.IsActive = true
	}
	return &domain.RevertResult{Reverted: record, Restored: previous}, nil
}

// reportRevert records a committed revert in metrics and logs
func (s *PersonalRecordService) reportRevert(ctx context.Context, userID string, r *domain.RevertResult) {
	if s.metrics != nil {
		s.metrics.RecordReverted(ctx, string(r.Reverted.Kind))
	}
	restoredID := ""
	if r.Restored != nil {
		restoredID = r.Restored.ID
	}
	s.log.Info("personal record reverted",
		"user_id", userID,
		"record_id", r.Reverted.ID,
		"kind", r.Reverted.Kind,
		"restored_record_id", restoredID,
	)
}

// ProcessTrainingSession evaluates every lift of a session in logged order
// and returns the results that set a new record. Each attempt is checked
// against the record state left by the attempts before it.
func (s *PersonalRecordService) ProcessTrainingSession(ctx context.Context, userID, sessionID string) ([]*domain.RecordCheckResult, error) {
	session, err := s.LoadSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	entries, err := s.setEntryRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load set entries: %w", err)
	}

	results := []*domain.RecordCheckResult{}
	for _, entry := range entries {
		if !entry.IsLift() {
			continue
		}

		result, err := s.SubmitAttempt(ctx, userID, entry.Attempt(), true)
		if err != nil {
			// Unfilled sets carry no weight or reps yet
			if errors.Is(err, domain.ErrInvalidAttempt) || errors.Is(err, domain.ErrInvalidUnit) {
				s.log.Debug("skipping incomplete set entry", "set_entry_id", entry.ID, "error", err)
				continue
			}
			return nil, fmt.Errorf("set entry %s: %w", entry.ID, err)
		}
		if result.HasNewRecord() {
			results = append(results, result)
		}
	}

	s.log.Info("training session processed for records",
		"user_id", userID, "session_id", session.ID, "entries", len(entries), "new_records", len(results))

	return results, nil
}

// ReplayReport describes one ReplayCompletedSessions run
type ReplayReport struct {
	Sessions   int  `json:"sessions"`
	Lifts      int  `json:"lifts"`
	NewRecords int  `json:"new_records"`
	DryRun     bool `json:"dry_run"`
}

// ReplayCompletedSessions runs every completed session of a user, oldest
// first, through ProcessTrainingSession. Sessions completed while record
// processing was failing pick up their records this way; already evaluated
// sessions change nothing since ties never replace a record. With dryRun only
// the sessions and lifts that would be evaluated are counted.
func (s *PersonalRecordService) ReplayCompletedSessions(ctx context.Context, userID string, dryRun bool) (*ReplayReport, error) {
	sessions, err := s.sessionRepo.ListCompletedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed sessions: %w", err)
	}

	report := &ReplayReport{Sessions: len(sessions), DryRun: dryRun}
	for _, session := range sessions {
		entries, err := s.setEntryRepo.ListBySession(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load set entries of %s: %w", session.ID, err)
		}
		for _, e := range entries {
			if e.IsLift() {
				report.Lifts++
			}
		}
		if dryRun {
			continue
		}

		results, err := s.ProcessTrainingSession(ctx, userID, session.ID)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", session.ID, err)
		}
		report.NewRecords += len(results)
	}
	return report, nil
}

// ListActiveRecords returns every active record of the user
func (s *PersonalRecordService) ListActiveRecords(ctx context.Context, userID string) ([]*domain.PersonalRecord, error) {
	return s.recordRepo.ListActiveByUser(ctx, userID)
}

// GetSummary returns the best Strength and Volume record of one configuration
func (s *PersonalRecordService) GetSummary(ctx context.Context, userID, configID string) (*domain.RecordSummary, error) {
	if _, err := s.ResolveConfiguration(ctx, userID, configID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		var cached domain.RecordSummary
		if err := s.cache.GetRecordSummary(ctx, userID, configID, &cached); err == nil {
			return &cached, nil
		}
	}

	var strength, volume *domain.PersonalRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		strength, err = s.recordRepo.GetActive(gctx, userID, configID, domain.RecordKindStrength)
		return err
	})
	g.Go(func() error {
		var err error
		volume, err = s.recordRepo.GetActive(gctx, userID, configID, domain.RecordKindVolume)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load active records: %w", err)
	}

	summary := domain.NewRecordSummary(configID, strength, volume)
	if s.cache != nil {
		_ = s.cache.SetRecordSummary(ctx, userID, configID, summary, recordSummaryCacheTTL)
	}
	return summary, nil
}

// GetSummaries returns a summary for every configuration with an active record
func (s *PersonalRecordService) GetSummaries(ctx context.Context, userID string) ([]*domain.RecordSummary, error) {
	if s.cache != nil {
		var cached []*domain.RecordSummary
		if err := s.cache.GetRecordSummaries(ctx, userID, &cached); err == nil {
			return cached, nil
		}
	}

	records, err := s.recordRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active records: %w", err)
	}

	type pair struct{ strength, volume *domain.PersonalRecord }
	byConfig := make(map[string]*pair)
	order := []string{}
	for _, r := range records {
		p, ok := byConfig[r.ExerciseConfigurationID]
		if !ok {
			p = &pair{}
			byConfig[r.ExerciseConfigurationID] = p
			order = append(order, r.ExerciseConfigurationID)
		}
		switch r.Kind {
		case domain.RecordKindStrength:
			p.strength = r
		case domain.RecordKindVolume:
			p.volume = r
		}
	}

	summaries := make([]*domain.RecordSummary, 0, len(order))
	for _, configID := range order {
		p := byConfig[configID]
		summaries = append(summaries, domain.NewRecordSummary(configID, p.strength, p.volume))
	}

	if s.cache != nil {
		_ = s.cache.SetRecordSummaries(ctx, userID, summaries, recordSummaryCacheTTL)
	}
	return summaries, nil
}

// GetHistory returns every record of one slot, newest first
func (s *PersonalRecordService) GetHistory(ctx context.Context, userID, configID string, kind domain.RecordKind) ([]*domain.PersonalRecord, error) {
	if kind != domain.RecordKindStrength && kind != domain.RecordKindVolume {
		return nil, domain.ErrInvalidRecordKind
	}
	if _, err := s.ResolveConfiguration(ctx, userID, configID); err != nil {
		return nil, err
	}
	return s.recordRepo.ListHistory(ctx, userID, configID, kind)
}

func (s *PersonalRecordService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateRecords(ctx, userID); err != nil {
		s.log.Warn("failed to invalidate record cache", "user_id", userID, "error", err)
	}
}
