package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mansoorceksport/liftrecords/internal/domain"
)

// In-memory implementations of the domain repositories used by service tests.
// Like MongoDB, Create keeps an id that is already set and generates one otherwise.

type memMovements struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Movement
}

func newMemMovements() *memMovements {
	return &memMovements{byID: map[string]*domain.Movement{}}
}

func (m *memMovements) Create(ctx context.Context, movement *domain.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if movement.ID == "" {
		m.seq++
		movement.ID = fmt.Sprintf("mov-%d", m.seq)
	}
	cp := *movement
	m.byID[movement.ID] = &cp
	return nil
}

func (m *memMovements) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}
	cp := *mv
	return &cp, nil
}

func (m *memMovements) ListByUser(ctx context.Context, userID string) ([]*domain.Movement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.Movement{}
	for _, mv := range m.byID {
		if mv.UserID == userID {
			cp := *mv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memConfigs struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.ExerciseConfiguration
}

func newMemConfigs() *memConfigs {
	return &memConfigs{byID: map[string]*domain.ExerciseConfiguration{}}
}

func (m *memConfigs) Create(ctx context.Context, cfg *domain.ExerciseConfiguration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.MovementID == cfg.MovementID && existing.Equipment == cfg.Equipment && existing.Modifier == cfg.Modifier {
			return domain.ErrDuplicateConfiguration
		}
	}
	if cfg.ID == "" {
		m.seq++
		cfg.ID = fmt.Sprintf("cfg-%d", m.seq)
	}
	cp := *cfg
	m.byID[cfg.ID] = &cp
	return nil
}

func (m *memConfigs) GetByID(ctx context.Context, id string) (*domain.ExerciseConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrExerciseConfigurationNotFound
	}
	cp := *cfg
	return &cp, nil
}

func (m *memConfigs) ListByMovement(ctx context.Context, movementID string) ([]*domain.ExerciseConfiguration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.ExerciseConfiguration{}
	for _, cfg := range m.byID {
		if cfg.MovementID == movementID {
			cp := *cfg
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memSessions struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*domain.TrainingSession
	updates int
}

func newMemSessions() *memSessions {
	return &memSessions{byID: map[string]*domain.TrainingSession{}}
}

func (m *memSessions) Create(ctx context.Context, session *domain.TrainingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session.ID == "" {
		m.seq++
		session.ID = fmt.Sprintf("ses-%d", m.seq)
	}
	if session.Status == "" {
		session.Status = domain.SessionStatusPlanned
	}
	cp := *session
	m.byID[session.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(ctx context.Context, id string) (*domain.TrainingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) ListCompletedByUser(ctx context.Context, userID string) ([]*domain.TrainingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.TrainingSession{}
	for _, s := range m.byID {
		if s.UserID == userID && s.IsCompleted() {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessions) UpdateStatus(ctx context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	m.updates++
	s.Status = status
	if status == domain.SessionStatusCompleted {
		now := time.Now()
		s.CompletedAt = &now
	}
	return nil
}

type memSetEntries struct {
	mu      sync.Mutex
	seq     int
	entries []*domain.SetEntry
}

func newMemSetEntries() *memSetEntries {
	return &memSetEntries{}
}

func (m *memSetEntries) Create(ctx context.Context, entry *domain.SetEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		m.seq++
		entry.ID = fmt.Sprintf("set-%d", m.seq)
	}
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memSetEntries) GetByID(ctx context.Context, id string) (*domain.SetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrSetEntryNotFound
}

func (m *memSetEntries) ListBySession(ctx context.Context, sessionID string) ([]*domain.SetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.SetEntry{}
	for _, e := range m.entries {
		if e.SessionID == sessionID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSetEntries) Update(ctx context.Context, entry *domain.SetEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == entry.ID {
			cp := *entry
			m.entries[i] = &cp
			return nil
		}
	}
	return domain.ErrSetEntryNotFound
}

// memRecords counts writes so tests can assert that no-op checks touch nothing
type memRecords struct {
	mu      sync.Mutex
	seq     int
	records []*domain.PersonalRecord
	writes  int
	failGet error
}

func newMemRecords() *memRecords {
	return &memRecords{}
}

func (m *memRecords) Create(ctx context.Context, record *domain.PersonalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.IsActive {
		for _, r := range m.records {
			if r.IsActive && r.UserID == record.UserID &&
				r.ExerciseConfigurationID == record.ExerciseConfigurationID && r.Kind == record.Kind {
				return fmt.Errorf("duplicate active record for slot")
			}
		}
	}
	m.seq++
	m.writes++
	record.ID = fmt.Sprintf("pr-%d", m.seq)
	cp := *record
	m.records = append(m.records, &cp)
	return nil
}

func (m *memRecords) GetByID(ctx context.Context, userID, id string) (*domain.PersonalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (m *memRecords) GetActive(ctx context.Context, userID, configID string, kind domain.RecordKind) (*domain.PersonalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	for _, r := range m.records {
		if r.IsActive && r.UserID == userID && r.ExerciseConfigurationID == configID && r.Kind == kind {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRecords) ListActiveBySourceAttempt(ctx context.Context, userID, attemptID string) ([]*domain.PersonalRecord, error) {
	return m.filter(func(r *domain.PersonalRecord) bool {
		return r.IsActive && r.UserID == userID && r.SourceAttemptID == attemptID
	}), nil
}

func (m *memRecords) ListActiveByUser(ctx context.Context, userID string) ([]*domain.PersonalRecord, error) {
	return m.filter(func(r *domain.PersonalRecord) bool {
		return r.IsActive && r.UserID == userID
	}), nil
}

func (m *memRecords) ListHistory(ctx context.Context, userID, configID string, kind domain.RecordKind) ([]*domain.PersonalRecord, error) {
	out := m.filter(func(r *domain.PersonalRecord) bool {
		return r.UserID == userID && r.ExerciseConfigurationID == configID && r.Kind == kind
	})
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *memRecords) SetActive(ctx context.Context, userID, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.UserID == userID {
			m.writes++
			r.IsActive = active
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

func (m *memRecords) filter(keep func(*domain.PersonalRecord) bool) []*domain.PersonalRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.PersonalRecord{}
	for _, r := range m.records {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out
}

// activeCount returns how many active records exist for a slot
func (m *memRecords) activeCount(userID, configID string, kind domain.RecordKind) int {
	return len(m.filter(func(r *domain.PersonalRecord) bool {
		return r.IsActive && r.UserID == userID && r.ExerciseConfigurationID == configID && r.Kind == kind
	}))
}

func (m *memRecords) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memRecords) snapshot() memRecordsState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := memRecordsState{seq: m.seq, writes: m.writes}
	for _, r := range m.records {
		cp := *r
		state.records = append(state.records, &cp)
	}
	return state
}

func (m *memRecords) restore(state memRecordsState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq, m.writes, m.records = state.seq, state.writes, state.records
}

type memRecordsState struct {
	seq     int
	writes  int
	records []*domain.PersonalRecord
}

// retryingTx runs the outermost fn, rolls its record writes back and runs it
// again, like the driver does after a transient transaction error. between
// runs after the rollback, before the retry.
type retryingTx struct {
	records *memRecords
	between func()
	depth   int
	runs    int
}

func (t *retryingTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.depth > 0 {
		return fn(ctx)
	}
	t.depth++
	defer func() { t.depth-- }()

	state := t.records.snapshot()
	t.runs++
	if err := fn(ctx); err != nil {
		return err
	}
	t.records.restore(state)
	if t.between != nil {
		t.between()
	}
	t.runs++
	return fn(ctx)
}

// passthroughTx runs fn directly
type passthroughTx struct{ calls int }

func (t *passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type countingCache struct {
	invalidations int
}

func (c *countingCache) GetRecordSummaries(ctx context.Context, userID string, dest interface{}) error {
	return fmt.Errorf("miss")
}

func (c *countingCache) SetRecordSummaries(ctx context.Context, userID string, data interface{}, ttl time.Duration) error {
	return nil
}

func (c *countingCache) GetRecordSummary(ctx context.Context, userID, configID string, dest interface{}) error {
	return fmt.Errorf("miss")
}

func (c *countingCache) SetRecordSummary(ctx context.Context, userID, configID string, data interface{}, ttl time.Duration) error {
	return nil
}

func (c *countingCache) InvalidateRecords(ctx context.Context, userID string) error {
	c.invalidations++
	return nil
}

type countingMetrics struct {
	created  map[string]int
	reverted map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{created: map[string]int{}, reverted: map[string]int{}}
}

func (m *countingMetrics) RecordCreated(ctx context.Context, kind string)  { m.created[kind]++ }
func (m *countingMetrics) RecordReverted(ctx context.Context, kind string) { m.reverted[kind]++ }

// fixture wires the services against in-memory storage
type fixture struct {
	movements *memMovements
	configs   *memConfigs
	sessions  *memSessions
	entries   *memSetEntries
	records   *memRecords
	tx        *passthroughTx
	cache     *countingCache
	metrics   *countingMetrics
	prs       *PersonalRecordService
	training  *TrainingService
	clock     time.Time
}

func newFixture() *fixture {
	f := &fixture{
		movements: newMemMovements(),
		configs:   newMemConfigs(),
		sessions:  newMemSessions(),
		entries:   newMemSetEntries(),
		records:   newMemRecords(),
		tx:        &passthroughTx{},
		cache:     &countingCache{},
		metrics:   newCountingMetrics(),
		clock:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.prs = NewPersonalRecordService(f.records, f.configs, f.movements, f.sessions, f.entries, f.tx, f.cache, f.metrics, nil)
	// advance one minute per record so ordering by created_at is deterministic
	f.prs.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	f.training = NewTrainingService(f.movements, f.configs, f.sessions, f.entries, f.prs, nil)
	return f
}

// configuration creates a movement and configuration owned by userID
func (f *fixture) configuration(userID, name, equipment string) string {
	mv := &domain.Movement{UserID: userID, Name: name}
	_ = f.movements.Create(context.Background(), mv)
	cfg := &domain.ExerciseConfiguration{MovementID: mv.ID, Equipment: equipment}
	_ = f.configs.Create(context.Background(), cfg)
	return cfg.ID
}

func (f *fixture) session(userID, status string) string {
	s := &domain.TrainingSession{UserID: userID, Name: "Upper A", Status: status}
	_ = f.sessions.Create(context.Background(), s)
	return s.ID
}

// lift stores a lift entry directly and returns its attempt
func (f *fixture) lift(userID, sessionID, configID string, weight float64, reps int) domain.Attempt {
	e := &domain.SetEntry{
		SessionID:               sessionID,
		UserID:                  userID,
		Type:                    domain.EntryTypeLift,
		ExerciseConfigurationID: configID,
		Weight:                  weight,
		Unit:                    domain.UnitKilograms,
		Reps:                    reps,
	}
	_ = f.entries.Create(context.Background(), e)
	return e.Attempt()
}
