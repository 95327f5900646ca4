package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/liftrecords/internal/domain"
)

const (
	movementByIDKeyPrefix      = "movement:id:"
	configurationByIDKeyPrefix = "configuration:id:"
	catalogCacheTTL            = 10 * time.Minute
)

// CachedMovementRepository wraps a MovementRepository with Redis caching.
// Movements are read on every attempt to resolve ownership.
type CachedMovementRepository struct {
	repo  domain.MovementRepository
	cache *RedisCacheRepository
}

// NewCachedMovementRepository creates a new cached movement repository
func NewCachedMovementRepository(repo domain.MovementRepository, cache *RedisCacheRepository) *CachedMovementRepository {
	return &CachedMovementRepository{
		repo:  repo,
		cache: cache,
	}
}

// GetByID retrieves a movement with caching
func (r *CachedMovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	key := movementByIDKeyPrefix + id

	// Try cache first
	var movement domain.Movement
	if err := r.cache.Get(ctx, key, &movement); err == nil {
		return &movement, nil
	}

	// Cache miss - fetch from MongoDB
	result, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Store in cache (ignore cache errors)
	_ = r.cache.Set(ctx, key, result, catalogCacheTTL)

	return result, nil
}

// === Pass-through methods (no caching) ===

func (r *CachedMovementRepository) Create(ctx context.Context, movement *domain.Movement) error {
	return r.repo.Create(ctx, movement)
}

func (r *CachedMovementRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Movement, error) {
	return r.repo.ListByUser(ctx, userID)
}

// CachedExerciseConfigurationRepository wraps an ExerciseConfigurationRepository with Redis caching
type CachedExerciseConfigurationRepository struct {
	repo  domain.ExerciseConfigurationRepository
	cache *RedisCacheRepository
}

// NewCachedExerciseConfigurationRepository creates a new cached configuration repository
func NewCachedExerciseConfigurationRepository(repo domain.ExerciseConfigurationRepository, cache *RedisCacheRepository) *CachedExerciseConfigurationRepository {
	return &CachedExerciseConfigurationRepository{
		repo:  repo,
		cache: cache,
	}
}

// GetByID retrieves an exercise configuration with caching
func (r *CachedExerciseConfigurationRepository) GetByID(ctx context.Context, id string) (*domain.ExerciseConfiguration, error) {
	key := configurationByIDKeyPrefix + id

	var cfg domain.ExerciseConfiguration
	if err := r.cache.Get(ctx, key, &cfg); err == nil {
		return &cfg, nil
	}

	result, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, key, result, catalogCacheTTL)

	return result, nil
}

func (r *CachedExerciseConfigurationRepository) Create(ctx context.Context, cfg *domain.ExerciseConfiguration) error {
	return r.repo.Create(ctx, cfg)
}

func (r *CachedExerciseConfigurationRepository) ListByMovement(ctx context.Context, movementID string) ([]*domain.ExerciseConfiguration, error) {
	return r.repo.ListByMovement(ctx, movementID)
}
