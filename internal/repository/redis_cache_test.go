package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/liftrecords/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisCacheRepository(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestRedisCache_GetSet(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	var dest domain.RecordSummary
	assert.ErrorIs(t, cache.Get(ctx, "missing", &dest), ErrCacheMiss)

	summary := &domain.RecordSummary{
		ExerciseConfigurationID: "cfg-1",
		Strength:                &domain.PersonalRecord{ID: "pr-1", Kind: domain.RecordKindStrength, Weight: 100, Unit: domain.UnitKilograms, Reps: 5, IsActive: true},
	}
	require.NoError(t, cache.SetRecordSummary(ctx, "u1", "cfg-1", summary, time.Minute))
	require.NoError(t, cache.GetRecordSummary(ctx, "u1", "cfg-1", &dest))
	assert.Equal(t, "pr-1", dest.Strength.ID)
	assert.Nil(t, dest.Volume)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, cache.GetRecordSummary(ctx, "u1", "cfg-1", &dest), ErrCacheMiss)
}

func TestRedisCache_InvalidateRecordsIsPerUser(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for _, user := range []string{"u1", "u10"} {
		require.NoError(t, cache.SetRecordSummaries(ctx, user, []string{"x"}, time.Minute))
		require.NoError(t, cache.SetRecordSummary(ctx, user, "cfg-1", map[string]int{"a": 1}, time.Minute))
		require.NoError(t, cache.SetRecordSummary(ctx, user, "cfg-2", map[string]int{"a": 2}, time.Minute))
	}

	require.NoError(t, cache.InvalidateRecords(ctx, "u1"))

	assert.False(t, mr.Exists("records:summaries:u1"))
	assert.False(t, mr.Exists("records:summary:u1:cfg-1"))
	assert.False(t, mr.Exists("records:summary:u1:cfg-2"))

	assert.True(t, mr.Exists("records:summaries:u10"))
	assert.True(t, mr.Exists("records:summary:u10:cfg-1"))

	// nothing cached is fine
	require.NoError(t, cache.InvalidateRecords(ctx, "nobody"))
}

type countingMovementRepo struct {
	domain.MovementRepository
	movement *domain.Movement
	gets     int
}

func (r *countingMovementRepo) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	r.gets++
	if r.movement == nil || r.movement.ID != id {
		return nil, domain.ErrMovementNotFound
	}
	cp := *r.movement
	return &cp, nil
}

func TestCachedMovementRepository(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	inner := &countingMovementRepo{movement: &domain.Movement{ID: "m1", UserID: "u1", Name: "Squat"}}
	repo := NewCachedMovementRepository(inner, cache)

	for i := 0; i < 3; i++ {
		m, err := repo.GetByID(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "u1", m.UserID)
	}
	assert.Equal(t, 1, inner.gets)

	// misses are not cached
	_, err := repo.GetByID(ctx, "m2")
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)
	_, err = repo.GetByID(ctx, "m2")
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)
	assert.Equal(t, 3, inner.gets)
}

func TestRedisCache_DeleteByPatternWalksEveryPage(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3*scanBatchSize+7; i++ {
		require.NoError(t, cache.SetRecordSummary(ctx, "u1", fmt.Sprintf("cfg-%d", i), map[string]int{"i": i}, time.Minute))
	}
	require.NoError(t, cache.SetRecordSummary(ctx, "u2", "cfg-0", map[string]int{"i": 0}, time.Minute))

	require.NoError(t, cache.InvalidateRecords(ctx, "u1"))

	assert.Equal(t, []string{"records:summary:u2:cfg-0"}, mr.Keys())
}
