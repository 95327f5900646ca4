package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	recordSummariesKeyPrefix = "records:summaries:" // + userID
	recordSummaryKeyPrefix   = "records:summary:"   // + userID + ":" + configID
)

const scanBatchSize = 100

var ErrCacheMiss = errors.New("cache miss")

// RedisCacheRepository is a JSON cache on top of Redis
type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository creates a new Redis cache repository
func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
	}
}

// =============================================================================
// Generic Cache Operations with OpenTelemetry Tracing
// =============================================================================

// Get retrieves a value from cache by key with OTel tracing
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("cache.result", "miss"))
			return ErrCacheMiss
		}
		span.RecordError(err)
		return fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("cache.result", "hit"))
	if err := json.Unmarshal(data, dest); err != nil {
		span.RecordError(err)
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Set stores a value in cache with TTL and OTel tracing
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// Delete removes keys from cache with OTel tracing
func (r *RedisCacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Delete",
		trace.WithAttributes(attribute.Int("cache.key_count", len(keys))),
	)
	defer span.End()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis delete error: %w", err)
	}

	return nil
}

// DeleteByPattern removes keys matching a pattern. Keys are walked with SCAN
// and deleted in batches so Redis is never blocked by a full keyspace walk.
func (r *RedisCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.DeleteByPattern",
		trace.WithAttributes(attribute.String("cache.pattern", pattern)),
	)
	defer span.End()

	matched := 0
	batch := make([]string, 0, scanBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete error: %w", err)
		}
		matched += len(batch)
		batch = batch[:0]
		return nil
	}

	iter := r.client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatchSize {
			if err := flush(); err != nil {
				span.RecordError(err)
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis scan error: %w", err)
	}
	if err := flush(); err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.Int("cache.matched_keys", matched))
	return nil
}

// =============================================================================
// Personal Record Caching Methods
// =============================================================================

// SetRecordSummaries caches the per-configuration record summaries of a user
func (r *RedisCacheRepository) SetRecordSummaries(ctx context.Context, userID string, data interface{}, ttl time.Duration) error {
	return r.Set(ctx, recordSummariesKeyPrefix+userID, data, ttl)
}

// GetRecordSummaries retrieves cached record summaries
func (r *RedisCacheRepository) GetRecordSummaries(ctx context.Context, userID string, dest interface{}) error {
	return r.Get(ctx, recordSummariesKeyPrefix+userID, dest)
}

// SetRecordSummary caches the record summary of one configuration
func (r *RedisCacheRepository) SetRecordSummary(ctx context.Context, userID, configID string, data interface{}, ttl time.Duration) error {
	return r.Set(ctx, recordSummaryKey(userID, configID), data, ttl)
}

// GetRecordSummary retrieves a cached single-configuration summary
func (r *RedisCacheRepository) GetRecordSummary(ctx context.Context, userID, configID string, dest interface{}) error {
	return r.Get(ctx, recordSummaryKey(userID, configID), dest)
}

// InvalidateRecords removes every cached record view of a user
func (r *RedisCacheRepository) InvalidateRecords(ctx context.Context, userID string) error {
	if err := r.Delete(ctx, recordSummariesKeyPrefix+userID); err != nil {
		return err
	}
	return r.DeleteByPattern(ctx, recordSummaryKeyPrefix+userID+":*")
}

func recordSummaryKey(userID, configID string) string {
	return recordSummaryKeyPrefix + userID + ":" + configID
}
