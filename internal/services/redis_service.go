package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"poll-service/internal/database"
)

type RedisService struct {
	client *database.RedisClient
}

func NewRedisService(client *database.RedisClient) *RedisService {
	return &RedisService{
		client: client,
	}
}

// =============================================================================
// Tally Cache
// =============================================================================

func tallyCacheKey(pollID uint) string {
	return fmt.Sprintf("poll:%d:tally", pollID)
}

// CacheTally stores the latest computed tally for a poll.
func (r *RedisService) CacheTally(ctx context.Context, pollID uint, tally interface{}, ttl time.Duration) error {
	return r.Set(ctx, tallyCacheKey(pollID), tally, ttl)
}

// GetCachedTally loads a cached tally into dest. Returns redis.Nil when the
// cache is cold.
func (r *RedisService) GetCachedTally(ctx context.Context, pollID uint, dest interface{}) error {
	return r.Get(ctx, tallyCacheKey(pollID), dest)
}

// InvalidateTally drops the cached tally after a vote lands so the next
// read recomputes from storage.
func (r *RedisService) InvalidateTally(ctx context.Context, pollID uint) error {
	err := r.Delete(ctx, tallyCacheKey(pollID))
	if err != nil {
		slog.Error("Failed to invalidate tally cache", "pollID", pollID, "error", err)
		return err
	}
	slog.Debug("Invalidated tally cache", "pollID", pollID)
	return nil
}

// =============================================================================
// PubSub Operations
// =============================================================================

// PollEventsChannel is the Pub/Sub channel carrying live updates for one
// poll.
func PollEventsChannel(pollID uint) string {
	return fmt.Sprintf("poll:%d:events", pollID)
}

// PollEventsPattern matches every poll's event channel for the hub bridge.
const PollEventsPattern = "poll:*:events"

func (r *RedisService) PublishPollEvent(ctx context.Context, pollID uint, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = r.client.GetClient().Publish(ctx, PollEventsChannel(pollID), data).Err()
	if err != nil {
		slog.Error("Failed to publish poll event", "pollID", pollID, "error", err)
		return err
	}

	slog.Debug("Published poll event", "pollID", pollID)
	return nil
}

func (r *RedisService) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	pubsub := r.client.GetClient().Subscribe(ctx, channels...)
	slog.Debug("Subscribed to channels", "channels", channels)
	return pubsub
}

func (r *RedisService) PSubscribe(ctx context.Context, patterns ...string) *redis.PubSub {
	pubsub := r.client.GetClient().PSubscribe(ctx, patterns...)
	slog.Debug("Pattern subscribed to channels", "patterns", patterns)
	return pubsub
}

// =============================================================================
// Rate Limiting
// =============================================================================

func (r *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).Unix()

	pipe := r.client.GetClient().Pipeline()

	// Remove old entries
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))

	// Count current entries
	pipe.ZCard(ctx, key)

	// Add current request
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: now.UnixNano()})

	// Set expiration
	pipe.Expire(ctx, key, window)

	results, err := pipe.Exec(ctx)
	if err != nil {
		return false, err
	}

	// Get count result
	count := results[1].(*redis.IntCmd).Val()

	return count < int64(limit), nil
}

// =============================================================================
// Migration State Management
// =============================================================================

func (r *RedisService) SetMigrationState(ctx context.Context, version string, status string) error {
	return r.client.GetClient().HSet(ctx, "db:migration:status", map[string]interface{}{
		"version":    version,
		"status":     status,
		"updated_at": time.Now().Unix(),
	}).Err()
}

func (r *RedisService) GetMigrationState(ctx context.Context) (map[string]string, error) {
	return r.client.GetClient().HGetAll(ctx, "db:migration:status").Result()
}

// =============================================================================
// Cache Operations
// =============================================================================

func (r *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return r.client.GetClient().Set(ctx, key, data, expiration).Err()
}

func (r *RedisService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.GetClient().Get(ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisService) Delete(ctx context.Context, keys ...string) error {
	return r.client.GetClient().Del(ctx, keys...).Err()
}
