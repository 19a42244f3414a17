package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"poll-be/internal/domain"
	"poll-be/pkg/redis"

	"go.uber.org/zap"
)

// CacheService wraps the Redis-backed caches of the poll subsystem. A nil
// Redis client turns every method into a no-op, so callers never branch on it.
type CacheService struct {
	redis    *redis.Client
	logger   *zap.Logger
	statsTTL time.Duration
	lockTTL  time.Duration
}

// NewCacheService creates a new cache service. Zero TTLs take the package defaults.
func NewCacheService(redisClient *redis.Client, logger *zap.Logger, statsTTL, lockTTL time.Duration) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if statsTTL <= 0 {
		statsTTL = redis.TTLTypeStats
	}
	if lockTTL <= 0 {
		lockTTL = redis.TTLVoteLock
	}
	return &CacheService{
		redis:    redisClient,
		logger:   logger,
		statsTTL: statsTTL,
		lockTTL:  lockTTL,
	}
}

// Enabled reports whether a Redis client is configured
func (c *CacheService) Enabled() bool {
	return c != nil && c.redis != nil
}

// GetTypeStatsWithCache returns the cached stats for filter, calling
// dbFallback and caching its result on a miss. Cache failures are logged and
// fall through to the store.
func (c *CacheService) GetTypeStatsWithCache(ctx context.Context, filter domain.PollFilter, dbFallback func(ctx context.Context) ([]domain.TypeStat, error)) ([]domain.TypeStat, error) {
	if !c.Enabled() {
		return dbFallback(ctx)
	}

	key := c.redis.KeyBuilder.KeyTypeStats(filter.Hash())
	cached, err := c.redis.Get(ctx, key)
	switch {
	case err == nil:
		var stats []domain.TypeStat
		if jsonErr := json.Unmarshal([]byte(cached), &stats); jsonErr == nil {
			c.logger.Debug("Type stats cache hit")
			return stats, nil
		} else {
			c.logger.Warn("Type stats cache corrupted, falling back to store", zap.Error(jsonErr))
		}
	case errors.Is(err, redis.ErrCacheMiss):
		c.logger.Debug("Type stats cache miss")
	default:
		c.logger.Warn("Type stats cache error, falling back to store", zap.Error(err))
	}

	stats, err := dbFallback(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := c.redis.Set(ctx, key, string(data), c.statsTTL); err != nil {
			c.logger.Warn("Failed to cache type stats", zap.Error(err))
		}
	}
	return stats, nil
}

// InvalidateTypeStats drops every cached stats entry
func (c *CacheService) InvalidateTypeStats(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	n, err := c.redis.InvalidatePattern(ctx, c.redis.KeyBuilder.KeyStatsPattern())
	if err != nil {
		return err
	}
	c.logger.Debug("Type stats cache invalidated", zap.Int("keys", n))
	return nil
}

// AcquireVoteLock marks a ballot of voterID on pollID as in flight. It
// returns false when another submission by the same voter holds the lock.
// Without Redis the lock is always granted.
func (c *CacheService) AcquireVoteLock(ctx context.Context, pollID, voterID string) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}
	return c.redis.SetNX(ctx, c.redis.KeyBuilder.KeyVoteLock(pollID, voterID), "1", c.lockTTL)
}

// ReleaseVoteLock drops the in-flight marker so a rejected ballot can be retried
func (c *CacheService) ReleaseVoteLock(ctx context.Context, pollID, voterID string) error {
	if !c.Enabled() {
		return nil
	}
	return c.redis.Delete(ctx, c.redis.KeyBuilder.KeyVoteLock(pollID, voterID))
}

// HealthCheck pings Redis when configured
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.redis.Health(ctx)
}
