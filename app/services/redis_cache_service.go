package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/calles-genero/app/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "calles_genero:"

// RedisCacheService stores summaries as JSON in Redis.
type RedisCacheService struct {
	client *redis.Client
	logger *zap.Logger
	prefix string
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisCacheService connects to redisURL and pings it.
func NewRedisCacheService(redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisCacheService, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unreachable: %w", err)
	}

	return newRedisCacheService(client, ttl, logger), nil
}

func newRedisCacheService(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCacheService {
	return &RedisCacheService{
		client: client,
		logger: logger,
		prefix: redisKeyPrefix,
		ttl:    ttl,
	}
}

func (rcs *RedisCacheService) Get(ctx context.Context, key string) (*models.StorySummary, bool, error) {
	cacheKey := rcs.prefix + key

	val, err := rcs.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		rcs.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		rcs.logger.Error("Redis get failed", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, err
	}

	var summary models.StorySummary
	if err := json.Unmarshal(val, &summary); err != nil {
		rcs.logger.Error("Cached summary is corrupt", zap.Error(err), zap.String("key", cacheKey))
		return nil, false, err
	}

	rcs.hits.Add(1)
	rcs.logger.Debug("Redis cache hit", zap.String("key", key))
	return &summary, true, nil
}

func (rcs *RedisCacheService) Set(ctx context.Context, key string, summary *models.StorySummary) error {
	cacheKey := rcs.prefix + key

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if err := rcs.client.Set(ctx, cacheKey, data, rcs.ttl).Err(); err != nil {
		rcs.logger.Error("Redis set failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}

	rcs.logger.Debug("Stored summary in Redis", zap.String("key", key))
	return nil
}

func (rcs *RedisCacheService) Delete(ctx context.Context, key string) error {
	cacheKey := rcs.prefix + key

	if err := rcs.client.Del(ctx, cacheKey).Err(); err != nil {
		rcs.logger.Error("Redis delete failed", zap.Error(err), zap.String("key", cacheKey))
		return err
	}
	return nil
}

func (rcs *RedisCacheService) Clear(ctx context.Context) error {
	deleted, err := rcs.deleteMatching(ctx, rcs.prefix+"*", func(string) bool { return true })
	if err != nil {
		return err
	}
	rcs.hits.Store(0)
	rcs.misses.Store(0)

	rcs.logger.Info("Cleared Redis cache", zap.Int("keys_deleted", deleted))
	return nil
}

// InvalidateByDatasetVersion deletes summary keys of other dataset versions.
func (rcs *RedisCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	keep := rcs.prefix + SummaryKey(datasetVersion, "")
	deleted, err := rcs.deleteMatching(ctx, rcs.prefix+"summary:*", func(k string) bool {
		return len(k) < len(keep) || k[:len(keep)] != keep
	})
	if err != nil {
		return err
	}

	rcs.logger.Info("Invalidated Redis summaries",
		zap.String("dataset_version", datasetVersion),
		zap.Int("keys_deleted", deleted))
	return nil
}

func (rcs *RedisCacheService) deleteMatching(ctx context.Context, pattern string, match func(string) bool) (int, error) {
	var doomed []string
	iter := rcs.client.Scan(ctx, 0, pattern, 500).Iterator()
	for iter.Next(ctx) {
		if match(iter.Val()) {
			doomed = append(doomed, iter.Val())
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", pattern, err)
	}

	if len(doomed) > 0 {
		if err := rcs.client.Del(ctx, doomed...).Err(); err != nil {
			return 0, fmt.Errorf("delete keys: %w", err)
		}
	}
	return len(doomed), nil
}

func (rcs *RedisCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	var totalItems int64
	iter := rcs.client.Scan(ctx, 0, rcs.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		totalItems++
	}
	if err := iter.Err(); err != nil {
		rcs.logger.Warn("Could not count Redis keys", zap.Error(err))
	}

	hits, misses := rcs.hits.Load(), rcs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: totalItems,
	}, nil
}

func (rcs *RedisCacheService) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rcs.client.Exists(ctx, rcs.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (rcs *RedisCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := rcs.client.TTL(ctx, rcs.prefix+key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (rcs *RedisCacheService) Close() error {
	return rcs.client.Close()
}

// SetTTL changes the expiry of later writes.
func (rcs *RedisCacheService) SetTTL(ttl time.Duration) {
	rcs.ttl = ttl
}
