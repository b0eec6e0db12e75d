package services

import (
	"context"
	"fmt"
	"time"

	"github.com/calles-genero/app/models"
	"go.uber.org/zap"
)

// HybridCacheService chains Redis (L1) in front of MongoDB (L2).
type HybridCacheService struct {
	redisCache ICacheService
	mongoCache ICacheService
	logger     *zap.Logger
}

func NewHybridCacheService(redisCache, mongoCache ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		redisCache: redisCache,
		mongoCache: mongoCache,
		logger:     logger,
	}
}

// Get tries Redis, then MongoDB, and backfills Redis on an L2 hit.
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.StorySummary, bool, error) {
	summary, found, err := hcs.redisCache.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Redis cache failed, falling back to MongoDB", zap.Error(err))
	} else if found {
		return summary, true, nil
	}

	summary, found, err = hcs.mongoCache.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := hcs.redisCache.Set(bgCtx, key, summary); err != nil {
			hcs.logger.Warn("MongoDB->Redis sync failed", zap.Error(err), zap.String("key", key))
		}
	}()

	return summary, true, nil
}

func (hcs *HybridCacheService) Set(ctx context.Context, key string, summary *models.StorySummary) error {
	return hcs.both("set", func(c ICacheService) error { return c.Set(ctx, key, summary) })
}

func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	return hcs.both("delete", func(c ICacheService) error { return c.Delete(ctx, key) })
}

func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both("clear", func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return err
	}
	hcs.logger.Info("Cleared hybrid cache (Redis + MongoDB)")
	return nil
}

func (hcs *HybridCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	err := hcs.both("invalidate", func(c ICacheService) error {
		return c.InvalidateByDatasetVersion(ctx, datasetVersion)
	})
	if err != nil {
		return err
	}
	hcs.logger.Info("Invalidated hybrid cache", zap.String("dataset_version", datasetVersion))
	return nil
}

// GetStats sums both levels; one failing level is tolerated.
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	redisStats, redisErr := hcs.redisCache.GetStats(ctx)
	mongoStats, mongoErr := hcs.mongoCache.GetStats(ctx)

	switch {
	case redisErr != nil && mongoErr != nil:
		return nil, fmt.Errorf("redis and mongodb stats failed: %v, %v", redisErr, mongoErr)
	case redisErr != nil:
		return mongoStats, nil
	case mongoErr != nil:
		return redisStats, nil
	}

	hits := redisStats.TotalHits + mongoStats.TotalHits
	misses := redisStats.TotalMiss + mongoStats.TotalMiss
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: redisStats.TotalItems + mongoStats.TotalItems,
	}, nil
}

func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.redisCache.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("Redis exists failed, falling back to MongoDB", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.mongoCache.Exists(ctx, key)
}

// GetTTL reports the Redis expiry.
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.redisCache.GetTTL(ctx, key)
}

func (hcs *HybridCacheService) Close() error {
	return hcs.both("close", func(c ICacheService) error { return c.Close() })
}

// both runs op on each level concurrently and joins the failures.
func (hcs *HybridCacheService) both(op string, fn func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.redisCache, hcs.mongoCache} {
		go func(c ICacheService) { errCh <- fn(c) }(c)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		hcs.logger.Warn("Hybrid cache operation failed", zap.String("op", op), zap.Errors("errors", errs))
		return fmt.Errorf("%s errors: %v", op, errs)
	}
	return nil
}
