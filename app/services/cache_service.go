package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calles-genero/app/models"
)

// CacheService is the in-process cache used when Redis and MongoDB are off.
type CacheService struct {
	cache      map[string]*models.StorySummary
	timestamps map[string]time.Time
	mu         sync.RWMutex
	ttl        time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewCacheService(ttl time.Duration) *CacheService {
	return &CacheService{
		cache:      make(map[string]*models.StorySummary),
		timestamps: make(map[string]time.Time),
		ttl:        ttl,
	}
}

func (cs *CacheService) Get(ctx context.Context, key string) (*models.StorySummary, bool, error) {
	cs.mu.RLock()
	summary, exists := cs.cache[key]
	expired := exists && cs.isExpired(key)
	cs.mu.RUnlock()

	if !exists || expired {
		if expired {
			cs.deleteExpired(key)
		}
		cs.misses.Add(1)
		return nil, false, nil
	}
	cs.hits.Add(1)
	return summary, true, nil
}

func (cs *CacheService) Set(ctx context.Context, key string, summary *models.StorySummary) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.timestamps[key] = time.Now()
	cs.cache[key] = summary
	return nil
}

func (cs *CacheService) Delete(ctx context.Context, key string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
	delete(cs.timestamps, key)
	return nil
}

func (cs *CacheService) Clear(ctx context.Context) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache = make(map[string]*models.StorySummary)
	cs.timestamps = make(map[string]time.Time)
	cs.hits.Store(0)
	cs.misses.Store(0)
	return nil
}

func (cs *CacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key, summary := range cs.cache {
		if summary.DatasetVersion != datasetVersion {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}
	return nil
}

func (cs *CacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	hits, misses := cs.hits.Load(), cs.misses.Load()
	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: int64(cs.Size()),
	}, nil
}

func (cs *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	_, exists := cs.cache[key]
	return exists && !cs.isExpired(key), nil
}

func (cs *CacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	ts, exists := cs.timestamps[key]
	if !exists || cs.ttl <= 0 {
		return 0, nil
	}
	remaining := cs.ttl - time.Since(ts)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

func (cs *CacheService) Close() error { return nil }

// Size returns the number of stored entries, expired ones included.
func (cs *CacheService) Size() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return len(cs.cache)
}

// CleanupExpired drops expired entries.
func (cs *CacheService) CleanupExpired() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if cs.isExpired(key) {
			delete(cs.cache, key)
			delete(cs.timestamps, key)
		}
	}
}

// isExpired expects cs.mu to be held. A non-positive ttl never expires.
func (cs *CacheService) isExpired(key string) bool {
	if cs.ttl <= 0 {
		return false
	}
	ts, exists := cs.timestamps[key]
	if !exists {
		return true
	}
	return time.Since(ts) > cs.ttl
}

func (cs *CacheService) deleteExpired(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.isExpired(key) {
		delete(cs.cache, key)
		delete(cs.timestamps, key)
	}
}
