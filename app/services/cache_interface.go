package services

import (
	"context"
	"fmt"
	"time"

	"github.com/calles-genero/app/models"
)

// CacheStats reports cache effectiveness.
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService stores per-municipality story summaries.
type ICacheService interface {
	// Get returns the summary stored under key.
	Get(ctx context.Context, key string) (*models.StorySummary, bool, error)

	// Set stores summary under key.
	Set(ctx context.Context, key string, summary *models.StorySummary) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	// InvalidateByDatasetVersion drops every entry built from another dataset version.
	InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error

	GetStats(ctx context.Context) (*CacheStats, error)

	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL returns the remaining lifetime of key, 0 when the backend has none.
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	Close() error
}

// SummaryKey builds the cache key of a municipality summary. The dataset
// version is part of the key, so a reload never serves stale summaries.
func SummaryKey(datasetVersion, municipioSlug string) string {
	return fmt.Sprintf("summary:%s:%s", datasetVersion, municipioSlug)
}

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
