package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/calles-genero/app/models"
	"github.com/calles-genero/internal/search"
	"github.com/dustin/go-humanize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const callesCollection = "calles"

// ErrSearchDisabled is returned when Meilisearch is not configured.
var ErrSearchDisabled = errors.New("search disabled")

// AdminService runs maintenance tasks over the loaded dataset.
type AdminService struct {
	story     *StoryService
	db        *mongo.Database          // nil when MongoDB is disabled
	searcher  *search.RegistrySearcher // nil when Meilisearch is disabled
	logger    *zap.Logger
	startTime time.Time
}

// SeedResult reports a seed run.
type SeedResult struct {
	DatasetVersion   string `json:"dataset_version"`
	CallesProcessed  int    `json:"calles_processed"`
	CallesStored     int    `json:"calles_stored"`
	CallesIndexed    int    `json:"calles_indexed"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// SystemStats describes the running service.
type SystemStats struct {
	DatasetVersion string         `json:"dataset_version"`
	LoadedAt       *time.Time     `json:"loaded_at,omitempty"`
	Calles         int            `json:"calles"`
	Segmentos      int            `json:"segmentos"`
	Municipios     int            `json:"municipios"`
	Uptime         string         `json:"uptime"`
	MemoryUsage    map[string]any `json:"memory_usage"`
	Cache          *CacheStats    `json:"cache,omitempty"`
	DatabaseStats  *DatabaseStats `json:"database_stats,omitempty"`
	SearchEnabled  bool           `json:"search_enabled"`
}

// DatabaseStats counts the MongoDB collections.
type DatabaseStats struct {
	Calles     int64 `json:"calles"`
	StoryCache int64 `json:"story_cache"`
}

func NewAdminService(story *StoryService, db *mongo.Database, searcher *search.RegistrySearcher, logger *zap.Logger) *AdminService {
	return &AdminService{
		story:     story,
		db:        db,
		searcher:  searcher,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Reload reloads the dataset from its sources.
func (as *AdminService) Reload(ctx context.Context) (string, error) {
	ds, err := as.story.Reload(ctx)
	if err != nil {
		return "", err
	}
	return ds.Version, nil
}

// Seed copies the loaded registry into MongoDB and Meilisearch, whichever
// are enabled. MongoDB rows of the same dataset version are replaced.
func (as *AdminService) Seed(ctx context.Context, rebuildIndexes bool) (*SeedResult, error) {
	start := time.Now()

	registry, err := as.story.Registry()
	if err != nil {
		return nil, err
	}
	version := as.story.Version()
	result := &SeedResult{DatasetVersion: version, CallesProcessed: len(registry)}

	if as.db != nil && len(registry) > 0 {
		stored, err := as.storeRegistry(ctx, version, registry)
		if err != nil {
			return nil, err
		}
		result.CallesStored = stored
	}

	if as.searcher != nil {
		if rebuildIndexes {
			if err := as.searcher.BuildIndexes(); err != nil {
				as.logger.Warn("Meilisearch index settings failed", zap.Error(err))
			}
		}
		indexed, err := as.searcher.SeedData(registry)
		if err != nil {
			as.logger.Warn("Meilisearch seed failed", zap.Error(err))
		}
		result.CallesIndexed = indexed
	}

	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	as.logger.Info("Registry seed completed",
		zap.String("dataset_version", version),
		zap.Int("calles_processed", result.CallesProcessed),
		zap.Int("calles_stored", result.CallesStored),
		zap.Int("calles_indexed", result.CallesIndexed),
		zap.Duration("processing_time", time.Since(start)))
	return result, nil
}

func (as *AdminService) storeRegistry(ctx context.Context, version string, registry []models.Calle) (int, error) {
	collection := as.db.Collection(callesCollection)

	deleted, err := collection.DeleteMany(ctx, bson.M{"dataset_version": version})
	if err != nil {
		return 0, fmt.Errorf("delete previous calles: %w", err)
	}
	as.logger.Info("Deleted previous calles",
		zap.String("dataset_version", version),
		zap.Int64("deleted_count", deleted.DeletedCount))

	now := time.Now()
	documents := make([]interface{}, len(registry))
	for i, c := range registry {
		documents[i] = registryDocument(c, version, i, now)
	}

	inserted, err := collection.InsertMany(ctx, documents)
	if err != nil {
		return 0, fmt.Errorf("insert calles: %w", err)
	}
	return len(inserted.InsertedIDs), nil
}

func registryDocument(c models.Calle, version string, seq int, now time.Time) bson.M {
	doc := bson.M{}
	for k, v := range c.Extra {
		doc[k] = v
	}
	doc["distrito"] = c.Distrito
	doc["nombre"] = c.Nombre
	doc["genero"] = c.Genero
	doc["categoria"] = c.Categoria
	doc["municipio"] = c.Municipio
	doc["dataset_version"] = version
	doc["seq"] = seq
	doc["created_at"] = now
	return doc
}

// BuildIndexes applies the Meilisearch index settings.
func (as *AdminService) BuildIndexes() error {
	if as.searcher == nil {
		return ErrSearchDisabled
	}
	if err := as.searcher.BuildIndexes(); err != nil {
		return fmt.Errorf("build Meilisearch indexes: %w", err)
	}
	as.logger.Info("Meilisearch indexes built")
	return nil
}

// Search queries the registry index.
func (as *AdminService) Search(query, municipio string, limit int) ([]models.Calle, error) {
	if as.searcher == nil {
		return nil, ErrSearchDisabled
	}
	return as.searcher.Search(query, municipio, limit)
}

// InvalidateCache drops summaries of older datasets, or every summary when
// all is set.
func (as *AdminService) InvalidateCache(ctx context.Context, all bool) error {
	cache := as.story.Cache()
	if all {
		return cache.Clear(ctx)
	}
	version := as.story.Version()
	if version == "" {
		return ErrDatasetNotLoaded
	}
	return cache.InvalidateByDatasetVersion(ctx, version)
}

// GetSystemStats collects dataset, cache, memory and database figures.
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Uptime: time.Since(as.startTime).Round(time.Second).String(),
		MemoryUsage: map[string]any{
			"alloc":       humanize.Bytes(m.Alloc),
			"total_alloc": humanize.Bytes(m.TotalAlloc),
			"sys":         humanize.Bytes(m.Sys),
			"num_gc":      m.NumGC,
		},
		SearchEnabled: as.searcher != nil,
	}

	if ds, err := as.story.current(); err == nil {
		stats.DatasetVersion = ds.Version
		loadedAt := ds.LoadedAt
		stats.LoadedAt = &loadedAt
		stats.Calles = len(ds.Registry)
		stats.Segmentos = len(ds.Geo.Features)
		if municipios, err := as.story.Municipios(); err == nil {
			stats.Municipios = len(municipios)
		}
	}

	cacheStats, err := as.story.Cache().GetStats(ctx)
	if err != nil {
		as.logger.Warn("Cache stats unavailable", zap.Error(err))
	} else {
		stats.Cache = cacheStats
	}

	if as.db != nil {
		dbStats, err := as.getDatabaseStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("database stats: %w", err)
		}
		stats.DatabaseStats = dbStats
	}
	return stats, nil
}

func (as *AdminService) getDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{}

	count, err := as.db.Collection(callesCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats.Calles = count

	count, err = as.db.Collection(storyCacheCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats.StoryCache = count
	return stats, nil
}
