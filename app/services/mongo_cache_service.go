package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/calles-genero/app/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const storyCacheCollection = "story_cache"

// MongoCacheService keeps summaries in MongoDB behind an in-process LRU.
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.StorySummary]
	logger     *zap.Logger

	totalHits atomic.Int64
	totalMiss atomic.Int64
	l1Hits    atomic.Int64
	mongoHits atomic.Int64
}

func NewMongoCacheService(db *mongo.Database, l1Size int, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.StorySummary](l1Size)
	if err != nil {
		return nil, fmt.Errorf("create LRU cache: %w", err)
	}

	collection := db.Collection(storyCacheCollection)

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{bson.E{Key: "dataset_version", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Could not create story_cache indexes", zap.Error(err))
	}

	return &MongoCacheService{
		collection: collection,
		l1Cache:    l1Cache,
		logger:     logger,
	}, nil
}

// Get looks in the LRU first, then MongoDB.
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.StorySummary, bool, error) {
	if summary, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits.Add(1)
		mcs.totalHits.Add(1)
		return summary, true, nil
	}

	fingerprint := generateFingerprint(key)

	var entry models.StorySummaryCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": fingerprint}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			mcs.totalMiss.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query story_cache: %w", err)
	}

	mcs.mongoHits.Add(1)
	mcs.totalHits.Add(1)

	go mcs.updateAccessStats(entry.ID)

	summary := entry.Summary
	mcs.l1Cache.Add(key, &summary)

	mcs.logger.Debug("MongoDB cache hit", zap.String("key", key), zap.String("fingerprint", fingerprint))
	return &summary, true, nil
}

// Set writes through to MongoDB with an upsert.
func (mcs *MongoCacheService) Set(ctx context.Context, key string, summary *models.StorySummary) error {
	mcs.l1Cache.Add(key, summary)

	fingerprint := generateFingerprint(key)
	entry := models.NewStorySummaryCache(key, fingerprint, *summary)

	opts := options.Replace().SetUpsert(true)
	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"fingerprint": fingerprint}, entry, opts); err != nil {
		mcs.logger.Error("MongoDB cache write failed", zap.Error(err), zap.String("fingerprint", fingerprint))
		return fmt.Errorf("write story_cache: %w", err)
	}

	mcs.logger.Debug("Stored summary in MongoDB",
		zap.String("key", key),
		zap.String("municipio", summary.Municipio))
	return nil
}

func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"fingerprint": generateFingerprint(key)}); err != nil {
		return fmt.Errorf("delete from story_cache: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear story_cache: %w", err)
	}

	mcs.totalHits.Store(0)
	mcs.totalMiss.Store(0)
	mcs.l1Hits.Store(0)
	mcs.mongoHits.Store(0)
	return nil
}

func (mcs *MongoCacheService) InvalidateByDatasetVersion(ctx context.Context, datasetVersion string) error {
	mcs.l1Cache.Purge()

	result, err := mcs.collection.DeleteMany(ctx, bson.M{"dataset_version": bson.M{"$ne": datasetVersion}})
	if err != nil {
		return fmt.Errorf("invalidate story_cache: %w", err)
	}

	mcs.logger.Info("Invalidated MongoDB summaries",
		zap.String("dataset_version", datasetVersion),
		zap.Int64("deleted_count", result.DeletedCount))
	return nil
}

func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	count, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count story_cache: %w", err)
	}

	hits, misses := mcs.totalHits.Load(), mcs.totalMiss.Load()
	mcs.logger.Debug("Cache stats",
		zap.Int64("total_hits", hits),
		zap.Int64("total_miss", misses),
		zap.Int64("l1_hits", mcs.l1Hits.Load()),
		zap.Int64("mongo_hits", mcs.mongoHits.Load()),
		zap.Int("l1_size", mcs.l1Cache.Len()),
		zap.Int64("mongo_count", count))

	return &CacheStats{
		HitRate:    hitRate(hits, misses),
		TotalHits:  hits,
		TotalMiss:  misses,
		TotalItems: count,
	}, nil
}

func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}

	count, err := mcs.collection.CountDocuments(ctx, bson.M{"fingerprint": generateFingerprint(key)})
	if err != nil {
		return false, fmt.Errorf("check story_cache: %w", err)
	}
	return count > 0, nil
}

// GetTTL is always 0: MongoDB entries live until invalidated.
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

// Close is a no-op; the client belongs to the caller.
func (mcs *MongoCacheService) Close() error {
	return nil
}

// WarmUp loads the most accessed summaries into the LRU.
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.StorySummaryCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Skipping undecodable cache entry", zap.Error(err))
			continue
		}
		summary := entry.Summary
		mcs.l1Cache.Add(entry.CacheKey, &summary)
		count++
	}

	mcs.logger.Info("Cache warm up done", zap.Int("loaded_items", count), zap.Int("l1_size", mcs.l1Cache.Len()))
	return cursor.Err()
}

func (mcs *MongoCacheService) updateAccessStats(id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		mcs.logger.Warn("Could not update access stats", zap.Error(err))
	}
}

func generateFingerprint(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("sha256:%x", hash)
}
