package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StorySummary is the cached per-municipality result of an annotation run.
type StorySummary struct {
	Municipio      string      `bson:"municipio" json:"municipio"`             // folded municipality slug
	DatasetVersion string      `bson:"dataset_version" json:"dataset_version"` // fingerprint of the loaded registry + geometry
	Stats          Stats       `bson:"stats" json:"stats"`
	Report         MatchReport `bson:"report" json:"report"`
	GeneratedAt    time.Time   `bson:"generated_at" json:"generated_at"`
}

// StorySummaryCache is the MongoDB document wrapping a StorySummary.
type StorySummaryCache struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint    string             `bson:"fingerprint" json:"fingerprint"` // sha256 of the cache key
	CacheKey       string             `bson:"cache_key" json:"cache_key"`
	Summary        StorySummary       `bson:"summary" json:"summary"`
	DatasetVersion string             `bson:"dataset_version" json:"dataset_version"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed   time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount    int                `bson:"access_count" json:"access_count"`
}

// NewStorySummaryCache wraps summary for persistence under key.
func NewStorySummaryCache(key, fingerprint string, summary StorySummary) *StorySummaryCache {
	now := time.Now()
	return &StorySummaryCache{
		Fingerprint:    fingerprint,
		CacheKey:       key,
		Summary:        summary,
		DatasetVersion: summary.DatasetVersion,
		CreatedAt:      now,
		LastAccessed:   now,
		AccessCount:    1,
	}
}
