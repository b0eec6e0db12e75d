package services

import (
	"context"
	"testing"
	"time"

	"github.com/calles-genero/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryOf(version, slug string) *models.StorySummary {
	return &models.StorySummary{
		Municipio:      slug,
		DatasetVersion: version,
		Stats:          models.Stats{TotalCalles: 10},
		GeneratedAt:    time.Now(),
	}
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "summary:sha256:ab:tigre", SummaryKey("sha256:ab", "tigre"))
}

func TestCacheService_GetSet(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(time.Hour)

	_, found, err := cs.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cs.Set(ctx, "k", summaryOf("v1", "tigre")))
	got, found, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 10, got.Stats.TotalCalles)

	exists, err := cs.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	ttl, err := cs.GetTTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ttl > 59*time.Minute)

	stats, err := cs.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMiss)
	assert.Equal(t, int64(1), stats.TotalItems)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

	require.NoError(t, cs.Delete(ctx, "k"))
	assert.Equal(t, 0, cs.Size())
}

func TestCacheService_Expiry(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(time.Millisecond)

	require.NoError(t, cs.Set(ctx, "k", summaryOf("v1", "tigre")))
	time.Sleep(5 * time.Millisecond)

	_, found, err := cs.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, cs.Size())

	require.NoError(t, cs.Set(ctx, "k2", summaryOf("v1", "tigre")))
	time.Sleep(5 * time.Millisecond)
	cs.CleanupExpired()
	assert.Equal(t, 0, cs.Size())
}

func TestCacheService_NoTTL(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(0)

	require.NoError(t, cs.Set(ctx, "k", summaryOf("v1", "tigre")))
	exists, err := cs.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	ttl, err := cs.GetTTL(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, ttl)
}

func TestCacheService_InvalidateByDatasetVersion(t *testing.T) {
	ctx := context.Background()
	cs := NewCacheService(time.Hour)

	require.NoError(t, cs.Set(ctx, SummaryKey("v1", "tigre"), summaryOf("v1", "tigre")))
	require.NoError(t, cs.Set(ctx, SummaryKey("v2", "tigre"), summaryOf("v2", "tigre")))
	require.NoError(t, cs.Set(ctx, SummaryKey("v2", "san isidro"), summaryOf("v2", "san isidro")))

	require.NoError(t, cs.InvalidateByDatasetVersion(ctx, "v2"))
	assert.Equal(t, 2, cs.Size())

	exists, err := cs.Exists(ctx, SummaryKey("v1", "tigre"))
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cs.Clear(ctx))
	assert.Equal(t, 0, cs.Size())
}

func TestGenerateFingerprint(t *testing.T) {
	a := generateFingerprint(SummaryKey("v1", "tigre"))
	assert.Equal(t, a, generateFingerprint(SummaryKey("v1", "tigre")))
	assert.NotEqual(t, a, generateFingerprint(SummaryKey("v1", "san isidro")))
	assert.Len(t, a, len("sha256:")+64)
}
