package ratelimit

import (
	"testing"
	"time"

	"github.com/pomclinic/intake/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	resetTime := time.Now().Add(time.Minute)

	t.Run("counts hits inside the window", func(t *testing.T) {
		assert.Equal(t, 1, store.Increment("key", resetTime))
		assert.Equal(t, 2, store.Increment("key", resetTime))

		count, _, exists := store.Get("key")
		assert.True(t, exists)
		assert.Equal(t, 2, count)
	})

	t.Run("an elapsed window reads as absent", func(t *testing.T) {
		store.Increment("stale", time.Now().Add(-time.Second))

		_, _, exists := store.Get("stale")
		assert.False(t, exists)
		assert.Equal(t, 1, store.Increment("stale", resetTime))
	})

	t.Run("reset drops the key", func(t *testing.T) {
		store.Reset("key")
		_, _, exists := store.Get("key")
		assert.False(t, exists)
	})
}

func TestGormStore(t *testing.T) {
	db := testutils.SetupTestDB(t, &RateLimit{})
	store := NewGormStore(db)
	resetTime := time.Now().Add(time.Minute)

	t.Run("counts hits in the rate_limits row", func(t *testing.T) {
		assert.Equal(t, 1, store.Increment("key", resetTime))
		assert.Equal(t, 2, store.Increment("key", resetTime))

		var row RateLimit
		require.NoError(t, db.Where("key = ?", "key").First(&row).Error)
		assert.Equal(t, 2, row.Hits)
	})

	t.Run("window rollover restarts the count on the same row", func(t *testing.T) {
		store.Increment("rolling", time.Now().Add(-time.Second))
		assert.Equal(t, 1, store.Increment("rolling", resetTime))

		var count int64
		require.NoError(t, db.Model(&RateLimit{}).Where("key = ?", "rolling").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("an elapsed window reads as absent", func(t *testing.T) {
		store.Increment("stale", time.Now().Add(-time.Second))

		_, _, exists := store.Get("stale")
		assert.False(t, exists)
	})

	t.Run("reset deletes the row", func(t *testing.T) {
		store.Reset("key")

		_, _, exists := store.Get("key")
		assert.False(t, exists)

		var count int64
		require.NoError(t, db.Model(&RateLimit{}).Where("key = ?", "key").Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})
}
