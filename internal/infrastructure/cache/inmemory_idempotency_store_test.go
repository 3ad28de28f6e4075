package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("marks a fresh key as processed", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		first, err := store.MarkProcessed(ctx, "op-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, first)

		processed, err := store.IsProcessed(ctx, "op-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("rejects a duplicate key", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "op-2", time.Minute)
		require.NoError(t, err)

		again, err := store.MarkProcessed(ctx, "op-2", time.Minute)
		require.NoError(t, err)
		assert.False(t, again)
	})

	t.Run("expired key behaves as unprocessed", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "op-3", time.Millisecond)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "op-3")
		require.NoError(t, err)
		assert.False(t, processed)

		fresh, err := store.MarkProcessed(ctx, "op-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, fresh)
	})

	t.Run("unknown key is unprocessed", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		processed, err := store.IsProcessed(ctx, "never-seen")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("cleanup removes expired entries", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		defer store.Close()

		_, err := store.MarkProcessed(ctx, "stale", time.Millisecond)
		require.NoError(t, err)
		_, err = store.MarkProcessed(ctx, "live", time.Hour)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		store.cleanup()

		assert.Equal(t, 1, store.Size())
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store := NewInMemoryIdempotencyStore()
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())
	})
}
