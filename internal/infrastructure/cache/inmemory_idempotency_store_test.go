package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	clock := newFakeClock()
	store := newInMemoryIdempotencyStore(time.Hour, clock.Now)
	defer store.Close()

	ctx := context.Background()

	t.Run("claims a new key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "pay-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("rejects a claimed key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "pay-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "pay-2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("allows reclaiming after expiration", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "pay-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		clock.Advance(time.Minute)

		isNew, err = store.MarkProcessed(ctx, "pay-3", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_ExpiryBoundary(t *testing.T) {
	clock := newFakeClock()
	store := newInMemoryIdempotencyStore(time.Hour, clock.Now)
	defer store.Close()

	ctx := context.Background()
	_, err := store.MarkProcessed(ctx, "pay-1", time.Minute)
	require.NoError(t, err)

	clock.Advance(time.Minute - time.Second)
	isNew, err := store.MarkProcessed(ctx, "pay-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, isNew, "claim still held just before expiry")

	clock.Advance(time.Second)
	isNew, err = store.MarkProcessed(ctx, "pay-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, isNew, "claim lapses at expiry")
}

func TestInMemoryIdempotencyStore_Forget(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "pay-1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Forget(ctx, "pay-1"))
	require.NoError(t, store.Forget(ctx, "never-claimed"))

	isNew, err := store.MarkProcessed(ctx, "pay-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "forgotten key can be claimed again")
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	clock := newFakeClock()
	store := newInMemoryIdempotencyStore(time.Hour, clock.Now)
	defer store.Close()

	ctx := context.Background()
	_, _ = store.MarkProcessed(ctx, "short", time.Minute)
	_, _ = store.MarkProcessed(ctx, "long", time.Hour)
	assert.Equal(t, 2, store.Size())

	clock.Advance(5 * time.Minute)
	store.sweep()

	assert.Equal(t, 1, store.Size())
	isNew, err := store.MarkProcessed(ctx, "long", time.Hour)
	require.NoError(t, err)
	assert.False(t, isNew, "unexpired claim survives the sweep")
}

func TestInMemoryIdempotencyStore_Concurrency(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	var claimed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			isNew, err := store.MarkProcessed(ctx, "same-key", time.Hour)
			if err == nil && isNew {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), claimed.Load(), "exactly one caller claims the key")

	for i := 0; i < 20; i++ {
		_, err := store.MarkProcessed(ctx, fmt.Sprintf("key-%d", i), time.Hour)
		require.NoError(t, err)
	}
	assert.Equal(t, 21, store.Size())
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	require.NoError(t, store.Close())
	require.NoError(t, store.Close(), "close is idempotent")
}
