package dataprocessing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

func snapshotLoader(calls *int32) LoadFunc {
	return func(ctx context.Context) (*Snapshot, error) {
		atomic.AddInt32(calls, 1)
		return &Snapshot{Table: &domain.CreditTable{Source: "test"}}, nil
	}
}

func TestTableCacheGetOrLoad(t *testing.T) {
	cache := NewTableCache()
	var calls int32

	first, hit, err := cache.GetOrLoad(context.Background(), "a", snapshotLoader(&calls))
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := cache.GetOrLoad(context.Background(), "a", snapshotLoader(&calls))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	stats := cache.GetStats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(1), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.InDelta(t, 0.5, stats.HitRatio, 1e-9)
}

func TestTableCacheKeysAreIndependent(t *testing.T) {
	cache := NewTableCache()
	var calls int32

	_, _, err := cache.GetOrLoad(context.Background(), "a", snapshotLoader(&calls))
	require.NoError(t, err)
	_, _, err = cache.GetOrLoad(context.Background(), "b", snapshotLoader(&calls))
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, cache.GetStats().Entries)
}

func TestTableCacheInvalidate(t *testing.T) {
	cache := NewTableCache()
	var calls int32

	first, _, err := cache.GetOrLoad(context.Background(), "a", snapshotLoader(&calls))
	require.NoError(t, err)

	assert.True(t, cache.Invalidate("a"))
	assert.False(t, cache.Invalidate("a"))

	second, hit, err := cache.GetOrLoad(context.Background(), "a", snapshotLoader(&calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTableCacheInvalidateAll(t *testing.T) {
	cache := NewTableCache()
	var calls int32

	for _, key := range []string{"a", "b", "c"} {
		_, _, err := cache.GetOrLoad(context.Background(), key, snapshotLoader(&calls))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, cache.InvalidateAll())
	assert.Equal(t, 0, cache.GetStats().Entries)
}

func TestTableCacheDoesNotCacheErrors(t *testing.T) {
	cache := NewTableCache()
	boom := errors.New("boom")
	var calls int32

	failing := func(ctx context.Context) (*Snapshot, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}

	_, _, err := cache.GetOrLoad(context.Background(), "a", failing)
	assert.ErrorIs(t, err, boom)
	_, _, err = cache.GetOrLoad(context.Background(), "a", failing)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, cache.GetStats().Entries)
}

func TestTableCacheCollapsesConcurrentMisses(t *testing.T) {
	cache := NewTableCache()
	var calls int32
	release := make(chan struct{})

	slow := func(ctx context.Context) (*Snapshot, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return &Snapshot{}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := cache.GetOrLoad(context.Background(), "a", slow)
			assert.NoError(t, err)
		}()
	}

	// Give every goroutine time to join the in-flight load
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTableCacheDropsLoadRacingInvalidate(t *testing.T) {
	cache := NewTableCache()
	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		<-started
		cache.InvalidateAll()
		close(release)
	}()

	_, _, err := cache.GetOrLoad(context.Background(), "a", func(ctx context.Context) (*Snapshot, error) {
		close(started)
		<-release
		return &Snapshot{}, nil
	})
	require.NoError(t, err)

	_, ok := cache.Get("a")
	assert.False(t, ok)
}
