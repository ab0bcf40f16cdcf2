package dataprocessing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts/domain"
)

// Snapshot is a built table together with what is known about its load
type Snapshot struct {
	Table *domain.CreditTable
	Info  domain.DatasetInfo
	Stats BuildStats
}

// CacheEntry is a cached snapshot plus bookkeeping
type CacheEntry struct {
	Snapshot *Snapshot
	CachedAt time.Time
	HitCount int
}

// CacheStats reports cache usage
type CacheStats struct {
	Entries   int     `json:"entries"`
	HitCount  int64   `json:"hit_count"`
	MissCount int64   `json:"miss_count"`
	HitRatio  float64 `json:"hit_ratio"`
}

// LoadFunc builds a snapshot for a cache miss
type LoadFunc func(ctx context.Context) (*Snapshot, error)

// TableCache holds built tables keyed by source identity. Entries have no
// expiry; they are dropped only by Invalidate or InvalidateAll. Failed loads
// are never cached.
type TableCache struct {
	entries    map[string]CacheEntry
	mutex      sync.RWMutex
	group      singleflight.Group
	generation uint64
	hitCount   int64
	missCount  int64
}

// NewTableCache creates an empty cache
func NewTableCache() *TableCache {
	return &TableCache{
		entries: make(map[string]CacheEntry),
	}
}

// Get retrieves a snapshot from cache
func (c *TableCache) Get(key string) (*Snapshot, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return nil, false
	}

	entry.HitCount++
	c.entries[key] = entry
	c.hitCount++

	return entry.Snapshot, true
}

// GetOrLoad returns the cached snapshot for key or runs load once, even when
// several callers miss concurrently. The boolean reports a cache hit.
func (c *TableCache) GetOrLoad(ctx context.Context, key string, load LoadFunc) (*Snapshot, bool, error) {
	if snap, ok := c.Get(key); ok {
		return snap, true, nil
	}

	c.mutex.RLock()
	gen := c.generation
	c.mutex.RUnlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		snap, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, snap, gen)
		return snap, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v.(*Snapshot), false, nil
}

// set stores snap unless the cache was invalidated after the load started
func (c *TableCache) set(key string, snap *Snapshot, gen uint64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.generation != gen {
		return
	}

	c.entries[key] = CacheEntry{
		Snapshot: snap,
		CachedAt: time.Now(),
	}
}

// Invalidate removes one source from cache and reports whether it was present
func (c *TableCache) Invalidate(key string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.generation++
	c.group.Forget(key)

	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// InvalidateAll empties the cache and returns the number of dropped entries
func (c *TableCache) InvalidateAll() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.generation++
	n := len(c.entries)
	for key := range c.entries {
		c.group.Forget(key)
	}
	c.entries = make(map[string]CacheEntry)
	return n
}

// GetStats returns cache statistics
func (c *TableCache) GetStats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := CacheStats{
		Entries:   len(c.entries),
		HitCount:  c.hitCount,
		MissCount: c.missCount,
	}
	if total := c.hitCount + c.missCount; total > 0 {
		stats.HitRatio = float64(c.hitCount) / float64(total)
	}
	return stats
}
