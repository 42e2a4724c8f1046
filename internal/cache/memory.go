package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/skillforge/treecache/internal/config"
	"github.com/skillforge/treecache/internal/types"
)

// NativeMemoryCache is the default memory tier: a sharded map holding
// native Go values with per-entry TTL. Because values are stored as-is,
// this tier can serve values the active codec cannot encode, which the
// manager's degrade rule relies on.
//
// Expired entries are evicted lazily: a read that observes an expired
// entry removes it and reports a miss. There is no background sweep.
type NativeMemoryCache struct {
	shards []*memoryShard
	mask   uint64
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64

	closed atomic.Bool
}

type memoryShard struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	entry     types.Entry
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewNativeMemoryCache creates a new native memory cache. cfg.Shards
// must be a positive power of two (validated by config).
func NewNativeMemoryCache(cfg config.MemoryConfig, logger *slog.Logger) (*NativeMemoryCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	shardCount := cfg.Shards
	if shardCount <= 0 {
		shardCount = 256
	}

	shards := make([]*memoryShard, shardCount)
	for i := range shards {
		shards[i] = &memoryShard{entries: make(map[string]memoryEntry)}
	}

	return &NativeMemoryCache{
		shards: shards,
		mask:   uint64(shardCount - 1),
		logger: logger.With("component", "memory-cache"),
	}, nil
}

func (c *NativeMemoryCache) shardFor(key string) *memoryShard {
	return c.shards[xxhash.Sum64String(key)&c.mask]
}

// Name returns the cache tier name.
func (c *NativeMemoryCache) Name() string {
	return config.EngineNative
}

// IsAvailable returns true if the cache is not closed.
func (c *NativeMemoryCache) IsAvailable() bool {
	return !c.closed.Load()
}

// Get retrieves an entry, evicting it first if its TTL has elapsed.
func (c *NativeMemoryCache) Get(ctx context.Context, key string) (types.Entry, error) {
	if c.closed.Load() {
		return types.Entry{}, types.ErrClosed
	}

	shard := c.shardFor(key)
	now := time.Now()

	shard.mu.RLock()
	ent, ok := shard.entries[key]
	shard.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return types.Entry{}, types.ErrCacheMiss
	}

	if ent.expired(now) {
		shard.mu.Lock()
		// Re-check under the write lock: the entry may have been
		// overwritten since the read.
		if cur, ok := shard.entries[key]; ok && cur.expired(now) {
			delete(shard.entries, key)
			c.evictions.Add(1)
		}
		shard.mu.Unlock()

		c.misses.Add(1)
		return types.Entry{}, types.ErrCacheMiss
	}

	c.hits.Add(1)
	return ent.entry, nil
}

// Set stores an entry, overwriting any prior entry unconditionally.
// A non-positive ttl stores the entry without expiry.
func (c *NativeMemoryCache) Set(ctx context.Context, key string, entry types.Entry, ttl time.Duration) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	shard := c.shardFor(key)
	shard.mu.Lock()
	shard.entries[key] = memoryEntry{entry: entry, expiresAt: expiresAt}
	shard.mu.Unlock()

	c.sets.Add(1)
	return nil
}

// Delete removes an entry if present; deleting a missing key is a no-op.
func (c *NativeMemoryCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	shard := c.shardFor(key)
	shard.mu.Lock()
	delete(shard.entries, key)
	shard.mu.Unlock()

	c.deletes.Add(1)
	return nil
}

// Contains reports whether an unexpired entry exists for key. It does
// not touch hit/miss counters or evict.
func (c *NativeMemoryCache) Contains(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, types.ErrClosed
	}

	shard := c.shardFor(key)
	shard.mu.RLock()
	ent, ok := shard.entries[key]
	shard.mu.RUnlock()

	return ok && !ent.expired(time.Now()), nil
}

// Clear removes all entries.
func (c *NativeMemoryCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.entries = make(map[string]memoryEntry)
		shard.mu.Unlock()
	}
	return nil
}

// ClearPrefix removes every entry whose key starts with prefix.
// Removing nothing is not an error.
func (c *NativeMemoryCache) ClearPrefix(ctx context.Context, prefix string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	var deleted int
	for _, shard := range c.shards {
		shard.mu.Lock()
		for key := range shard.entries {
			if strings.HasPrefix(key, prefix) {
				delete(shard.entries, key)
				deleted++
			}
		}
		shard.mu.Unlock()
	}

	c.logger.Debug("Cleared entries by prefix", "prefix", prefix, "deleted", deleted)
	return nil
}

// Keys returns up to limit currently stored, unexpired keys. The sample
// order is unspecified.
func (c *NativeMemoryCache) Keys(limit int) []string {
	if c.closed.Load() || limit <= 0 {
		return nil
	}

	now := time.Now()
	keys := make([]string, 0, limit)

	for _, shard := range c.shards {
		shard.mu.RLock()
		for key, ent := range shard.entries {
			if ent.expired(now) {
				continue
			}
			keys = append(keys, key)
			if len(keys) >= limit {
				shard.mu.RUnlock()
				return keys
			}
		}
		shard.mu.RUnlock()
	}

	return keys
}

// EntryCount returns the number of stored entries, including expired
// entries not yet lazily evicted.
func (c *NativeMemoryCache) EntryCount() int {
	var n int
	for _, shard := range c.shards {
		shard.mu.RLock()
		n += len(shard.entries)
		shard.mu.RUnlock()
	}
	return n
}

// HitRatio returns the cache hit ratio.
func (c *NativeMemoryCache) HitRatio() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Stats returns memory tier counters.
func (c *NativeMemoryCache) Stats() types.MemoryCacheStats {
	return types.MemoryCacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Close marks the cache closed and drops all entries.
func (c *NativeMemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.entries = nil
		shard.mu.Unlock()
	}
	return nil
}

var _ types.MemoryLayer = (*NativeMemoryCache)(nil)
