package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/skillforge/treecache/internal/config"
	"github.com/skillforge/treecache/internal/types"
)

// envelopeHeaderSize is the size of the expiry header prepended to every
// bounded-engine payload: a big-endian unix-nano deadline, zero meaning
// no expiry.
const envelopeHeaderSize = 8

// BoundedMemoryCache is the optional memory tier backed by BigCache. It
// stores codec-encoded bytes under a hard memory cap, carrying each
// entry's logical TTL in an expiry envelope since BigCache only supports
// a global life window.
//
// Unlike the native engine, this engine rejects values the codec cannot
// encode; the manager then skips the memory write for that value.
type BoundedMemoryCache struct {
	cache  *bigcache.BigCache
	codec  types.Codec
	config config.MemoryConfig
	logger *slog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64

	closed atomic.Bool
}

// NewBoundedMemoryCache creates a new bounded memory cache.
func NewBoundedMemoryCache(cfg config.MemoryConfig, codec types.Codec, logger *slog.Logger) (*BoundedMemoryCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bc := &BoundedMemoryCache{
		codec:  codec,
		config: cfg,
		logger: logger.With("component", "memory-cache"),
	}

	bcConfig := bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         cfg.RetentionWindow,
		CleanWindow:        cfg.CleanupInterval,
		MaxEntriesInWindow: 1000 * 10 * 60, // estimated entries in LifeWindow
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: logger},
		OnRemoveWithReason: func(key string, entry []byte, reason bigcache.RemoveReason) {
			if reason == bigcache.NoSpace || reason == bigcache.Expired {
				bc.evictions.Add(1)
			}
		},
	}

	store, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	bc.cache = store
	return bc, nil
}

// Name returns the cache tier name.
func (c *BoundedMemoryCache) Name() string {
	return config.EngineBounded
}

// IsAvailable returns true if the cache is not closed.
func (c *BoundedMemoryCache) IsAvailable() bool {
	return !c.closed.Load()
}

// Get retrieves an entry, evicting it first if its TTL has elapsed.
func (c *BoundedMemoryCache) Get(ctx context.Context, key string) (types.Entry, error) {
	if c.closed.Load() {
		return types.Entry{}, types.ErrClosed
	}

	data, err := c.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			c.misses.Add(1)
			return types.Entry{}, types.ErrCacheMiss
		}
		return types.Entry{}, types.NewCacheError("Get", key, "memory", err)
	}

	payload, expired := unwrapEnvelope(data, time.Now())
	if expired {
		_ = c.cache.Delete(key)
		c.evictions.Add(1)
		c.misses.Add(1)
		return types.Entry{}, types.ErrCacheMiss
	}

	c.hits.Add(1)
	return types.Entry{Value: payload, Encoded: true}, nil
}

// Set stores an entry. Native values are encoded with the engine's
// codec; values the codec cannot represent are rejected with a
// SerializationError.
func (c *BoundedMemoryCache) Set(ctx context.Context, key string, entry types.Entry, ttl time.Duration) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	payload, err := c.encodePayload(entry)
	if err != nil {
		return err
	}

	var deadline int64
	if ttl > 0 {
		deadline = time.Now().Add(ttl).UnixNano()
	}

	data := make([]byte, envelopeHeaderSize+len(payload))
	binary.BigEndian.PutUint64(data, uint64(deadline))
	copy(data[envelopeHeaderSize:], payload)

	if err := c.cache.Set(key, data); err != nil {
		return types.NewCacheError("Set", key, "memory", err)
	}

	c.sets.Add(1)
	return nil
}

func (c *BoundedMemoryCache) encodePayload(entry types.Entry) ([]byte, error) {
	if entry.Encoded {
		payload, ok := entry.Value.([]byte)
		if !ok {
			return nil, types.NewCacheError("Set", "", "memory", errors.New("encoded entry does not hold bytes"))
		}
		return payload, nil
	}
	return c.codec.Encode(entry.Value)
}

// Delete removes an entry if present; deleting a missing key is a no-op.
func (c *BoundedMemoryCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if err := c.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return types.NewCacheError("Delete", key, "memory", err)
	}

	c.deletes.Add(1)
	return nil
}

// Contains reports whether an unexpired entry exists for key.
func (c *BoundedMemoryCache) Contains(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, types.ErrClosed
	}

	data, err := c.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return false, nil
		}
		return false, err
	}

	_, expired := unwrapEnvelope(data, time.Now())
	return !expired, nil
}

// Clear removes all entries.
func (c *BoundedMemoryCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	return c.cache.Reset()
}

// ClearPrefix removes every entry whose key starts with prefix.
func (c *BoundedMemoryCache) ClearPrefix(ctx context.Context, prefix string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	var keysToDelete []string

	iter := c.cache.Iterator()
	for iter.SetNext() {
		entry, err := iter.Value()
		if err != nil {
			continue
		}
		if strings.HasPrefix(entry.Key(), prefix) {
			keysToDelete = append(keysToDelete, entry.Key())
		}
	}

	for _, key := range keysToDelete {
		_ = c.cache.Delete(key)
	}

	c.logger.Debug("Cleared entries by prefix", "prefix", prefix, "deleted", len(keysToDelete))
	return nil
}

// Keys returns up to limit currently stored keys.
func (c *BoundedMemoryCache) Keys(limit int) []string {
	if c.closed.Load() || limit <= 0 {
		return nil
	}

	keys := make([]string, 0, limit)
	iter := c.cache.Iterator()
	for iter.SetNext() && len(keys) < limit {
		entry, err := iter.Value()
		if err != nil {
			continue
		}
		keys = append(keys, entry.Key())
	}
	return keys
}

// EntryCount returns the number of stored entries.
func (c *BoundedMemoryCache) EntryCount() int {
	return c.cache.Len()
}

// HitRatio returns the cache hit ratio.
func (c *BoundedMemoryCache) HitRatio() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Stats returns memory tier counters.
func (c *BoundedMemoryCache) Stats() types.MemoryCacheStats {
	return types.MemoryCacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Close closes the underlying store and releases resources.
func (c *BoundedMemoryCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.cache.Close()
}

// unwrapEnvelope splits an envelope into its payload and reports whether
// the embedded deadline has passed.
func unwrapEnvelope(data []byte, now time.Time) (payload []byte, expired bool) {
	if len(data) < envelopeHeaderSize {
		return nil, true
	}
	deadline := int64(binary.BigEndian.Uint64(data))
	if deadline != 0 && now.UnixNano() > deadline {
		return nil, true
	}
	return data[envelopeHeaderSize:], false
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug("bigcache: " + fmt.Sprintf(format, args...))
}

var _ types.MemoryLayer = (*BoundedMemoryCache)(nil)
