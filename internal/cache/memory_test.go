package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/skillforge/treecache/internal/config"
	"github.com/skillforge/treecache/internal/types"
)

func newTestMemoryCache(t *testing.T) *NativeMemoryCache {
	t.Helper()
	c, err := NewNativeMemoryCache(config.MemoryConfig{Engine: config.EngineNative, Shards: 16}, nil)
	if err != nil {
		t.Fatalf("NewNativeMemoryCache failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNativeMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and retrieves native values", func(t *testing.T) {
		c := newTestMemoryCache(t)

		type widget struct{ N int }
		in := widget{N: 42}

		if err := c.Set(ctx, "w1", types.Entry{Value: in}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		entry, err := c.Get(ctx, "w1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if entry.Encoded {
			t.Error("entry should not be marked encoded")
		}
		got, ok := entry.Value.(widget)
		if !ok || got.N != 42 {
			t.Errorf("entry.Value = %v, want widget{42}", entry.Value)
		}
	})

	t.Run("stores values no codec could encode", func(t *testing.T) {
		c := newTestMemoryCache(t)

		ch := make(chan int)
		if err := c.Set(ctx, "ch", types.Entry{Value: ch}, time.Minute); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		entry, err := c.Get(ctx, "ch")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if entry.Value.(chan int) != ch {
			t.Error("expected the same channel back")
		}
	})

	t.Run("misses on unknown key", func(t *testing.T) {
		c := newTestMemoryCache(t)

		_, err := c.Get(ctx, "missing")
		if !types.IsCacheMiss(err) {
			t.Errorf("error = %v, want cache miss", err)
		}
	})

	t.Run("overwrites existing entries", func(t *testing.T) {
		c := newTestMemoryCache(t)

		_ = c.Set(ctx, "k", types.Entry{Value: "one"}, time.Minute)
		_ = c.Set(ctx, "k", types.Entry{Value: "two"}, time.Minute)

		entry, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if entry.Value != "two" {
			t.Errorf("entry.Value = %v, want two", entry.Value)
		}
	})
}

func TestNativeMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()

	t.Run("expired entries are evicted on read", func(t *testing.T) {
		c := newTestMemoryCache(t)

		_ = c.Set(ctx, "short", types.Entry{Value: 1}, 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)

		_, err := c.Get(ctx, "short")
		if !types.IsCacheMiss(err) {
			t.Fatalf("error = %v, want cache miss after expiry", err)
		}

		stats := c.Stats()
		if stats.Evictions != 1 {
			t.Errorf("Evictions = %d, want 1", stats.Evictions)
		}
	})

	t.Run("zero ttl means no expiry", func(t *testing.T) {
		c := newTestMemoryCache(t)

		_ = c.Set(ctx, "forever", types.Entry{Value: 1}, 0)
		time.Sleep(20 * time.Millisecond)

		if _, err := c.Get(ctx, "forever"); err != nil {
			t.Errorf("Get failed: %v", err)
		}
	})

	t.Run("expired entry does not count toward entry count after read", func(t *testing.T) {
		c := newTestMemoryCache(t)

		_ = c.Set(ctx, "short", types.Entry{Value: 1}, 5*time.Millisecond)
		time.Sleep(10 * time.Millisecond)
		_, _ = c.Get(ctx, "short")

		if n := c.EntryCount(); n != 0 {
			t.Errorf("EntryCount() = %d, want 0", n)
		}
	})
}

func TestNativeMemoryCacheDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	_ = c.Set(ctx, "k", types.Entry{Value: 1}, time.Minute)

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !types.IsCacheMiss(err) {
		t.Errorf("error = %v, want cache miss after delete", err)
	}

	// Deleting a missing key is a no-op
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of missing key failed: %v", err)
	}
}

func TestNativeMemoryCacheContains(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	_ = c.Set(ctx, "k", types.Entry{Value: 1}, time.Minute)

	hitsBefore := c.Stats().Hits

	exists, err := c.Contains(ctx, "k")
	if err != nil || !exists {
		t.Errorf("Contains(k) = %v, %v, want true", exists, err)
	}

	exists, err = c.Contains(ctx, "missing")
	if err != nil || exists {
		t.Errorf("Contains(missing) = %v, %v, want false", exists, err)
	}

	// Contains must not move hit/miss counters
	if c.Stats().Hits != hitsBefore {
		t.Error("Contains should not count as a hit")
	}
}

func TestNativeMemoryCacheClear(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	for i := 0; i < 10; i++ {
		_ = c.Set(ctx, fmt.Sprintf("k%d", i), types.Entry{Value: i}, time.Minute)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if n := c.EntryCount(); n != 0 {
		t.Errorf("EntryCount() = %d, want 0 after Clear", n)
	}
}

func TestNativeMemoryCacheClearPrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	_ = c.Set(ctx, "tree:combat:slash", types.Entry{Value: 1}, time.Minute)
	_ = c.Set(ctx, "tree:combat:parry", types.Entry{Value: 2}, time.Minute)
	_ = c.Set(ctx, "tree:magic:spark", types.Entry{Value: 3}, time.Minute)

	if err := c.ClearPrefix(ctx, "tree:combat:"); err != nil {
		t.Fatalf("ClearPrefix failed: %v", err)
	}

	if _, err := c.Get(ctx, "tree:combat:slash"); !types.IsCacheMiss(err) {
		t.Error("tree:combat:slash should be gone")
	}
	if _, err := c.Get(ctx, "tree:combat:parry"); !types.IsCacheMiss(err) {
		t.Error("tree:combat:parry should be gone")
	}
	if _, err := c.Get(ctx, "tree:magic:spark"); err != nil {
		t.Errorf("tree:magic:spark should survive, got %v", err)
	}
}

func TestNativeMemoryCacheKeys(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	for i := 0; i < 20; i++ {
		_ = c.Set(ctx, fmt.Sprintf("k%d", i), types.Entry{Value: i}, time.Minute)
	}

	keys := c.Keys(5)
	if len(keys) != 5 {
		t.Errorf("len(Keys(5)) = %d, want 5", len(keys))
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, "k") {
			t.Errorf("unexpected key %q", k)
		}
	}

	if got := c.Keys(0); got != nil {
		t.Errorf("Keys(0) = %v, want nil", got)
	}
}

func TestNativeMemoryCacheStats(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	_ = c.Set(ctx, "k", types.Entry{Value: 1}, time.Minute)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}

	ratio := c.HitRatio()
	if ratio < 0.66 || ratio > 0.67 {
		t.Errorf("HitRatio() = %v, want ~0.667", ratio)
	}
}

func TestNativeMemoryCacheConcurrency(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%50)
				_ = c.Set(ctx, key, types.Entry{Value: i}, time.Minute)
				_, _ = c.Get(ctx, key)
				if i%10 == 0 {
					_ = c.Delete(ctx, key)
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestNativeMemoryCacheClosed(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t)
	_ = c.Close()

	if _, err := c.Get(ctx, "k"); err != types.ErrClosed {
		t.Errorf("Get error = %v, want ErrClosed", err)
	}
	if err := c.Set(ctx, "k", types.Entry{Value: 1}, 0); err != types.ErrClosed {
		t.Errorf("Set error = %v, want ErrClosed", err)
	}
	if c.IsAvailable() {
		t.Error("IsAvailable() = true after Close")
	}
}
