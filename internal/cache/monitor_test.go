package cache

import (
	"context"
	"testing"

	"github.com/skillforge/treecache/internal/config"
	"github.com/skillforge/treecache/internal/types"
)

func TestMonitorStats(t *testing.T) {
	ctx := context.Background()

	t.Run("memory-only snapshot", func(t *testing.T) {
		m := newTestManager(t)

		_ = m.Set(ctx, "a", 1)
		_ = m.Set(ctx, "b", 2)
		var out int
		_ = m.Get(ctx, "a", &out)
		_ = m.Get(ctx, "missing", &out)

		stats := m.Monitor().Stats(ctx)
		if stats == nil {
			t.Fatal("Stats returned nil")
		}

		if !stats.Memory.Available {
			t.Error("memory tier should be available")
		}
		if stats.Memory.Engine != config.EngineNative {
			t.Errorf("engine = %q, want %q", stats.Memory.Engine, config.EngineNative)
		}
		if stats.Memory.EntryCount != 2 {
			t.Errorf("entry count = %d, want 2", stats.Memory.EntryCount)
		}
		if stats.Memory.Hits != 1 || stats.Memory.Misses != 1 {
			t.Errorf("hits/misses = %d/%d, want 1/1", stats.Memory.Hits, stats.Memory.Misses)
		}
		if len(stats.Memory.SampledKeys) != 2 {
			t.Errorf("sampled keys = %v, want 2 entries", stats.Memory.SampledKeys)
		}

		if stats.Distributed.Enabled {
			t.Error("distributed tier should be disabled")
		}
		if stats.Distributed.Available {
			t.Error("distributed tier should not be available")
		}
		if stats.Distributed.KeyCount != -1 {
			t.Errorf("key count = %d, want -1 when unavailable", stats.Distributed.KeyCount)
		}
	})

	t.Run("snapshot with backend", func(t *testing.T) {
		backend := newFakeBackend()
		m := newTestManagerWithBackend(t, backend)

		_ = m.Set(ctx, "a", 1)
		_ = m.Set(ctx, "b", 2)

		stats := m.Monitor().Stats(ctx)

		if !stats.Distributed.Enabled {
			t.Error("distributed tier should be enabled")
		}
		if !stats.Distributed.Available {
			t.Error("distributed tier should be available")
		}
		if stats.Distributed.KeyCount != 2 {
			t.Errorf("key count = %d, want 2", stats.Distributed.KeyCount)
		}
	})

	t.Run("failing backend reads as unavailable", func(t *testing.T) {
		backend := newFakeBackend()
		backend.failing.Store(true)
		m := newTestManagerWithBackend(t, backend)

		stats := m.Monitor().Stats(ctx)

		if !stats.Distributed.Enabled {
			t.Error("distributed tier should still be enabled")
		}
		if stats.Distributed.Available {
			t.Error("distributed tier should not be available")
		}
		if stats.Distributed.KeyCount != -1 {
			t.Errorf("key count = %d, want -1 when ping fails", stats.Distributed.KeyCount)
		}
	})

	t.Run("config summary", func(t *testing.T) {
		cfg := testConfig()
		cfg.Namespace = "game:"
		cfg.Serialization.Mode = types.ModeFull.String()

		m, err := NewManager(cfg, nil)
		if err != nil {
			t.Fatalf("NewManager failed: %v", err)
		}
		defer m.Close()

		stats := m.Monitor().Stats(ctx)

		if stats.Config.SerializationMode != types.ModeFull.String() {
			t.Errorf("serialization mode = %q, want %q", stats.Config.SerializationMode, types.ModeFull)
		}
		if stats.Config.KeyNamespace != "game:" {
			t.Errorf("namespace = %q, want game:", stats.Config.KeyNamespace)
		}
		if stats.Config.DefaultTTL != cfg.Defaults.TTL {
			t.Errorf("default TTL = %v, want %v", stats.Config.DefaultTTL, cfg.Defaults.TTL)
		}
		if stats.Config.MemoryEngine != config.EngineNative {
			t.Errorf("memory engine = %q, want %q", stats.Config.MemoryEngine, config.EngineNative)
		}
		if stats.Config.DistributedEnabled {
			t.Error("distributed should be reported disabled")
		}
	})
}
