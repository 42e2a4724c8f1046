package cache

import (
	"context"
	"time"

	"github.com/skillforge/treecache/internal/types"
)

// sampledKeyLimit bounds how many memory-tier keys a snapshot carries.
const sampledKeyLimit = 25

// Monitor is a read-only view over a Manager. It holds no state of its
// own and never mutates the caches it observes; an unreachable backend
// shows up in the snapshot instead of failing it.
type Monitor struct {
	manager *Manager
}

// Stats produces a point-in-time snapshot of both tiers. It never
// returns nil.
func (mo *Monitor) Stats(ctx context.Context) *types.CacheStats {
	m := mo.manager

	stats := &types.CacheStats{
		Timestamp: time.Now(),
	}

	memStats := m.memory.Stats()
	stats.Memory = types.MemoryTierStats{
		Available:   m.memory.IsAvailable(),
		Engine:      m.memory.Name(),
		EntryCount:  m.memory.EntryCount(),
		SampledKeys: m.memory.Keys(sampledKeyLimit),
		Hits:        memStats.Hits,
		Misses:      memStats.Misses,
		Evictions:   memStats.Evictions,
		HitRatio:    m.memory.HitRatio(),
	}

	stats.Distributed = types.DistributedTierStats{
		Enabled:      m.distributed,
		CircuitState: m.policy.CircuitState().String(),
		KeyCount:     -1,
	}

	if m.distributed {
		if err := m.backend.Ping(ctx); err == nil {
			stats.Distributed.Available = true
			if count, err := m.backend.KeyCount(ctx); err == nil {
				stats.Distributed.KeyCount = count
			}
		}
	}

	stats.Config = types.ConfigSummary{
		DistributedEnabled: m.distributed,
		DefaultTTL:         m.config.Defaults.TTL,
		SerializationMode:  m.codec.Mode().String(),
		KeyNamespace:       m.config.Namespace,
		MemoryEngine:       m.memory.Name(),
	}

	return stats
}

var _ types.CacheMonitor = (*Monitor)(nil)
