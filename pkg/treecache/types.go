package treecache

import (
	"github.com/skillforge/treecache/internal/types"
)

type (
	// Mode selects how values are serialized for the distributed tier.
	Mode = types.Mode
	// Entry is a cached payload: either a native Go value or
	// codec-encoded bytes.
	Entry = types.Entry
	// CacheOptions contains options for cache operations.
	CacheOptions = types.CacheOptions
	// CacheStats is the snapshot produced by a CacheMonitor.
	CacheStats = types.CacheStats
	// MemoryTierStats describes the in-process tier.
	MemoryTierStats = types.MemoryTierStats
	// DistributedTierStats describes the distributed backend.
	DistributedTierStats = types.DistributedTierStats
	// ConfigSummary echoes the active configuration.
	ConfigSummary = types.ConfigSummary
	// CacheMonitor produces read-only stats snapshots.
	CacheMonitor = types.CacheMonitor
	// MemoryCacheStats contains counters from the memory tier.
	MemoryCacheStats = types.MemoryCacheStats
	// MetricsSnapshot contains a point-in-time view of operation counters.
	MetricsSnapshot = types.MetricsSnapshot
	// Codec converts values to and from bytes.
	Codec = types.Codec
	// DistributedCache is the interface a distributed backend implements.
	DistributedCache = types.DistributedCache
	// MetricsRecorder provides operations for recording cache metrics.
	MetricsRecorder = types.MetricsRecorder
	// Logger provides logging operations.
	Logger = types.Logger
)

const (
	// ModeStructured serializes values as strict JSON.
	ModeStructured = types.ModeStructured
	// ModeFull serializes values as MessagePack.
	ModeFull = types.ModeFull
)

// ParseMode parses a serialization mode name.
func ParseMode(s string) (Mode, error) {
	return types.ParseMode(s)
}

// DefaultOptions returns a default CacheOptions configuration.
func DefaultOptions() *CacheOptions {
	return types.DefaultOptions()
}
