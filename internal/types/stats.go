package types

import "time"

// CacheStats is the snapshot produced by the monitor. It is a
// point-in-time, read-only view; producing it never mutates cache state.
type CacheStats struct {
	Timestamp   time.Time
	Memory      MemoryTierStats
	Distributed DistributedTierStats
	Config      ConfigSummary
}

// MemoryTierStats describes the in-process tier.
type MemoryTierStats struct {
	Available   bool
	Engine      string
	EntryCount  int
	SampledKeys []string
	Hits        int64
	Misses      int64
	Evictions   int64
	HitRatio    float64
}

// DistributedTierStats describes the distributed backend as last observed.
type DistributedTierStats struct {
	Enabled      bool
	Available    bool
	CircuitState string
	// KeyCount is the backend's total key count, or -1 when the backend
	// is unreachable or cannot report it.
	KeyCount int64
}

// ConfigSummary echoes the active configuration for observability.
type ConfigSummary struct {
	DistributedEnabled bool
	DefaultTTL         time.Duration
	SerializationMode  string
	KeyNamespace       string
	MemoryEngine       string
}

// MetricsSnapshot contains a point-in-time view of operation counters
// collected by the metrics tracker.
type MetricsSnapshot struct {
	Timestamp time.Time

	// Hit/miss counters per tier
	MemoryHits        int64
	MemoryMisses      int64
	DistributedHits   int64
	DistributedMisses int64

	// Operation counters
	GetCount    int64
	SetCount    int64
	DeleteCount int64
	ErrorCount  int64

	// Latency metrics (milliseconds)
	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64

	// Memory tier metrics
	MemoryEntries   int64
	MemoryEvictions int64

	// Distributed tier metrics
	BackendConnected    bool
	CircuitBreakerState string
	BulkheadRejected    int64

	TotalBytesWritten int64
}

// MemoryHitRatio calculates the memory tier hit ratio.
func (s *MetricsSnapshot) MemoryHitRatio() float64 {
	total := s.MemoryHits + s.MemoryMisses
	if total == 0 {
		return 0
	}
	return float64(s.MemoryHits) / float64(total)
}

// DistributedHitRatio calculates the distributed tier hit ratio.
func (s *MetricsSnapshot) DistributedHitRatio() float64 {
	total := s.DistributedHits + s.DistributedMisses
	if total == 0 {
		return 0
	}
	return float64(s.DistributedHits) / float64(total)
}

// TotalHitRatio calculates the overall hit ratio across tiers.
func (s *MetricsSnapshot) TotalHitRatio() float64 {
	hits := s.MemoryHits + s.DistributedHits
	total := hits + s.MemoryMisses + s.DistributedMisses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
