package types

import (
	"context"
	"time"
)

type CacheInfo interface {
	Name() string
	IsAvailable() bool
}

// MemoryLayer is the in-process tier. Implementations are safe for
// concurrent use and evict expired entries lazily on read.
type MemoryLayer interface {
	CacheInfo

	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Contains(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	ClearPrefix(ctx context.Context, prefix string) error

	Keys(limit int) []string
	EntryCount() int
	HitRatio() float64
	Stats() MemoryCacheStats

	Close() error
}

// DistributedCache is the interface consumed from the optional
// distributed backend. Any call may fail with a backend-unavailable
// condition; the manager, not the implementation, is responsible for
// catching and degrading.
type DistributedCache interface {
	CacheInfo

	Ping(ctx context.Context) error
	Get(ctx context.Context, key string) ([]byte, error)
	SetEx(ctx context.Context, key string, ttl time.Duration, value []byte) error
	Delete(ctx context.Context, key string) error

	// Keys enumerates keys matching a glob pattern. Best-effort: it may
	// be expensive and is only used by prefix invalidation.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// KeyCount reports the backend's total key count when supported.
	KeyCount(ctx context.Context) (int64, error)

	Close() error
}

// Codec converts values to and from bytes. Codecs are stateless and have
// no knowledge of keys or TTLs.
type Codec interface {
	Mode() Mode
	Encode(v any) ([]byte, error)
	Decode(data []byte, dest any) error
}

// CacheMonitor produces read-only stats snapshots. Implementations must
// never mutate cache state and must never fail, even when the
// distributed tier is unreachable.
type CacheMonitor interface {
	Stats(ctx context.Context) *CacheStats
}

type MetricsRecorder interface {
	RecordHit(tier string, key string, latency time.Duration)
	RecordMiss(tier string, key string, latency time.Duration)
	RecordSet(tier string, key string, size int, latency time.Duration)
	RecordDelete(tier string, key string, latency time.Duration)
	RecordError(tier string, operation string, err error)
	RecordCircuitBreakerStateChange(from, to string)
}

// Publisher ships metrics to an external sink such as a StatsD agent.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text string, alertType string, tags ...string)
	PublishStats(stats *PublisherStats)
	Close() error
}

// PublisherStats is the condensed view a publisher pushes on each interval.
type PublisherStats struct {
	MemoryEntries    int64
	MemoryEvictions  int64
	HitRatio         float64
	AverageLatencyMs float64
	ErrorCount       int64
	BackendConnected bool
	CircuitState     string
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
