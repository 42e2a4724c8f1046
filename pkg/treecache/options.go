package treecache

import (
	"time"

	"github.com/skillforge/treecache/internal/types"
)

type (
	Option         = types.Option
	ManagerOptions = types.ManagerOptions
)

func ApplyOptions(opts ...Option) *CacheOptions {
	return types.ApplyOptions(opts...)
}

// WithTTL sets the time-to-live for a single operation.
func WithTTL(ttl time.Duration) Option {
	return func(o *CacheOptions) {
		o.TTL = ttl
	}
}

// WithSkipDistributed confines a single operation to the memory tier.
func WithSkipDistributed() Option {
	return func(o *CacheOptions) {
		o.SkipDistributed = true
	}
}

type ManagerOption func(*ManagerOptions)

func WithLogger(logger Logger) ManagerOption {
	return func(o *ManagerOptions) {
		o.Logger = logger
	}
}

func WithMetrics(metrics MetricsRecorder) ManagerOption {
	return func(o *ManagerOptions) {
		o.Metrics = metrics
	}
}

// WithCodec overrides the codec selected by the configured
// serialization mode.
func WithCodec(codec Codec) ManagerOption {
	return func(o *ManagerOptions) {
		o.Codec = codec
	}
}

// WithBackend injects a distributed backend implementation in place of
// the built-in Redis adapter. The distributed tier is considered
// enabled when a backend is injected.
func WithBackend(backend DistributedCache) ManagerOption {
	return func(o *ManagerOptions) {
		o.Backend = backend
	}
}

func WithRedisAddress(addr string) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisAddress = addr
	}
}

func WithRedisPassword(password string) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisPassword = types.NewSecretString(password)
	}
}

func WithRedisDB(db int) ManagerOption {
	return func(o *ManagerOptions) {
		o.RedisDB = db
	}
}

// WithoutDistributed disables the distributed tier entirely.
func WithoutDistributed() ManagerOption {
	return func(o *ManagerOptions) {
		o.DisableDistributed = true
	}
}

// WithoutResilience disables the circuit breaker and bulkhead guarding
// distributed-tier calls.
func WithoutResilience() ManagerOption {
	return func(o *ManagerOptions) {
		o.DisableResilience = true
	}
}
