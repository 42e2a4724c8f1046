package types

// Option is a functional option for configuring a single cache operation.
type Option func(*CacheOptions)

// ApplyOptions applies functional options to create CacheOptions.
func ApplyOptions(opts ...Option) *CacheOptions {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// ManagerOptions holds construction-time overrides for the cache manager.
type ManagerOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Metrics is the metrics recorder.
	Metrics MetricsRecorder

	// Codec overrides the codec selected by the configured
	// serialization mode.
	Codec Codec

	// Backend injects a distributed backend implementation in place of
	// the Redis adapter built from config. When set, the distributed
	// tier is considered enabled.
	Backend DistributedCache

	// RedisAddress overrides the Redis address from config.
	RedisAddress string

	// RedisPassword overrides the Redis password from config.
	// Uses SecretString to prevent accidental logging of sensitive values.
	RedisPassword SecretString

	// RedisDB overrides the Redis database from config.
	RedisDB int

	// DisableDistributed disables the distributed tier entirely.
	DisableDistributed bool

	// DisableResilience disables the circuit breaker and bulkhead
	// guarding distributed-tier calls.
	DisableResilience bool
}
