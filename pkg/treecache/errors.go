package treecache

import (
	"github.com/skillforge/treecache/internal/types"
)

type (
	// CacheError represents a cache operation error.
	CacheError = types.CacheError
	// SerializationError wraps a codec failure with the mode in use.
	SerializationError = types.SerializationError
	// ConfigError describes an invalid configuration value.
	ConfigError = types.ConfigError
)

var (
	// ErrCacheMiss indicates that a requested key was not found in the cache.
	ErrCacheMiss = types.ErrCacheMiss
	// ErrBackendUnavailable indicates that the distributed backend is not reachable.
	ErrBackendUnavailable = types.ErrBackendUnavailable
	// ErrCircuitOpen indicates that the circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrClosed indicates that the cache manager has been closed.
	ErrClosed = types.ErrClosed
	// ErrBulkheadFull indicates that the bulkhead is at capacity.
	ErrBulkheadFull = types.ErrBulkheadFull
	// ErrBulkheadTimeout indicates that the bulkhead acquisition timed out.
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
	// ErrNotSerializable indicates that a value cannot be represented in
	// the active serialization mode.
	ErrNotSerializable = types.ErrNotSerializable
	// ErrInvalidKey indicates that a cache key is invalid.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrInvalidConfig indicates that the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig
	// ErrShutdownTimeout indicates that shutdown exceeded its deadline.
	ErrShutdownTimeout = types.ErrShutdownTimeout
)

// NewCacheError creates a new cache error with operation, key, tier, and underlying error.
func NewCacheError(op, key, tier string, err error) *CacheError {
	return types.NewCacheError(op, key, tier, err)
}

// IsCacheMiss returns true if the error is a cache miss.
func IsCacheMiss(err error) bool {
	return types.IsCacheMiss(err)
}

// IsBackendUnavailable returns true if the error indicates the
// distributed backend is unavailable.
func IsBackendUnavailable(err error) bool {
	return types.IsBackendUnavailable(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsSerializationError returns true if the error came from the codec.
func IsSerializationError(err error) bool {
	return types.IsSerializationError(err)
}

// IsConfigError returns true if the error describes invalid configuration.
func IsConfigError(err error) bool {
	return types.IsConfigError(err)
}
