package types

import (
	"errors"
	"fmt"
)

var (
	ErrCacheMiss          = errors.New("treecache: key not found")
	ErrBackendUnavailable = errors.New("treecache: distributed backend unavailable")
	ErrCircuitOpen        = errors.New("treecache: circuit breaker open")
	ErrClosed             = errors.New("treecache: manager closed")
	ErrBulkheadFull       = errors.New("treecache: bulkhead at capacity")
	ErrBulkheadTimeout    = errors.New("treecache: bulkhead timeout")
	ErrNotSerializable    = errors.New("treecache: value not serializable")
	ErrInvalidKey         = errors.New("treecache: invalid key")
	ErrInvalidConfig      = errors.New("treecache: invalid configuration")
	ErrShutdownTimeout    = errors.New("treecache: shutdown timeout waiting for background operations")
)

// CacheError wraps a tier-level failure with operation context.
type CacheError struct {
	Op   string
	Key  string
	Tier string
	Err  error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("treecache %s on %s [%s]: %v", e.Op, e.Tier, e.Key, e.Err)
	}
	return fmt.Sprintf("treecache %s on %s: %v", e.Op, e.Tier, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key, tier string, err error) *CacheError {
	return &CacheError{
		Op:   op,
		Key:  key,
		Tier: tier,
		Err:  err,
	}
}

// SerializationError indicates a value that the active codec mode cannot
// represent. It is recoverable: the manager skips the distributed write
// and keeps serving the value from the memory tier.
type SerializationError struct {
	Mode Mode
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("treecache: %s codec cannot encode value: %v", e.Mode, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotSerializable) match wrapped codec failures.
func (e *SerializationError) Is(target error) bool {
	return target == ErrNotSerializable
}

func NewSerializationError(mode Mode, err error) *SerializationError {
	return &SerializationError{Mode: mode, Err: err}
}

// ConfigError indicates an invalid configuration value. It is the only
// error class allowed to escape the cache subsystem, and only at
// construction time.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("treecache: invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

func IsSerializationError(err error) bool {
	return errors.Is(err, ErrNotSerializable)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}
