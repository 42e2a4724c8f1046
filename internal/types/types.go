// Package types provides shared types for the treecache library.
// This package breaks import cycles between pkg/treecache and internal/cache.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Mode identifies a serialization mode for values written to the
// distributed tier.
type Mode int

const (
	// ModeStructured encodes values as strict JSON. Only primitives and
	// containers of primitives are representable; anything else is a
	// recoverable serialization error.
	ModeStructured Mode = iota + 1
	// ModeFull encodes values as MessagePack, covering a larger class of
	// values (binary payloads, NaN/Inf floats, timestamps) at the cost of
	// cross-language portability.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeStructured:
		return "structured"
	case ModeFull:
		return "full"
	default:
		return "unknown"
	}
}

// ParseMode parses a serialization mode name as it appears in
// configuration files and environment variables.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "structured":
		return ModeStructured, nil
	case "full":
		return ModeFull, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized serialization mode %q", ErrInvalidConfig, s)
	}
}

// Entry is the payload held by the memory tier for a single key.
// Value holds either the caller's native value or, when Encoded is set,
// the codec-produced bytes the entry was back-populated with from the
// distributed tier.
type Entry struct {
	Value   any
	Encoded bool
}

// CacheOptions contains per-operation options.
type CacheOptions struct {
	TTL             time.Duration
	SkipDistributed bool
}

// DefaultOptions returns zero-value options; the manager fills in its
// configured defaults.
func DefaultOptions() *CacheOptions {
	return &CacheOptions{}
}

// MemoryCacheStats contains counters for the memory tier.
type MemoryCacheStats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64
}
