package treecache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// MemoOption configures a memoized function.
type MemoOption func(*memoOptions)

type memoOptions struct {
	ttl          time.Duration
	keyFn        func(arg any) (string, error)
	singleFlight bool
}

// WithMemoTTL sets the TTL for cached results of a memoized function.
func WithMemoTTL(ttl time.Duration) MemoOption {
	return func(o *memoOptions) {
		o.ttl = ttl
	}
}

// WithKeyFunc replaces the default argument-hash key derivation. The
// function receives the call argument and returns the cache key suffix.
func WithKeyFunc(fn func(arg any) (string, error)) MemoOption {
	return func(o *memoOptions) {
		o.keyFn = fn
	}
}

// WithSingleFlight coalesces concurrent calls for the same key into a
// single invocation of the underlying function. Without it, concurrent
// misses each invoke the function; last write wins.
func WithSingleFlight() MemoOption {
	return func(o *memoOptions) {
		o.singleFlight = true
	}
}

// Memoize wraps fn so that its results are cached under keys derived
// from its argument. The wrapped function is transparent: callers see
// the same results whether they came from the cache or from fn.
//
// Arguments that cannot be turned into a key bypass the cache entirely,
// as does any cache read error: the underlying function is always the
// fallback.
func Memoize[A any, R any](manager CacheManager, namespace string, fn func(context.Context, A) (R, error), opts ...MemoOption) func(context.Context, A) (R, error) {
	options := &memoOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var callOpts []Option
	if options.ttl > 0 {
		callOpts = append(callOpts, WithTTL(options.ttl))
	}

	return func(ctx context.Context, arg A) (R, error) {
		var zero R

		key, err := options.deriveKey(namespace, arg)
		if err != nil {
			return fn(ctx, arg)
		}

		if options.singleFlight {
			var result R
			err := manager.GetOrCompute(ctx, key, &result, func(ctx context.Context) (any, error) {
				return fn(ctx, arg)
			}, callOpts...)
			if err != nil {
				return zero, err
			}
			return result, nil
		}

		var cached R
		if getErr := manager.Get(ctx, key, &cached, callOpts...); getErr == nil {
			return cached, nil
		}

		result, err := fn(ctx, arg)
		if err != nil {
			return zero, err
		}

		// A failed cache write only costs the next call a recompute.
		_ = manager.Set(ctx, key, result, callOpts...)

		return result, nil
	}
}

func (o *memoOptions) deriveKey(namespace string, arg any) (string, error) {
	if o.keyFn != nil {
		suffix, err := o.keyFn(arg)
		if err != nil {
			return "", err
		}
		return namespace + ":" + suffix, nil
	}
	return DeriveKey(namespace, arg)
}

// DeriveKey builds a cache key from a namespace and an arbitrary
// argument. The argument is serialized to JSON, which sorts map keys, so
// structurally equal arguments always hash to the same key. Arguments
// JSON cannot represent (channels, funcs) return an error.
func DeriveKey(namespace string, arg any) (string, error) {
	data, err := json.Marshal(arg)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%016x", namespace, xxhash.Sum64(data)), nil
}
