package cache

import (
	"context"
	"time"

	"github.com/skillforge/treecache/internal/types"
)

// DisabledDistributedCache stands in for the distributed tier when it is
// configured off. Every operation reports the backend as unavailable so
// the manager's degrade path is exercised uniformly.
type DisabledDistributedCache struct{}

func NewDisabledDistributedCache() *DisabledDistributedCache {
	return &DisabledDistributedCache{}
}

func (c *DisabledDistributedCache) Name() string      { return "disabled" }
func (c *DisabledDistributedCache) IsAvailable() bool { return false }

func (c *DisabledDistributedCache) Ping(ctx context.Context) error {
	return types.ErrBackendUnavailable
}

func (c *DisabledDistributedCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, types.ErrBackendUnavailable
}

func (c *DisabledDistributedCache) SetEx(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	return types.ErrBackendUnavailable
}

func (c *DisabledDistributedCache) Delete(ctx context.Context, key string) error {
	return types.ErrBackendUnavailable
}

func (c *DisabledDistributedCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, types.ErrBackendUnavailable
}

func (c *DisabledDistributedCache) KeyCount(ctx context.Context) (int64, error) {
	return 0, types.ErrBackendUnavailable
}

func (c *DisabledDistributedCache) Close() error { return nil }

var _ types.DistributedCache = (*DisabledDistributedCache)(nil)
