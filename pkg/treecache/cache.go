package treecache

import (
	"context"
	"time"

	"github.com/skillforge/treecache/internal/types"
)

type CacheManager interface {
	Get(ctx context.Context, key string, dest interface{}, opts ...Option) error
	Set(ctx context.Context, key string, value interface{}, opts ...Option) error
	GetOrCompute(ctx context.Context, key string, dest interface{}, compute func(ctx context.Context) (interface{}, error), opts ...Option) error
	Delete(ctx context.Context, key string, opts ...Option) error
	DeleteMany(ctx context.Context, keys []string, opts ...Option) error
	Contains(ctx context.Context, key string, opts ...Option) (bool, error)
	Clear(ctx context.Context) error
	ClearPrefix(ctx context.Context, prefix string) error
	Monitor() CacheMonitor
	IsDistributedAvailable() bool
	IsMemoryAvailable() bool
	Close() error
	CloseWithTimeout(timeout time.Duration) error
}

type (
	// Publisher ships metrics to an external sink such as a StatsD agent.
	Publisher = types.Publisher

	// PublisherStats is the condensed view a publisher pushes on each interval.
	PublisherStats = types.PublisherStats
)
