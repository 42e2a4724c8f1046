package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/skillforge/treecache/internal/types"
)

// BackgroundPublisher publishes cache stats at regular intervals with
// context-based cancellation support.
type BackgroundPublisher struct {
	publisher types.Publisher
	logger    *slog.Logger
	getStats  func() *types.PublisherStats
	cancel    context.CancelFunc
	ctx       context.Context
	wg        sync.WaitGroup
	interval  time.Duration
}

// NewBackgroundPublisher creates a new background publisher.
// The statsFn is called on each interval to get the current stats.
func NewBackgroundPublisher(
	publisher types.Publisher,
	interval time.Duration,
	statsFn func() *types.PublisherStats,
	logger *slog.Logger,
) *BackgroundPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &BackgroundPublisher{
		publisher: publisher,
		interval:  interval,
		logger:    logger.With("component", "metrics-background"),
		getStats:  statsFn,
	}
}

// Start begins the background publishing loop.
// The provided context controls the lifecycle of the background goroutine.
func (b *BackgroundPublisher) Start(ctx context.Context) {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.run()
	b.logger.Info("Background metrics publisher started", "interval", b.interval)
}

// Stop cancels the background context and waits for shutdown.
func (b *BackgroundPublisher) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	b.logger.Info("Background metrics publisher stopped")
}

func (b *BackgroundPublisher) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			// Final publish before stopping
			b.publish()
			return
		case <-ticker.C:
			b.publish()
		}
	}
}

func (b *BackgroundPublisher) publish() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in metrics publisher", "panic", r)
		}
	}()

	if b.getStats == nil {
		return
	}

	stats := b.getStats()
	if stats != nil {
		b.publisher.PublishStats(stats)
	}
}

// PublishNow triggers an immediate stats publish.
func (b *BackgroundPublisher) PublishNow() {
	b.publish()
}

// TrackerStatsFn builds a stats function over a Tracker, suitable for
// NewBackgroundPublisher.
func TrackerStatsFn(tracker *Tracker) func() *types.PublisherStats {
	return func() *types.PublisherStats {
		snapshot := tracker.Snapshot()
		return &types.PublisherStats{
			MemoryEntries:    snapshot.MemoryEntries,
			MemoryEvictions:  snapshot.MemoryEvictions,
			HitRatio:         snapshot.TotalHitRatio(),
			AverageLatencyMs: snapshot.AvgLatencyMs,
			ErrorCount:       snapshot.ErrorCount,
			BackendConnected: snapshot.BackendConnected,
			CircuitState:     snapshot.CircuitBreakerState,
		}
	}
}
