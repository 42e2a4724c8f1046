package cache

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skillforge/treecache/internal/config"
	"github.com/skillforge/treecache/internal/metrics"
	"github.com/skillforge/treecache/internal/metrics/datadog"
	"github.com/skillforge/treecache/internal/resilience"
	"github.com/skillforge/treecache/internal/types"
)

// DefaultShutdownTimeout is the default timeout for shutting down the cache manager.
const DefaultShutdownTimeout = 30 * time.Second

// DefaultBackgroundOpTimeout is the default timeout for background operations.
const DefaultBackgroundOpTimeout = 5 * time.Second

// Manager coordinates the memory tier and the optional distributed tier.
//
// Writes always land in the memory tier; they reach the distributed tier
// only when the codec can encode the value. Reads consult memory first and
// fall back to the backend, re-populating memory asynchronously on a
// backend hit. Backend failures of any kind degrade to a cache miss; the
// only errors that escape construction-time checks are validation errors
// on the caller's own input.
type Manager struct {
	memory         types.MemoryLayer
	backend        types.DistributedCache
	codec          types.Codec
	policy         *resilience.Policy
	config         *config.Config
	metrics        types.MetricsRecorder
	publisher      types.Publisher
	metricsLoop    *metrics.BackgroundPublisher
	logger         *slog.Logger
	keyValidator   *types.KeyValidator
	distributed    bool
	shutdownCancel context.CancelFunc
	shutdownCtx    context.Context
	sfGroup        singleflight.Group
	bgWg           sync.WaitGroup
	bgMu           sync.Mutex
	closed         atomic.Bool
}

// NewManager creates a new cache manager with the given configuration and options.
//
//nolint:gocyclo // Configuration initialization requires multiple conditional checks
func NewManager(cfg *config.Config, opts *types.ManagerOptions) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	logger := slog.Default()
	if opts != nil && opts.Logger != nil {
		logger = slog.New(slogAdapter{logger: opts.Logger})
	}
	logger = logger.With("component", "cache-manager")

	if opts != nil {
		if opts.RedisAddress != "" {
			cfg.Redis.Address = opts.RedisAddress
			cfg.Redis.Enabled = true
		}
		if !opts.RedisPassword.IsEmpty() {
			cfg.Redis.Password = opts.RedisPassword
		}
		if opts.RedisDB != 0 {
			cfg.Redis.DB = opts.RedisDB
		}
		if opts.DisableDistributed {
			cfg.Redis.Enabled = false
		}
		if opts.DisableResilience {
			cfg.CircuitBreaker.Enabled = false
			cfg.Bulkhead.Enabled = false
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	m := &Manager{
		config:         cfg,
		logger:         logger,
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}

	mode, err := cfg.SerializationMode()
	if err != nil {
		shutdownCancel()
		return nil, err
	}
	m.codec = NewCodec(mode)

	if opts != nil {
		if opts.Codec != nil {
			m.codec = opts.Codec
		}
		if opts.Metrics != nil {
			m.metrics = opts.Metrics
		}
	}

	if cfg.KeyValidation.Enabled {
		m.keyValidator = types.NewKeyValidator(cfg.KeyValidation.ToTypesConfig())
	}

	switch cfg.Memory.Engine {
	case config.EngineBounded:
		memCache, err := NewBoundedMemoryCache(cfg.Memory, m.codec, logger)
		if err != nil {
			shutdownCancel()
			return nil, err
		}
		m.memory = memCache
	default:
		memCache, err := NewNativeMemoryCache(cfg.Memory, logger)
		if err != nil {
			shutdownCancel()
			return nil, err
		}
		m.memory = memCache
	}

	switch {
	case opts != nil && opts.Backend != nil:
		m.backend = opts.Backend
		m.distributed = true
	case cfg.Redis.Enabled:
		redisCache, err := NewRedisCache(cfg.Redis, logger)
		if err != nil {
			logger.Warn("Failed to create Redis cache, using memory-only mode", "error", err)
			m.backend = NewDisabledDistributedCache()
		} else {
			m.backend = redisCache
			m.distributed = true
		}
	default:
		m.backend = NewDisabledDistributedCache()
	}

	if m.metrics == nil && cfg.Metrics.Enabled {
		tracker := metrics.NewTracker()
		m.metrics = tracker

		if cfg.Metrics.DataDog.Enabled {
			pub, err := datadog.NewPublisher(&cfg.Metrics.DataDog, logger)
			if err != nil {
				logger.Warn("Failed to create DataDog publisher, falling back to log output", "error", err)
				m.publisher = metrics.NewLoggingPublisher(logger, cfg.Metrics.DataDog.Tags...)
			} else {
				m.publisher = pub
			}
		} else {
			m.publisher = metrics.NewLoggingPublisher(logger)
		}

		if cfg.Metrics.PublishInterval > 0 {
			m.metricsLoop = metrics.NewBackgroundPublisher(
				m.publisher,
				cfg.Metrics.PublishInterval,
				metrics.TrackerStatsFn(tracker),
				logger,
			)
			m.metricsLoop.Start(shutdownCtx)
		}
	}

	m.policy = resilience.NewPolicy(cfg)

	m.policy.SetOnCircuitStateChange(func(from, to resilience.State) {
		logger.Info("Circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
		if m.metrics != nil {
			m.metrics.RecordCircuitBreakerStateChange(from.String(), to.String())
		}
	})

	return m, nil
}

// Get retrieves a value into dest, which must be a non-nil pointer.
// The memory tier is consulted first; on a miss the distributed tier is
// tried, and a backend hit re-populates memory in the background. Any
// backend failure is reported as a cache miss.
func (m *Manager) Get(ctx context.Context, key string, dest any, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	options := m.applyDefaults(opts...)
	nskey := m.namespaced(key)

	entry, err := m.memory.Get(ctx, nskey)
	if err == nil {
		if m.metrics != nil {
			m.metrics.RecordHit("memory", key, time.Since(start))
		}
		return m.materialize(entry, dest)
	}

	if !types.IsCacheMiss(err) {
		m.logger.Debug("Memory cache error", "key", key, "error", err)
	}

	if options.SkipDistributed || !m.distributed {
		if m.metrics != nil {
			m.metrics.RecordMiss("memory", key, time.Since(start))
		}
		return types.ErrCacheMiss
	}

	data, err := m.getFromBackend(ctx, nskey)
	if err != nil {
		if !types.IsCacheMiss(err) {
			m.logger.Debug("Distributed GET failed, degrading to miss", "key", key, "error", err)
			if m.metrics != nil {
				m.metrics.RecordError("redis", "Get", err)
			}
		}
		if m.metrics != nil {
			m.metrics.RecordMiss("redis", key, time.Since(start))
		}
		return types.ErrCacheMiss
	}

	if err := m.codec.Decode(data, dest); err != nil {
		m.logger.Debug("Distributed payload undecodable, degrading to miss", "key", key, "error", err)
		if m.metrics != nil {
			m.metrics.RecordError("redis", "Decode", err)
			m.metrics.RecordMiss("redis", key, time.Since(start))
		}
		return types.ErrCacheMiss
	}

	ttl := options.TTL
	m.runBackground(func(ctx context.Context) {
		populate := types.Entry{Value: data, Encoded: true}
		if setErr := m.memory.Set(ctx, nskey, populate, ttl); setErr != nil {
			m.logger.Debug("Failed to populate memory from backend", "key", key, "error", setErr)
		}
	})

	if m.metrics != nil {
		m.metrics.RecordHit("redis", key, time.Since(start))
	}

	return nil
}

// getFromBackend reads from the distributed tier through the resilience policy.
func (m *Manager) getFromBackend(ctx context.Context, key string) ([]byte, error) {
	if !m.backend.IsAvailable() {
		return nil, types.ErrBackendUnavailable
	}

	result, err := m.policy.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return m.backend.Get(ctx, key)
	})

	if err != nil {
		return nil, err
	}

	data, ok := result.([]byte)
	if !ok {
		return nil, types.ErrCacheMiss
	}

	return data, nil
}

// Set stores a value. The memory tier always receives the native value;
// the distributed tier is written only when the codec can encode it.
// A value the codec cannot represent is cached in memory only, and Set
// still returns nil.
func (m *Manager) Set(ctx context.Context, key string, value any, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	options := m.applyDefaults(opts...)
	nskey := m.namespaced(key)

	if err := m.memory.Set(ctx, nskey, types.Entry{Value: value}, options.TTL); err != nil {
		if types.IsSerializationError(err) {
			// Bounded engine: unencodable values cannot be held at all.
			m.logger.Debug("Memory SET skipped, value not encodable", "key", key, "error", err)
		} else {
			return err
		}
	}

	var encoded int

	if m.distributed && !options.SkipDistributed {
		data, err := m.codec.Encode(value)
		if err != nil {
			m.logger.Debug("Distributed SET skipped, value not encodable",
				"key", key, "mode", m.codec.Mode().String(), "error", err)
		} else {
			encoded = len(data)
			if setErr := m.setToBackend(ctx, nskey, data, options.TTL); setErr != nil {
				m.logger.Warn("Distributed SET failed, wrote to memory only", "key", key, "error", setErr)
				if m.metrics != nil {
					m.metrics.RecordError("redis", "Set", setErr)
				}
			}
		}
	}

	if m.metrics != nil {
		m.metrics.RecordSet("memory", key, encoded, time.Since(start))
	}

	return nil
}

// setToBackend writes to the distributed tier through the resilience policy.
func (m *Manager) setToBackend(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !m.backend.IsAvailable() {
		return types.ErrBackendUnavailable
	}

	return m.policy.Execute(ctx, func(ctx context.Context) error {
		return m.backend.SetEx(ctx, key, ttl, data)
	})
}

// GetOrCompute retrieves a value or computes it with the supplied
// function. Concurrent callers for the same key share a single compute
// invocation.
func (m *Manager) GetOrCompute(ctx context.Context, key string, dest any, compute func(ctx context.Context) (any, error), opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return err
	}

	if err := m.Get(ctx, key, dest, opts...); err == nil {
		return nil
	}

	nskey := m.namespaced(key)

	result, err, _ := m.sfGroup.Do(nskey, func() (any, error) {
		if entry, checkErr := m.memory.Get(ctx, nskey); checkErr == nil {
			return entry, nil
		}

		value, computeErr := compute(ctx)
		if computeErr != nil {
			return nil, computeErr
		}

		if setErr := m.Set(ctx, key, value, opts...); setErr != nil {
			m.logger.Debug("Failed to cache computed value", "key", key, "error", setErr)
		}

		return types.Entry{Value: value}, nil
	})

	if err != nil {
		return err
	}

	entry, ok := result.(types.Entry)
	if !ok {
		return types.ErrCacheMiss
	}

	return m.materialize(entry, dest)
}

// Delete removes a key from both tiers. The backend delete is best
// effort: its failure leaves the backend copy to expire via TTL.
func (m *Manager) Delete(ctx context.Context, key string, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return err
	}

	start := time.Now()
	options := m.applyDefaults(opts...)
	nskey := m.namespaced(key)

	err := m.memory.Delete(ctx, nskey)

	if m.distributed && !options.SkipDistributed {
		if delErr := m.policy.Execute(ctx, func(ctx context.Context) error {
			return m.backend.Delete(ctx, nskey)
		}); delErr != nil {
			m.logger.Debug("Distributed DELETE failed", "key", key, "error", delErr)
		}
	}

	if m.metrics != nil {
		m.metrics.RecordDelete("memory", key, time.Since(start))
	}

	return err
}

// DeleteMany attempts to delete all keys and returns a combined error if any deletions fail.
func (m *Manager) DeleteMany(ctx context.Context, keys []string, opts ...types.Option) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	if err := m.validateKeys(keys); err != nil {
		return err
	}

	var errs []error
	for _, key := range keys {
		if err := m.Delete(ctx, key, opts...); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Contains reports whether key is present in either tier. Backend
// failures are treated as absence.
func (m *Manager) Contains(ctx context.Context, key string, opts ...types.Option) (bool, error) {
	if m.closed.Load() {
		return false, types.ErrClosed
	}

	if err := m.validateKey(key); err != nil {
		return false, err
	}

	options := m.applyDefaults(opts...)
	nskey := m.namespaced(key)

	exists, err := m.memory.Contains(ctx, nskey)
	if err != nil {
		m.logger.Debug("Memory contains check failed", "key", key, "error", err)
	} else if exists {
		return true, nil
	}

	if !m.distributed || options.SkipDistributed {
		return false, nil
	}

	if _, err := m.getFromBackend(ctx, nskey); err != nil {
		return false, nil
	}
	return true, nil
}

// Clear removes every entry under the manager's namespace from both
// tiers. The backend sweep is best effort.
func (m *Manager) Clear(ctx context.Context) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	err := m.memory.Clear(ctx)

	if m.distributed {
		m.clearBackendPattern(ctx, m.config.Namespace+"*")
	}

	return err
}

// ClearPrefix removes every entry whose key starts with prefix from both
// tiers. Prefix matching applies to caller-visible keys, before
// namespacing.
func (m *Manager) ClearPrefix(ctx context.Context, prefix string) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	nsprefix := m.namespaced(prefix)

	err := m.memory.ClearPrefix(ctx, nsprefix)

	if m.distributed {
		m.clearBackendPattern(ctx, nsprefix+"*")
	}

	return err
}

func (m *Manager) clearBackendPattern(ctx context.Context, pattern string) {
	if !m.backend.IsAvailable() {
		return
	}

	keys, err := m.backend.Keys(ctx, pattern)
	if err != nil {
		m.logger.Debug("Distributed key scan failed during clear", "pattern", pattern, "error", err)
		return
	}

	for _, key := range keys {
		if delErr := m.backend.Delete(ctx, key); delErr != nil {
			m.logger.Debug("Distributed DELETE failed during clear", "key", key, "error", delErr)
		}
	}
}

// Monitor returns a read-only stats view over this manager.
func (m *Manager) Monitor() types.CacheMonitor {
	return &Monitor{manager: m}
}

// IsDistributedAvailable returns true if the distributed tier is enabled,
// connected, and not behind an open circuit.
func (m *Manager) IsDistributedAvailable() bool {
	return m.distributed && m.backend.IsAvailable() && !m.policy.IsCircuitOpen()
}

// IsMemoryAvailable returns true if the memory tier is available.
func (m *Manager) IsMemoryAvailable() bool {
	return m.memory.IsAvailable()
}

// Close releases all resources using the default shutdown timeout.
// It waits for all in-flight background operations to complete before closing the underlying cache layers.
func (m *Manager) Close() error {
	return m.CloseWithTimeout(DefaultShutdownTimeout)
}

// CloseWithTimeout releases all resources with a configurable timeout.
// If background operations don't complete within the timeout, it returns ErrShutdownTimeout but still proceeds to close cache layers.
func (m *Manager) CloseWithTimeout(timeout time.Duration) error {
	// Acquire bgMu to prevent new background operations from starting.
	// This synchronizes with runBackground to ensure no Add calls happen after we set closed=true and before Wait completes.
	m.bgMu.Lock()
	if m.closed.Swap(true) {
		m.bgMu.Unlock()
		return nil
	}
	// Signal shutdown to all background operations
	m.shutdownCancel()
	m.bgMu.Unlock()

	m.logger.Info("Closing cache manager, waiting for background operations", "timeout", timeout)

	done := make(chan struct{})
	go func() {
		m.bgWg.Wait()
		close(done)
	}()

	var timedOut bool
	select {
	case <-done:
		m.logger.Info("Background operations complete, closing cache layers")
	case <-time.After(timeout):
		m.logger.Warn("Shutdown timeout exceeded, proceeding with close", "timeout", timeout)
		timedOut = true
	}

	if m.metricsLoop != nil {
		m.metricsLoop.Stop()
	}

	var errs []error

	if timedOut {
		errs = append(errs, types.ErrShutdownTimeout)
	}

	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := m.memory.Close(); err != nil {
		errs = append(errs, err)
	}

	if err := m.backend.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// runBackground executes fn in a background goroutine that is tracked for graceful shutdown.
// The function receives a context derived from the shutdown context with a timeout.
// The goroutine will not be started if the manager is already closed.
func (m *Manager) runBackground(fn func(ctx context.Context)) {
	// Hold bgMu while checking closed and adding to WaitGroup to prevent a race with CloseWithTimeout where Add is called after Wait starts.
	m.bgMu.Lock()
	if m.closed.Load() {
		m.bgMu.Unlock()
		return
	}
	m.bgWg.Add(1)
	m.bgMu.Unlock()

	go func() {
		defer m.bgWg.Done()
		ctx, cancel := context.WithTimeout(m.shutdownCtx, DefaultBackgroundOpTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// materialize delivers an entry into dest: encoded entries are decoded
// with the codec, native entries are assigned directly.
func (m *Manager) materialize(entry types.Entry, dest any) error {
	if entry.Encoded {
		data, ok := entry.Value.([]byte)
		if !ok {
			return types.ErrCacheMiss
		}
		return m.codec.Decode(data, dest)
	}
	return m.assignValue(entry.Value, dest)
}

// assignValue assigns a native cached value to the dest pointer. When the
// types don't line up directly it falls back to a codec round-trip, which
// handles the common case of decoding into a struct after a map was
// cached or vice versa.
func (m *Manager) assignValue(value any, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return types.NewCacheError("Get", "", "memory", errors.New("destination must be a non-nil pointer"))
	}

	elem := rv.Elem()

	if value == nil {
		elem.SetZero()
		return nil
	}

	vv := reflect.ValueOf(value)
	if vv.Type().AssignableTo(elem.Type()) {
		elem.Set(vv)
		return nil
	}

	data, err := m.codec.Encode(value)
	if err != nil {
		return err
	}
	return m.codec.Decode(data, dest)
}

func (m *Manager) validateKey(key string) error {
	if m.keyValidator == nil {
		return nil
	}
	return m.keyValidator.Validate(key)
}

func (m *Manager) validateKeys(keys []string) error {
	if m.keyValidator == nil {
		return nil
	}
	for _, key := range keys {
		if err := m.keyValidator.Validate(key); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) namespaced(key string) string {
	return m.config.Namespace + key
}

func (m *Manager) applyDefaults(opts ...types.Option) *types.CacheOptions {
	options := types.ApplyOptions(opts...)

	if options.TTL == 0 {
		options.TTL = m.config.Defaults.TTL
	}

	return options
}

//nolint:govet // Simple adapter struct - alignment optimization minimal
type slogAdapter struct {
	attrs  []slog.Attr
	logger types.Logger
	group  string // current group prefix from WithGroup calls
}

// Enabled implements slog.Handler.
func (a slogAdapter) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires passing Record by value
func (a slogAdapter) Handle(ctx context.Context, r slog.Record) error {
	args := make([]any, 0, (len(a.attrs)+r.NumAttrs())*2)

	for _, attr := range a.attrs {
		key := attr.Key
		if a.group != "" {
			key = a.group + "." + key
		}
		args = append(args, key, attr.Value.Any())
	}

	r.Attrs(func(attr slog.Attr) bool {
		key := attr.Key
		if a.group != "" {
			key = a.group + "." + key
		}
		args = append(args, key, attr.Value.Any())
		return true
	})

	switch r.Level {
	case slog.LevelDebug:
		a.logger.Debug(r.Message, args...)
	case slog.LevelInfo:
		a.logger.Info(r.Message, args...)
	case slog.LevelWarn:
		a.logger.Warn(r.Message, args...)
	case slog.LevelError:
		a.logger.Error(r.Message, args...)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (a slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(a.attrs), len(a.attrs)+len(attrs))
	copy(newAttrs, a.attrs)
	newAttrs = append(newAttrs, attrs...)
	return slogAdapter{
		logger: a.logger,
		attrs:  newAttrs,
		group:  a.group,
	}
}

// WithGroup implements slog.Handler.
func (a slogAdapter) WithGroup(name string) slog.Handler {
	newGroup := name
	if a.group != "" {
		newGroup = a.group + "." + name
	}
	return slogAdapter{
		logger: a.logger,
		attrs:  a.attrs,
		group:  newGroup,
	}
}
