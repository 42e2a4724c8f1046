// Package treecache provides a two-tier caching library with an
// in-process memory tier and an optional distributed Redis tier.
//
// Writes always land in the memory tier; they reach the distributed
// tier only when the configured codec can serialize the value. Reads
// consult memory first and fall back to the distributed tier, which
// re-populates memory in the background. Distributed failures of any
// kind degrade to a cache miss, so callers never need to handle backend
// outages themselves.
//
// # Quick Start
//
// Create a cache manager with default configuration (memory-only):
//
//	manager, err := treecache.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Close()
//
// # Cache Operations
//
// Basic set and get operations:
//
//	ctx := context.Background()
//	tree := SkillTree{ID: "combat", Nodes: 42}
//
//	// Set a value
//	err := manager.Set(ctx, "tree:combat", tree)
//
//	// Get a value
//	var cached SkillTree
//	err = manager.Get(ctx, "tree:combat", &cached)
//
// Cache-aside pattern with GetOrCompute:
//
//	var result SkillTree
//	err := manager.GetOrCompute(ctx, "tree:magic", &result, func(ctx context.Context) (any, error) {
//	    // This function only runs on cache miss
//	    return loadTreeFromDB(ctx, "magic")
//	})
//
// # Serialization Modes
//
// Two codecs are available for distributed-tier payloads: "structured"
// (strict JSON) and "full" (MessagePack). The mode is set in
// configuration and can be overridden process-wide with the
// TREECACHE_SERIALIZATION_MODE environment variable. Values the active
// codec cannot represent are still cached in memory; the distributed
// write is skipped silently.
//
// # Memoization
//
// Memoize wraps a function so repeated calls with equal arguments hit
// the cache:
//
//	lookup := treecache.Memoize(manager, "skills", fetchSkill,
//	    treecache.WithMemoTTL(5*time.Minute))
//	skill, err := lookup(ctx, SkillQuery{TreeID: "combat", Depth: 3})
//
// Concurrent calls with the same argument may each invoke the
// underlying function unless WithSingleFlight is given.
//
// # Distributed Tier
//
// Enable Redis via configuration or options:
//
//	cfg := treecache.Config()
//	cfg.Redis.Enabled = true
//	cfg.Redis.Address = "localhost:6379"
//	manager, err := treecache.NewFromConfig(cfg)
//
// # Observability
//
// Monitor returns a read-only stats view that never mutates cache state:
//
//	stats := manager.Monitor().Stats(ctx)
//	fmt.Println(stats.Memory.EntryCount, stats.Distributed.Available)
//
// # Configuration
//
// Load configuration from a JSON file, with environment overrides:
//
//	manager, err := treecache.NewFromFile("config.json")
//
// For testing, use the test configuration:
//
//	cfg := treecache.TestConfig()
//
// # Thread Safety
//
// All cache operations are thread-safe and can be used concurrently from multiple goroutines.
package treecache
