// Package strata provides a tiered caching library that composes
// priority-ordered cache levels behind a single API.
//
// strata aggregates any number of cache backends into levels. Lower
// priority numbers are "closer" (faster, smaller); higher numbers are
// "farther" (slower, larger). Reads scan the levels, writes fan out to
// all of them, and hits from far levels are promoted back into the
// closer ones.
//
// # Features
//
//   - Tiered Levels: any number of priority-ordered levels, each holding
//     one or more backends
//   - Racing Reads: multi-member levels query every member concurrently
//     and take the first answer
//   - Read Promotion: values found in far levels are backfilled into
//     closer levels automatically
//   - Supplied Backends: in-process (bigcache, ristretto) and Redis, plus
//     a no-op backend for graceful degradation
//   - Resilience: circuit breaker, retry with exponential backoff, and
//     bulkhead, attachable to any backend
//   - Observability: metrics tracking with pluggable publishers
//
// # Quick Start
//
// Create a cache with default configuration (memory-only):
//
//	cache, err := strata.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
// # Cache Operations
//
// Basic set and get operations:
//
//	ctx := context.Background()
//	user := User{ID: "123", Name: "Alice"}
//
//	// Set a value
//	_, err := cache.Set(ctx, "user:123", user)
//
//	// Get a value
//	var cached User
//	err = cache.Get(ctx, "user:123", &cached)
//
// Cache-aside pattern with GetOrCreate:
//
//	var result User
//	err := cache.GetOrCreate(ctx, "user:456", &result, func() (any, error) {
//	    // This function only runs on cache miss
//	    return fetchUserFromDB("456")
//	})
//
// Concurrent GetOrCreate calls for the same key are collapsed into a
// single factory invocation.
//
// # Custom Topologies
//
// Use the builder to assemble levels explicitly:
//
//	agg, err := strata.Configure().
//	    AddLevel(local).          // level 0: closest
//	    AddLevel(remoteA, remoteB). // level 1: two members, reads race
//	    Build()
//	cache := strata.NewCache(agg)
//
// # Options
//
// Use functional options to customize writes per operation:
//
//	cache.Set(ctx, "key", value, strata.WithTTL(5*time.Minute))
//	cache.Set(ctx, "key", value, strata.WithExpiresAt(deadline))
//
// # Configuration
//
// Load configuration from a JSON file:
//
//	cache, err := strata.NewFromFile("config.json")
//
// Or use the default configuration:
//
//	cfg := strata.Config()
//	cfg.Redis.Enabled = true
//	cfg.Redis.Address = "localhost:6379"
//	cache, err := strata.NewFromConfig(cfg)
//
// For testing, use the test configuration:
//
//	cfg := strata.TestConfig()
//
// # Thread Safety
//
// All cache operations are thread-safe and can be used concurrently from
// multiple goroutines.
package strata
