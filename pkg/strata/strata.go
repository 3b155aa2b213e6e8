package strata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/stratacache/strata/internal/backend"
	"github.com/stratacache/strata/internal/codec"
	"github.com/stratacache/strata/internal/config"
	"github.com/stratacache/strata/internal/metrics"
	"github.com/stratacache/strata/internal/metrics/datadog"
	"github.com/stratacache/strata/internal/resilience"
	"github.com/stratacache/strata/internal/tier"
	"github.com/stratacache/strata/internal/types"
)

// Configure starts a new, empty level builder for assembling a custom
// topology. Pair the built aggregator with NewCache for the typed API.
func Configure() *Builder {
	return tier.Configure()
}

// WithAggregatorLogger sets the structured logger on a built aggregator.
func WithAggregatorLogger(logger *slog.Logger) BuildOption {
	return tier.WithLogger(logger)
}

// WithAggregatorMetrics sets the metrics recorder on a built aggregator.
func WithAggregatorMetrics(m MetricsRecorder) BuildOption {
	return tier.WithMetrics(m)
}

// New creates a cache with default configuration (memory-only).
func New(opts ...CacheOption) (*Cache, error) {
	return NewFromConfig(config.DefaultConfig(), opts...)
}

// NewFromConfig assembles a cache from configuration: an in-process
// level (bigcache, optionally followed by a ristretto level) closest,
// and a resilience-wrapped Redis level behind it when enabled. When no
// backend is enabled the cache degrades to a no-op level that always
// misses.
func NewFromConfig(cfg *config.Config, opts ...CacheOption) (*Cache, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &cacheOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "strata")

	serializer := options.serializer
	if serializer == nil {
		s, err := codec.ByName(cfg.Defaults.Serializer)
		if err != nil {
			return nil, err
		}
		serializer = s
	}

	tracker := metrics.NewTracker()
	builder := tier.Configure()

	enabled := 0

	var memory *backend.Memory
	if cfg.Memory.Enabled {
		m, err := backend.NewMemory(cfg.Memory, logger)
		if err != nil {
			return nil, fmt.Errorf("memory backend: %w", err)
		}
		memory = m
		builder.AddLevel(memory)
		enabled++
	}

	if cfg.Ristretto.Enabled {
		r, err := backend.NewRistretto(cfg.Ristretto)
		if err != nil {
			return nil, fmt.Errorf("ristretto backend: %w", err)
		}
		builder.AddLevel(r)
		enabled++
	}

	var redis *backend.Redis
	if cfg.Redis.Enabled {
		r, err := backend.NewRedis(cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("redis backend: %w", err)
		}
		redis = r

		var member types.Backend = redis
		if cfg.CircuitBreaker.Enabled || cfg.Retry.Enabled || cfg.Bulkhead.Enabled {
			member = resilience.Wrap(redis, resilience.NewPolicy(cfg))
		}
		builder.AddLevel(member)
		enabled++
	}

	if enabled == 0 {
		logger.Warn("no backends enabled, cache will always miss")
		builder.AddLevel(backend.NewNoop())
	}

	agg, err := builder.Build(tier.WithLogger(logger), tier.WithMetrics(tracker))
	if err != nil {
		return nil, err
	}

	var validator *types.KeyValidator
	if cfg.KeyValidation.Enabled {
		validator = types.NewKeyValidator(cfg.KeyValidation.ToTypesConfig())
	}

	c := &Cache{
		agg:         agg,
		serializer:  serializer,
		validator:   validator,
		tracker:     tracker,
		logger:      logger,
		memory:      memory,
		redis:       redis,
		levelsTotal: enabled,
	}

	if cfg.Metrics.Enabled {
		publisher := options.publisher
		if publisher == nil {
			p, err := datadog.NewPublisher(&cfg.Metrics.DataDog, logger)
			if err != nil {
				closeErr := agg.Close()
				if closeErr != nil {
					logger.Error("failed to close aggregator during rollback", "error", closeErr)
				}
				return nil, err
			}
			publisher = p
		}
		c.publisher = publisher
		c.background = metrics.NewBackgroundPublisher(
			publisher, cfg.Metrics.PublishInterval, c.healthMetrics, logger)
		c.background.Start(context.Background())
	} else if options.publisher != nil {
		c.publisher = options.publisher
	}

	return c, nil
}

// NewFromFile creates a cache from a JSON config file with environment
// variable overrides applied.
func NewFromFile(path string, opts ...CacheOption) (*Cache, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewMemoryOnly creates a cache using only the in-process memory level.
func NewMemoryOnly(opts ...CacheOption) (*Cache, error) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = false
	cfg.Ristretto.Enabled = false
	return NewFromConfig(cfg, opts...)
}

// NewCache wraps an already-built aggregator with the typed API. The
// serializer defaults to JSON; key validation uses the default rules.
func NewCache(agg *Aggregator, opts ...CacheOption) *Cache {
	options := &cacheOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	serializer := options.serializer
	if serializer == nil {
		serializer = codec.JSON{}
	}

	return &Cache{
		agg:         agg,
		serializer:  serializer,
		validator:   types.DefaultKeyValidator,
		logger:      logger.With("component", "strata"),
		publisher:   options.publisher,
		levelsTotal: len(agg.Priorities()),
	}
}

// Config returns a default configuration that can be modified before
// creating a cache.
func Config() *config.Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *config.Config {
	return config.ForTesting()
}
