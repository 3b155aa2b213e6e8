package strata

import (
	"log/slog"
	"time"

	"github.com/stratacache/strata/internal/metrics"
	"github.com/stratacache/strata/internal/types"
)

// SetOption is a functional option for write-shaped operations.
type SetOption = types.SetOption

// ApplySetOptions folds functional options into a SetOptions value.
// Returns nil when no options were given so backends see "use defaults".
func ApplySetOptions(opts ...SetOption) *SetOptions {
	return types.ApplySetOptions(opts...)
}

// WithTTL sets a relative expiration for the write.
func WithTTL(ttl time.Duration) SetOption {
	return types.WithTTL(ttl)
}

// WithExpiresAt sets an absolute expiration for the write. When both a
// TTL and an absolute time are present, the absolute time wins.
func WithExpiresAt(at time.Time) SetOption {
	return types.WithExpiresAt(at)
}

type cacheOptions struct {
	logger     *slog.Logger
	serializer types.Serializer
	publisher  metrics.Publisher
}

// CacheOption configures a Cache at construction time.
type CacheOption func(*cacheOptions)

// WithLogger sets the structured logger used by the cache and its backends.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(o *cacheOptions) {
		o.logger = logger
	}
}

// WithSerializer overrides the codec selected by the configuration.
func WithSerializer(serializer Serializer) CacheOption {
	return func(o *cacheOptions) {
		o.serializer = serializer
	}
}

// WithPublisher overrides the metrics publisher selected by the
// configuration. Useful for tests and custom sinks.
func WithPublisher(publisher Publisher) CacheOption {
	return func(o *cacheOptions) {
		o.publisher = publisher
	}
}
