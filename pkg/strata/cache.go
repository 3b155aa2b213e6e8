package strata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/stratacache/strata/internal/backend"
	"github.com/stratacache/strata/internal/metrics"
	"github.com/stratacache/strata/internal/tier"
	"github.com/stratacache/strata/internal/types"
)

// Cache is the typed front door: it validates keys, marshals caller
// values through the configured serializer, and routes the resulting
// bytes through a tiered aggregator. All methods are safe for
// concurrent use.
type Cache struct {
	agg        *tier.Aggregator
	serializer types.Serializer
	validator  *types.KeyValidator
	tracker    *metrics.Tracker
	publisher  metrics.Publisher
	background *metrics.BackgroundPublisher
	logger     *slog.Logger
	group      singleflight.Group

	closeOnce sync.Once
	closeErr  error

	memory      *backend.Memory
	redis       *backend.Redis
	levelsTotal int
}

func (c *Cache) validateKey(key string) error {
	if c.validator == nil {
		return nil
	}
	return c.validator.Validate(key)
}

// Get fetches key and unmarshals the cached bytes into dest. A miss in
// every level returns ErrNotFound. A hit in a far level is promoted
// into the closer levels before returning.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if err := c.validateKey(key); err != nil {
		return err
	}

	data, err := c.agg.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return nil
}

// Set marshals value and writes it to every level. The bool reports
// whether any level accepted the write.
func (c *Cache) Set(ctx context.Context, key string, value any, opts ...SetOption) (bool, error) {
	if err := c.validateKey(key); err != nil {
		return false, err
	}

	data, err := c.serializer.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %q: %w", key, err)
	}
	return c.agg.Set(ctx, key, data, types.ApplySetOptions(opts...))
}

// Add writes value only where the key is absent. The bool reports
// whether any level accepted the write.
func (c *Cache) Add(ctx context.Context, key string, value any, opts ...SetOption) (bool, error) {
	if err := c.validateKey(key); err != nil {
		return false, err
	}

	data, err := c.serializer.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %q: %w", key, err)
	}
	return c.agg.Add(ctx, key, data, types.ApplySetOptions(opts...))
}

// Replace writes value only where the key is already present. The bool
// reports whether any level accepted the write.
func (c *Cache) Replace(ctx context.Context, key string, value any, opts ...SetOption) (bool, error) {
	if err := c.validateKey(key); err != nil {
		return false, err
	}

	data, err := c.serializer.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal %q: %w", key, err)
	}
	return c.agg.Replace(ctx, key, data, types.ApplySetOptions(opts...))
}

// Remove deletes key from every level; true if any level held it.
func (c *Cache) Remove(ctx context.Context, key string) (bool, error) {
	if err := c.validateKey(key); err != nil {
		return false, err
	}
	return c.agg.Remove(ctx, key)
}

// RemoveAll deletes the keys from every level.
func (c *Cache) RemoveAll(ctx context.Context, keys []string) error {
	for _, key := range keys {
		if err := c.validateKey(key); err != nil {
			return err
		}
	}
	return c.agg.RemoveAll(ctx, keys)
}

// Contains reports whether key is present in any level, without
// unmarshaling the value. The probe still promotes far hits.
func (c *Cache) Contains(ctx context.Context, key string) (bool, error) {
	if err := c.validateKey(key); err != nil {
		return false, err
	}

	_, err := c.agg.Get(ctx, key)
	if err != nil {
		if types.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetMany fetches the keys from every level and merges with
// closer-level precedence. Missing keys are absent from the result;
// values are returned raw, without unmarshaling. No promotion is
// performed for bulk reads.
func (c *Cache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	for _, key := range keys {
		if err := c.validateKey(key); err != nil {
			return nil, err
		}
	}
	return c.agg.GetAll(ctx, keys)
}

// SetMany marshals the items and writes them to every level.
func (c *Cache) SetMany(ctx context.Context, items map[string]any, opts ...SetOption) error {
	encoded := make(map[string][]byte, len(items))
	for key, value := range items {
		if err := c.validateKey(key); err != nil {
			return err
		}
		data, err := c.serializer.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %q: %w", key, err)
		}
		encoded[key] = data
	}
	return c.agg.SetAll(ctx, encoded, types.ApplySetOptions(opts...))
}

// Increment adds delta to the counter at key in every level and
// returns the farthest level's resulting value.
func (c *Cache) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if err := c.validateKey(key); err != nil {
		return 0, err
	}
	return c.agg.Increment(ctx, key, delta)
}

// Decrement subtracts delta from the counter at key in every level and
// returns the farthest level's resulting value.
func (c *Cache) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	if err := c.validateKey(key); err != nil {
		return 0, err
	}
	return c.agg.Decrement(ctx, key, delta)
}

// FlushAll empties every level.
func (c *Cache) FlushAll(ctx context.Context) error {
	return c.agg.FlushAll(ctx)
}

// GetOrCreate fetches key into dest, invoking factory to produce the
// value on a miss and caching the result. Concurrent calls for the
// same key are collapsed: only one factory runs, the rest share its
// result. A failed cache write is logged, not surfaced; the caller
// still gets the factory's value.
func (c *Cache) GetOrCreate(ctx context.Context, key string, dest any, factory func() (any, error), opts ...SetOption) error {
	if err := c.validateKey(key); err != nil {
		return err
	}

	if data, err := c.agg.Get(ctx, key); err == nil {
		if err := c.serializer.Unmarshal(data, dest); err != nil {
			return fmt.Errorf("unmarshal %q: %w", key, err)
		}
		return nil
	} else if !types.IsNotFound(err) {
		return err
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have populated the cache while we queued.
		if data, err := c.agg.Get(ctx, key); err == nil {
			return data, nil
		} else if !types.IsNotFound(err) {
			return nil, err
		}

		value, err := factory()
		if err != nil {
			return nil, err
		}

		data, err := c.serializer.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", key, err)
		}

		if _, err := c.agg.Set(ctx, key, data, types.ApplySetOptions(opts...)); err != nil {
			c.logger.Warn("failed to cache created value", "key", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	data, _ := result.([]byte)
	if err := c.serializer.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return nil
}

// Metrics returns a point-in-time snapshot of the cache's counters and
// latency percentiles. The zero Snapshot is returned when metrics
// tracking is not attached.
func (c *Cache) Metrics() Snapshot {
	if c.tracker == nil {
		return Snapshot{}
	}
	return c.tracker.Snapshot()
}

// Priorities returns the configured level priorities in ascending order.
func (c *Cache) Priorities() []int {
	return c.agg.Priorities()
}

// Close stops background publishing and releases every level in
// ascending order. Close is idempotent and safe to call concurrently;
// every caller observes the same result.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() {
		var errs []error

		if c.background != nil {
			c.background.Stop()
		}
		if c.publisher != nil {
			if err := c.publisher.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if err := c.agg.Close(); err != nil {
			errs = append(errs, err)
		}

		if len(errs) > 0 {
			c.closeErr = errors.Join(errs...)
		}
	})
	return c.closeErr
}
