package tier

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/stratacache/strata/internal/types"
)

// Aggregator composes priority-ordered cache levels behind the single
// backend capability set. Lower priority numbers are "closer" and queried
// first. The structure is immutable after Build; the only mutable state is
// the closed flag, so no locking is needed outside the per-call racing
// machinery in level.get.
type Aggregator struct {
	priorities []int // ascending
	levels     map[int]*level

	logger  *slog.Logger
	metrics types.MetricsRecorder
	closed  atomic.Bool
}

// Priorities returns the configured level priorities in ascending order.
func (a *Aggregator) Priorities() []int {
	out := make([]int, len(a.priorities))
	copy(out, a.priorities)
	return out
}

// MemberCount returns the number of backends at the given priority, or 0 if
// no such level exists.
func (a *Aggregator) MemberCount(priority int) int {
	if l, ok := a.levels[priority]; ok {
		return len(l.members)
	}
	return 0
}

// Get probes levels from closest to farthest and returns the value for key.
// Every level is consulted: when several levels hold the key, the hit from
// the farthest level wins (each non-empty result overwrites the tracked
// value as the scan descends). After a hit, the value is promoted into every
// level strictly closer than where it was found. An aggregator with no
// levels always misses.
func (a *Aggregator) Get(ctx context.Context, key string) ([]byte, error) {
	if a.closed.Load() {
		return nil, types.ErrClosed
	}
	if len(a.priorities) == 0 {
		return nil, types.ErrNotFound
	}

	start := time.Now()
	firstLevel := a.priorities[0]

	var found []byte
	foundAt := firstLevel - 1

	for _, p := range a.priorities {
		v, err := a.levels[p].get(ctx, key)
		if err != nil {
			if types.IsNotFound(err) {
				continue
			}
			if a.metrics != nil {
				a.metrics.RecordError("Get", p, err)
			}
			return nil, err
		}
		found = v
		foundAt = p
	}

	if foundAt < firstLevel {
		if a.metrics != nil {
			a.metrics.RecordMiss(key, time.Since(start))
		}
		return nil, types.ErrNotFound
	}

	a.promote(ctx, key, found, firstLevel, foundAt)

	if a.metrics != nil {
		a.metrics.RecordHit(foundAt, key, time.Since(start))
	}
	return found, nil
}

// promote backfills the found value into every level strictly closer than
// foundAt. Promotion failures are logged and skipped: the read already has
// its answer, and the missed level will be repopulated on a later read.
func (a *Aggregator) promote(ctx context.Context, key string, value []byte, firstLevel, foundAt int) {
	if foundAt <= firstLevel {
		return
	}
	for _, p := range a.priorities {
		if p >= foundAt {
			break
		}
		if _, err := a.levels[p].set(ctx, key, value, nil); err != nil {
			a.logger.Debug("promotion write failed", "key", key, "level", p, "error", err)
			continue
		}
		if a.metrics != nil {
			a.metrics.RecordPromotion(foundAt, p, key)
		}
	}
}

// GetAll queries every level sequentially and merges per key with
// closer-level precedence. No promotion is performed for bulk reads.
func (a *Aggregator) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	if a.closed.Load() {
		return nil, types.ErrClosed
	}

	merged := make(map[string][]byte, len(keys))
	for _, p := range a.priorities {
		res, err := a.levels[p].getAll(ctx, keys)
		if err != nil {
			if a.metrics != nil {
				a.metrics.RecordError("GetAll", p, err)
			}
			return nil, err
		}
		for k, v := range res {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// Set writes key to every level in ascending priority order. The result is
// the OR of the per-level results; the first failing level aborts the walk.
func (a *Aggregator) Set(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return a.writeAll(ctx, "Set", key, len(value), func(l *level) (bool, error) {
		return l.set(ctx, key, value, opts)
	})
}

// Add writes key to every level, succeeding per backend only where the key
// was absent.
func (a *Aggregator) Add(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return a.writeAll(ctx, "Add", key, len(value), func(l *level) (bool, error) {
		return l.add(ctx, key, value, opts)
	})
}

// Replace writes key to every level, succeeding per backend only where the
// key was already present.
func (a *Aggregator) Replace(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return a.writeAll(ctx, "Replace", key, len(value), func(l *level) (bool, error) {
		return l.replace(ctx, key, value, opts)
	})
}

// Remove deletes key from every level; true if any backend held it.
func (a *Aggregator) Remove(ctx context.Context, key string) (bool, error) {
	if a.closed.Load() {
		return false, types.ErrClosed
	}

	start := time.Now()
	var removed bool
	for _, p := range a.priorities {
		ok, err := a.levels[p].remove(ctx, key)
		removed = removed || ok
		if err != nil {
			if a.metrics != nil {
				a.metrics.RecordError("Remove", p, err)
			}
			return removed, err
		}
	}
	if a.metrics != nil {
		a.metrics.RecordRemove(key, time.Since(start))
	}
	return removed, nil
}

func (a *Aggregator) writeAll(ctx context.Context, op, key string, size int, fn func(*level) (bool, error)) (bool, error) {
	if a.closed.Load() {
		return false, types.ErrClosed
	}

	start := time.Now()
	var accepted bool
	for _, p := range a.priorities {
		ok, err := fn(a.levels[p])
		accepted = accepted || ok
		if err != nil {
			if a.metrics != nil {
				a.metrics.RecordError(op, p, err)
			}
			return accepted, err
		}
	}
	if a.metrics != nil {
		a.metrics.RecordSet(key, size, time.Since(start))
	}
	return accepted, nil
}

// SetAll writes the items to every level in ascending priority order.
func (a *Aggregator) SetAll(ctx context.Context, items map[string][]byte, opts *types.SetOptions) error {
	if a.closed.Load() {
		return types.ErrClosed
	}
	for _, p := range a.priorities {
		if err := a.levels[p].setAll(ctx, items, opts); err != nil {
			if a.metrics != nil {
				a.metrics.RecordError("SetAll", p, err)
			}
			return err
		}
	}
	return nil
}

// RemoveAll deletes the keys from every level.
func (a *Aggregator) RemoveAll(ctx context.Context, keys []string) error {
	if a.closed.Load() {
		return types.ErrClosed
	}
	for _, p := range a.priorities {
		if err := a.levels[p].removeAll(ctx, keys); err != nil {
			if a.metrics != nil {
				a.metrics.RecordError("RemoveAll", p, err)
			}
			return err
		}
	}
	return nil
}

// FlushAll empties every level.
func (a *Aggregator) FlushAll(ctx context.Context) error {
	if a.closed.Load() {
		return types.ErrClosed
	}
	for _, p := range a.priorities {
		if err := a.levels[p].flushAll(ctx); err != nil {
			if a.metrics != nil {
				a.metrics.RecordError("FlushAll", p, err)
			}
			return err
		}
	}
	return nil
}

// Increment applies delta at every level and returns the last level's
// counter value. All levels should converge to the same value; the last
// result is a policy choice, not a consistency guarantee.
func (a *Aggregator) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return a.countAll(ctx, "Increment", func(l *level) (int64, error) {
		return l.increment(ctx, key, delta)
	})
}

// Decrement applies delta at every level and returns the last level's
// counter value. Same convergence caveat as Increment.
func (a *Aggregator) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	return a.countAll(ctx, "Decrement", func(l *level) (int64, error) {
		return l.decrement(ctx, key, delta)
	})
}

func (a *Aggregator) countAll(ctx context.Context, op string, fn func(*level) (int64, error)) (int64, error) {
	if a.closed.Load() {
		return 0, types.ErrClosed
	}
	var last int64
	for _, p := range a.priorities {
		v, err := fn(a.levels[p])
		if err != nil {
			if a.metrics != nil {
				a.metrics.RecordError(op, p, err)
			}
			return 0, err
		}
		last = v
	}
	return last, nil
}

// Close releases every level (and each level its members) in ascending
// priority order. Close is idempotent; failures are collected, not masked.
func (a *Aggregator) Close() error {
	if a.closed.Swap(true) {
		return nil
	}

	var errs []error
	for _, p := range a.priorities {
		if err := a.levels[p].close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
