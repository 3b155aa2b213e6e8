// Package tier implements the tiered cache aggregator: priority-ordered
// levels of backends with racing reads and read promotion.
package tier

import (
	"context"
	"errors"
	"time"

	"github.com/stratacache/strata/internal/types"
)

// level groups one or more backends under a single priority. Members are
// visited in insertion order for every operation except the racing single-key
// read. A level is immutable once the aggregator is built.
type level struct {
	priority int
	members  []types.Backend

	metrics types.MetricsRecorder
}

// probe is one racing member's answer.
type probe struct {
	value  []byte
	err    error
	member int
}

// get returns the value for key, racing members when there is more than one.
// The first member to answer with a non-empty value wins and the remaining
// probes are cancelled. Member errors are treated as misses for the purposes
// of the race; the level itself fails only when every member errored, in
// which case the last error is surfaced.
func (l *level) get(ctx context.Context, key string) ([]byte, error) {
	if len(l.members) == 1 {
		return l.getDirect(ctx, key)
	}

	start := time.Now()
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan probe, len(l.members))
	for i, b := range l.members {
		go func(i int, b types.Backend) {
			v, err := b.Get(raceCtx, key)
			// Cooperative cancellation check: a probe that lost the race
			// discards its result instead of publishing.
			select {
			case results <- probe{value: v, err: err, member: i}:
			case <-raceCtx.Done():
			}
		}(i, b)
	}

	var lastErr error
	errored := 0
	for range l.members {
		select {
		case p := <-results:
			if p.err == nil && len(p.value) > 0 {
				cancel()
				if l.metrics != nil {
					l.metrics.RecordRaceWin(l.priority, p.member, time.Since(start))
				}
				return p.value, nil
			}
			if p.err != nil && !types.IsNotFound(p.err) {
				errored++
				lastErr = p.err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if errored == len(l.members) {
		return nil, types.NewCacheError("Get", key, l.priority, -1, lastErr)
	}
	return nil, types.ErrNotFound
}

func (l *level) getDirect(ctx context.Context, key string) ([]byte, error) {
	v, err := l.members[0].Get(ctx, key)
	if err != nil {
		if types.IsNotFound(err) {
			return nil, types.ErrNotFound
		}
		return nil, types.NewCacheError("Get", key, l.priority, 0, err)
	}
	if len(v) == 0 {
		return nil, types.ErrNotFound
	}
	return v, nil
}

// getAll queries every member sequentially and merges per key,
// first-seen-wins. Bulk reads are never raced.
func (l *level) getAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	merged := make(map[string][]byte, len(keys))
	for i, b := range l.members {
		res, err := b.GetAll(ctx, keys)
		if err != nil {
			return nil, types.NewCacheError("GetAll", "", l.priority, i, err)
		}
		for k, v := range res {
			if _, seen := merged[k]; !seen && len(v) > 0 {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

// set writes to every member in order; the result ORs the member results.
// The first member error aborts and propagates.
func (l *level) set(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return l.write(ctx, "Set", key, func(b types.Backend) (bool, error) {
		return b.Set(ctx, key, value, opts)
	})
}

func (l *level) add(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return l.write(ctx, "Add", key, func(b types.Backend) (bool, error) {
		return b.Add(ctx, key, value, opts)
	})
}

func (l *level) replace(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return l.write(ctx, "Replace", key, func(b types.Backend) (bool, error) {
		return b.Replace(ctx, key, value, opts)
	})
}

func (l *level) remove(ctx context.Context, key string) (bool, error) {
	return l.write(ctx, "Remove", key, func(b types.Backend) (bool, error) {
		return b.Remove(ctx, key)
	})
}

func (l *level) write(ctx context.Context, op, key string, fn func(types.Backend) (bool, error)) (bool, error) {
	var accepted bool
	for i, b := range l.members {
		ok, err := fn(b)
		if err != nil {
			return accepted, types.NewCacheError(op, key, l.priority, i, err)
		}
		accepted = accepted || ok
	}
	return accepted, nil
}

func (l *level) setAll(ctx context.Context, items map[string][]byte, opts *types.SetOptions) error {
	for i, b := range l.members {
		if err := b.SetAll(ctx, items, opts); err != nil {
			return types.NewCacheError("SetAll", "", l.priority, i, err)
		}
	}
	return nil
}

func (l *level) removeAll(ctx context.Context, keys []string) error {
	for i, b := range l.members {
		if err := b.RemoveAll(ctx, keys); err != nil {
			return types.NewCacheError("RemoveAll", "", l.priority, i, err)
		}
	}
	return nil
}

func (l *level) flushAll(ctx context.Context) error {
	for i, b := range l.members {
		if err := b.FlushAll(ctx); err != nil {
			return types.NewCacheError("FlushAll", "", l.priority, i, err)
		}
	}
	return nil
}

// increment applies the delta to every member in order and returns the last
// member's counter value. Members are expected to converge; this is a policy
// choice, not a consistency guarantee.
func (l *level) increment(ctx context.Context, key string, delta int64) (int64, error) {
	return l.count(ctx, "Increment", key, func(b types.Backend) (int64, error) {
		return b.Increment(ctx, key, delta)
	})
}

func (l *level) decrement(ctx context.Context, key string, delta int64) (int64, error) {
	return l.count(ctx, "Decrement", key, func(b types.Backend) (int64, error) {
		return b.Decrement(ctx, key, delta)
	})
}

func (l *level) count(ctx context.Context, op, key string, fn func(types.Backend) (int64, error)) (int64, error) {
	var last int64
	for i, b := range l.members {
		v, err := fn(b)
		if err != nil {
			return 0, types.NewCacheError(op, key, l.priority, i, err)
		}
		last = v
	}
	return last, nil
}

// close releases every member in insertion order. All failures are collected;
// none are masked.
func (l *level) close() error {
	var errs []error
	for _, b := range l.members {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
