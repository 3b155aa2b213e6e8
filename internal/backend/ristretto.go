package backend

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/stratacache/strata/internal/config"
	"github.com/stratacache/strata/internal/types"
)

// Ristretto is an in-process backend built on ristretto. Unlike the BigCache
// backend it honors per-operation TTLs. Writes call Wait so the admission
// buffer is drained and a freshly written key is immediately readable, which
// the level contract expects of a promotion target.
type Ristretto struct {
	cache      *rc.Cache
	defaultTTL time.Duration

	mu     sync.Mutex
	closed atomic.Bool
}

// NewRistretto creates a ristretto-backed backend with the given configuration.
func NewRistretto(cfg config.RistrettoConfig) (*Ristretto, error) {
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCostMB * 1024 * 1024,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{
		cache:      c,
		defaultTTL: cfg.DefaultTTL,
	}, nil
}

func (r *Ristretto) Name() string {
	return "ristretto"
}

func (r *Ristretto) ttl(opts *types.SetOptions) time.Duration {
	if d := opts.Expiry(); d > 0 {
		return d
	}
	return r.defaultTTL
}

func (r *Ristretto) Get(ctx context.Context, key string) ([]byte, error) {
	if r.closed.Load() {
		return nil, types.ErrClosed
	}

	v, ok := r.cache.Get(key)
	if !ok {
		return nil, types.ErrNotFound
	}
	data, ok := v.([]byte)
	if !ok {
		// Unexpected entry shape; self-heal by dropping it.
		r.cache.Del(key)
		return nil, types.ErrNotFound
	}
	return data, nil
}

func (r *Ristretto) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	if r.closed.Load() {
		return nil, types.ErrClosed
	}

	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if v, ok := r.cache.Get(key); ok {
			if data, ok := v.([]byte); ok {
				out[key] = data
			}
		}
	}
	return out, nil
}

func (r *Ristretto) Set(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if r.closed.Load() {
		return false, types.ErrClosed
	}

	accepted := r.store(key, value, opts)
	return accepted, nil
}

func (r *Ristretto) Add(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if r.closed.Load() {
		return false, types.ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache.Get(key); exists {
		return false, nil
	}
	return r.store(key, value, opts), nil
}

func (r *Ristretto) Replace(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if r.closed.Load() {
		return false, types.ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.cache.Get(key); !exists {
		return false, nil
	}
	return r.store(key, value, opts), nil
}

func (r *Ristretto) store(key string, value []byte, opts *types.SetOptions) bool {
	cost := int64(len(value))
	if cost == 0 {
		cost = 1
	}
	accepted := r.cache.SetWithTTL(key, value, cost, r.ttl(opts))
	r.cache.Wait()
	return accepted
}

func (r *Ristretto) SetAll(ctx context.Context, items map[string][]byte, opts *types.SetOptions) error {
	if r.closed.Load() {
		return types.ErrClosed
	}

	for key, value := range items {
		r.store(key, value, opts)
	}
	return nil
}

func (r *Ristretto) Remove(ctx context.Context, key string) (bool, error) {
	if r.closed.Load() {
		return false, types.ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.cache.Get(key)
	r.cache.Del(key)
	return existed, nil
}

func (r *Ristretto) RemoveAll(ctx context.Context, keys []string) error {
	if r.closed.Load() {
		return types.ErrClosed
	}

	for _, key := range keys {
		r.cache.Del(key)
	}
	return nil
}

func (r *Ristretto) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return r.applyDelta(key, delta)
}

func (r *Ristretto) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	return r.applyDelta(key, -delta)
}

func (r *Ristretto) applyDelta(key string, delta int64) (int64, error) {
	if r.closed.Load() {
		return 0, types.ErrClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var current int64
	if v, ok := r.cache.Get(key); ok {
		data, _ := v.([]byte)
		parsed, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return 0, err
		}
		current = parsed
	}

	current += delta
	r.store(key, []byte(strconv.FormatInt(current, 10)), nil)
	return current, nil
}

func (r *Ristretto) FlushAll(ctx context.Context) error {
	if r.closed.Load() {
		return types.ErrClosed
	}
	r.cache.Clear()
	return nil
}

func (r *Ristretto) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	r.cache.Close()
	return nil
}

var _ types.Backend = (*Ristretto)(nil)
