// Package backend ships ready-made implementations of the strata backend
// capability set. The aggregator itself never stores anything; these are the
// storage engines callers compose into levels.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/allegro/bigcache/v3"

	"github.com/stratacache/strata/internal/config"
	"github.com/stratacache/strata/internal/types"
)

// Memory is an in-process backend built on BigCache. Entry lifetime is
// governed by the configured life window; per-operation expirations are not
// supported by the engine and are ignored.
//
// Counters are stored as decimal strings so that a level mixing Memory and
// Redis members keeps both on the same wire representation.
type Memory struct {
	cache  *bigcache.BigCache
	config config.MemoryConfig
	logger *slog.Logger

	// Guards check-and-act sequences (Add, Replace, counters) that the
	// engine cannot express atomically.
	mu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
	closed atomic.Bool
}

// NewMemory creates a BigCache-backed backend with the given configuration.
func NewMemory(cfg config.MemoryConfig, logger *slog.Logger) (*Memory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Memory{
		config: cfg,
		logger: logger.With("component", "memory-backend"),
	}

	bcConfig := bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         cfg.DefaultTTL,
		CleanWindow:        cfg.CleanupInterval,
		MaxEntriesInWindow: 1000 * 10 * 60,
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: logger},
	}

	bc, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	m.cache = bc
	return m, nil
}

// Name returns the backend name.
func (m *Memory) Name() string {
	return "memory"
}

// Get retrieves a value, or ErrNotFound on a miss.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if m.closed.Load() {
		return nil, types.ErrClosed
	}

	data, err := m.cache.Get(key)
	if err != nil {
		if err == bigcache.ErrEntryNotFound {
			m.misses.Add(1)
			return nil, types.ErrNotFound
		}
		return nil, err
	}

	m.hits.Add(1)
	return data, nil
}

// GetAll returns the present subset of keys.
func (m *Memory) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	if m.closed.Load() {
		return nil, types.ErrClosed
	}

	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		data, err := m.cache.Get(key)
		if err != nil {
			if err == bigcache.ErrEntryNotFound {
				m.misses.Add(1)
				continue
			}
			return nil, err
		}
		m.hits.Add(1)
		out[key] = data
	}
	return out, nil
}

// Set stores a value unconditionally.
func (m *Memory) Set(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if m.closed.Load() {
		return false, types.ErrClosed
	}

	if err := m.cache.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// Add stores a value only if the key is absent.
func (m *Memory) Add(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if m.closed.Load() {
		return false, types.ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.cache.Get(key); err == nil {
		return false, nil
	} else if err != bigcache.ErrEntryNotFound {
		return false, err
	}

	if err := m.cache.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// Replace stores a value only if the key is already present.
func (m *Memory) Replace(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if m.closed.Load() {
		return false, types.ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.cache.Get(key); err != nil {
		if err == bigcache.ErrEntryNotFound {
			return false, nil
		}
		return false, err
	}

	if err := m.cache.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// SetAll stores every item.
func (m *Memory) SetAll(ctx context.Context, items map[string][]byte, opts *types.SetOptions) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	for key, value := range items {
		if err := m.cache.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes a key and reports whether an entry existed.
func (m *Memory) Remove(ctx context.Context, key string) (bool, error) {
	if m.closed.Load() {
		return false, types.ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.cache.Get(key); err != nil {
		if err == bigcache.ErrEntryNotFound {
			return false, nil
		}
		return false, err
	}

	if err := m.cache.Delete(key); err != nil && err != bigcache.ErrEntryNotFound {
		return false, err
	}
	return true, nil
}

// RemoveAll deletes every key; absent keys are not an error.
func (m *Memory) RemoveAll(ctx context.Context, keys []string) error {
	if m.closed.Load() {
		return types.ErrClosed
	}

	for _, key := range keys {
		if err := m.cache.Delete(key); err != nil && err != bigcache.ErrEntryNotFound {
			return err
		}
	}
	return nil
}

// Increment adds delta to the decimal counter stored at key, creating it at
// zero when absent, and returns the new value.
func (m *Memory) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return m.applyDelta(key, delta)
}

// Decrement subtracts delta from the counter at key.
func (m *Memory) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	return m.applyDelta(key, -delta)
}

func (m *Memory) applyDelta(key string, delta int64) (int64, error) {
	if m.closed.Load() {
		return 0, types.ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if data, err := m.cache.Get(key); err == nil {
		parsed, perr := strconv.ParseInt(string(data), 10, 64)
		if perr != nil {
			return 0, perr
		}
		current = parsed
	} else if err != bigcache.ErrEntryNotFound {
		return 0, err
	}

	current += delta
	if err := m.cache.Set(key, []byte(strconv.FormatInt(current, 10))); err != nil {
		return 0, err
	}
	return current, nil
}

// FlushAll drops every entry.
func (m *Memory) FlushAll(ctx context.Context) error {
	if m.closed.Load() {
		return types.ErrClosed
	}
	return m.cache.Reset()
}

// Close releases the underlying cache. Idempotent.
func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	return m.cache.Close()
}

// Hits returns the hit counter, for health reporting.
func (m *Memory) Hits() int64 { return m.hits.Load() }

// Misses returns the miss counter, for health reporting.
func (m *Memory) Misses() int64 { return m.misses.Load() }

// EntryCount returns the number of live entries.
func (m *Memory) EntryCount() int { return m.cache.Len() }

type bigcacheLogger struct {
	logger *slog.Logger
}

// Printf adapts bigcache's printf-style logger to slog. The directives must
// be interpolated here; slog would read the args as key-value pairs.
func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug("bigcache: " + fmt.Sprintf(format, args...))
}

var _ types.Backend = (*Memory)(nil)
