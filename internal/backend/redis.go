package backend

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stratacache/strata/internal/config"
	"github.com/stratacache/strata/internal/types"
)

const (
	disconnectErrorThreshold = 5

	// While disconnected, one operation per interval is let through as a
	// probe so a recovered server is detected without an external ping.
	reconnectProbeInterval = 5 * time.Second
)

// Redis is a remote backend on go-redis. It tracks connection state from
// observed errors so a dead server degrades to ErrUnavailable instead of a
// timeout per operation, and prefixes every key to keep a shared server
// partitionable.
type Redis struct {
	client *redis.Client
	config config.RedisConfig
	logger *slog.Logger

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	lastProbe     time.Time
	errorCount    atomic.Int64
}

// NewRedis creates a redis backend and pings the server once. A failed ping
// marks the backend unavailable but does not fail construction; the
// connection state recovers as soon as an operation succeeds.
func NewRedis(cfg config.RedisConfig, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	r := &Redis{
		client: redis.NewClient(opts),
		config: cfg,
		logger: logger.With("component", "redis-backend"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logger.Warn("redis initial connection failed", "error", err)
		r.setError(err)
	} else {
		r.connected.Store(true)
		r.logger.Info("redis connected", "address", cfg.Address)
	}

	return r, nil
}

// NewRedisWithClient wraps an existing client, for tests and callers that
// manage their own connection options.
func NewRedisWithClient(client *redis.Client, keyPrefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Redis{
		client: client,
		config: config.RedisConfig{KeyPrefix: keyPrefix},
		logger: logger.With("component", "redis-backend"),
	}
	r.connected.Store(true)
	return r
}

func (r *Redis) Name() string {
	return "redis"
}

// IsAvailable reports the tracked connection state.
func (r *Redis) IsAvailable() bool {
	return r.connected.Load()
}

// available reports whether an operation should be attempted. A connected
// backend always attempts; a disconnected one lets a single probe operation
// through per reconnectProbeInterval, whose success (via clearError) flips
// the backend back to connected.
func (r *Redis) available() bool {
	if r.connected.Load() {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastProbe) < reconnectProbeInterval {
		return false
	}
	r.lastProbe = time.Now()
	return true
}

func (r *Redis) prefixKey(key string) string {
	return r.config.KeyPrefix + key
}

func (r *Redis) expiration(opts *types.SetOptions) time.Duration {
	if d := opts.Expiry(); d > 0 {
		return d
	}
	return r.config.DefaultTTL
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if !r.available() {
		return nil, types.ErrUnavailable
	}

	data, err := r.client.Get(ctx, r.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, types.ErrNotFound
		}
		r.handleError(err)
		return nil, err
	}

	r.clearError()
	return data, nil
}

func (r *Redis) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	if !r.available() {
		return nil, types.ErrUnavailable
	}
	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.prefixKey(key)
	}

	results, err := r.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		r.handleError(err)
		return nil, err
	}

	out := make(map[string][]byte, len(keys))
	for i, result := range results {
		if result == nil {
			continue
		}
		if str, ok := result.(string); ok {
			out[keys[i]] = []byte(str)
		}
	}

	r.clearError()
	return out, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if !r.available() {
		return false, types.ErrUnavailable
	}

	if err := r.client.Set(ctx, r.prefixKey(key), value, r.expiration(opts)).Err(); err != nil {
		r.handleError(err)
		return false, err
	}

	r.clearError()
	return true, nil
}

// Add maps to SET NX: succeeds only when the key was absent.
func (r *Redis) Add(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if !r.available() {
		return false, types.ErrUnavailable
	}

	ok, err := r.client.SetNX(ctx, r.prefixKey(key), value, r.expiration(opts)).Result()
	if err != nil {
		r.handleError(err)
		return false, err
	}

	r.clearError()
	return ok, nil
}

// Replace maps to SET XX: succeeds only when the key already existed.
func (r *Redis) Replace(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	if !r.available() {
		return false, types.ErrUnavailable
	}

	ok, err := r.client.SetXX(ctx, r.prefixKey(key), value, r.expiration(opts)).Result()
	if err != nil {
		r.handleError(err)
		return false, err
	}

	r.clearError()
	return ok, nil
}

func (r *Redis) SetAll(ctx context.Context, items map[string][]byte, opts *types.SetOptions) error {
	if !r.available() {
		return types.ErrUnavailable
	}
	if len(items) == 0 {
		return nil
	}

	ttl := r.expiration(opts)
	pipe := r.client.Pipeline()
	for key, value := range items {
		pipe.Set(ctx, r.prefixKey(key), value, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.handleError(err)
		return err
	}

	r.clearError()
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) (bool, error) {
	if !r.available() {
		return false, types.ErrUnavailable
	}

	removed, err := r.client.Del(ctx, r.prefixKey(key)).Result()
	if err != nil {
		r.handleError(err)
		return false, err
	}

	r.clearError()
	return removed > 0, nil
}

func (r *Redis) RemoveAll(ctx context.Context, keys []string) error {
	if !r.available() {
		return types.ErrUnavailable
	}
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.prefixKey(key)
	}

	if err := r.client.Del(ctx, prefixed...).Err(); err != nil {
		r.handleError(err)
		return err
	}

	r.clearError()
	return nil
}

func (r *Redis) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if !r.available() {
		return 0, types.ErrUnavailable
	}

	v, err := r.client.IncrBy(ctx, r.prefixKey(key), delta).Result()
	if err != nil {
		r.handleError(err)
		return 0, err
	}

	r.clearError()
	return v, nil
}

func (r *Redis) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	if !r.available() {
		return 0, types.ErrUnavailable
	}

	v, err := r.client.DecrBy(ctx, r.prefixKey(key), delta).Result()
	if err != nil {
		r.handleError(err)
		return 0, err
	}

	r.clearError()
	return v, nil
}

// FlushAll deletes every key under the configured prefix with SCAN+DEL, so
// other tenants of a shared server are untouched.
func (r *Redis) FlushAll(ctx context.Context) error {
	if !r.available() {
		return types.ErrUnavailable
	}

	pattern := r.prefixKey("*")
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			r.handleError(err)
			return err
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.handleError(err)
				return err
			}
			deleted += int64(len(keys))
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	r.logger.Debug("flushed keys by prefix", "pattern", pattern, "deleted", deleted)
	r.clearError()
	return nil
}

func (r *Redis) Close() error {
	r.connected.Store(false)
	return r.client.Close()
}

// Ping checks the server directly, bypassing the availability guard, and
// folds the outcome into the tracked state: a successful ping restores a
// backend that tripped the disconnect threshold.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.handleError(err)
		return err
	}
	r.clearError()
	return nil
}

// LastError returns the most recent error and when it occurred.
func (r *Redis) LastError() (error, time.Time) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError, r.lastErrorTime
}

func (r *Redis) handleError(err error) {
	r.mu.Lock()
	r.lastError = err
	r.lastErrorTime = time.Now()
	r.mu.Unlock()

	count := r.errorCount.Add(1)
	if count >= disconnectErrorThreshold {
		if r.connected.CompareAndSwap(true, false) {
			// Start the probe clock so the fast-fail window is a full
			// interval from the moment of disconnection.
			r.mu.Lock()
			r.lastProbe = time.Now()
			r.mu.Unlock()

			r.logger.Warn("redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (r *Redis) clearError() {
	r.errorCount.Store(0)
	if r.connected.CompareAndSwap(false, true) {
		r.logger.Info("redis connection restored")
	}
}

func (r *Redis) setError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastError = err
	r.lastErrorTime = time.Now()
	r.connected.Store(false)
}

var _ types.Backend = (*Redis)(nil)
