// Package types provides shared types for the strata cache library.
// This package breaks import cycles between pkg/strata and the internal
// tier, backend, and metrics packages.
package types

import (
	"context"
	"time"
)

type BackendInfo interface {
	Name() string
}

type Getter interface {
	// Get returns the raw value for key, or ErrNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
}

type BulkGetter interface {
	// GetAll returns the subset of keys present in the backend. Missing
	// keys are simply absent from the result, never an error.
	GetAll(ctx context.Context, keys []string) (map[string][]byte, error)
}

type Setter interface {
	// Set stores key unconditionally. The bool reports whether the backend
	// accepted the write.
	Set(ctx context.Context, key string, value []byte, opts *SetOptions) (bool, error)

	// Add stores key only if it is absent.
	Add(ctx context.Context, key string, value []byte, opts *SetOptions) (bool, error)

	// Replace stores key only if it is already present.
	Replace(ctx context.Context, key string, value []byte, opts *SetOptions) (bool, error)
}

type BulkSetter interface {
	SetAll(ctx context.Context, items map[string][]byte, opts *SetOptions) error
}

type Remover interface {
	// Remove deletes key and reports whether an entry was actually removed.
	Remove(ctx context.Context, key string) (bool, error)

	RemoveAll(ctx context.Context, keys []string) error
}

type Counter interface {
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Decrement(ctx context.Context, key string, delta int64) (int64, error)
}

type Flusher interface {
	FlushAll(ctx context.Context) error
}

type Closer interface {
	Close() error
}

// Backend is the full capability set a cache level member must expose.
// Implementations must be safe for concurrent reads of the same key: a
// racing level read may probe a backend from more than one goroutine.
// Handles are compared by interface equality for duplicate detection, so
// implementations should use pointer receivers.
type Backend interface {
	BackendInfo
	Getter
	BulkGetter
	Setter
	BulkSetter
	Remover
	Counter
	Flusher
	Closer
}

type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

// MetricsRecorder receives cache events from the aggregator. A nil recorder
// disables recording; the tier package never requires one.
type MetricsRecorder interface {
	RecordHit(level int, key string, latency time.Duration)
	RecordMiss(key string, latency time.Duration)
	RecordPromotion(fromLevel, toLevel int, key string)
	RecordRaceWin(level, member int, latency time.Duration)
	RecordSet(key string, size int, latency time.Duration)
	RecordRemove(key string, latency time.Duration)
	RecordError(op string, level int, err error)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
