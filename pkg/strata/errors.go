package strata

import (
	"github.com/stratacache/strata/internal/types"
)

// CacheError wraps a backend failure with the operation, key, level
// priority, and member index that raised it.
type CacheError = types.CacheError

var (
	// ErrNotFound indicates that a requested key was not found in any level.
	ErrNotFound = types.ErrNotFound
	// ErrNoBackends indicates a level was configured without backends.
	ErrNoBackends = types.ErrNoBackends
	// ErrNegativePriority indicates a level was configured at a negative priority.
	ErrNegativePriority = types.ErrNegativePriority
	// ErrDuplicateBackend indicates the same backend handle was added twice to one level.
	ErrDuplicateBackend = types.ErrDuplicateBackend
	// ErrInvalidKey indicates that a cache key is invalid.
	ErrInvalidKey = types.ErrInvalidKey
	// ErrClosed indicates that the cache has been closed.
	ErrClosed = types.ErrClosed
	// ErrUnavailable indicates that a backend is not reachable.
	ErrUnavailable = types.ErrUnavailable
	// ErrCircuitOpen indicates that the circuit breaker is open.
	ErrCircuitOpen = types.ErrCircuitOpen
	// ErrBulkheadFull indicates that the bulkhead is at capacity.
	ErrBulkheadFull = types.ErrBulkheadFull
	// ErrBulkheadTimeout indicates that the bulkhead acquisition timed out.
	ErrBulkheadTimeout = types.ErrBulkheadTimeout
)

// NewCacheError creates a new cache error with operation, key, level, member, and underlying error.
func NewCacheError(op, key string, level, member int, err error) *CacheError {
	return types.NewCacheError(op, key, level, member, err)
}

// IsNotFound returns true if the error is a cache miss.
func IsNotFound(err error) bool {
	return types.IsNotFound(err)
}

// IsUnavailable returns true if the error indicates a backend is unreachable.
func IsUnavailable(err error) bool {
	return types.IsUnavailable(err)
}

// IsCircuitOpen returns true if the error indicates the circuit breaker is open.
func IsCircuitOpen(err error) bool {
	return types.IsCircuitOpen(err)
}

// IsConfigError returns true if the error is a builder configuration error.
func IsConfigError(err error) bool {
	return types.IsConfigError(err)
}

// IsRetryable returns true if the error can be retried.
func IsRetryable(err error) bool {
	return types.IsRetryable(err)
}
