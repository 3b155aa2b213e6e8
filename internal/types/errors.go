package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("strata: key not found")
	ErrNoBackends       = errors.New("strata: level requires at least one backend")
	ErrNegativePriority = errors.New("strata: level priority must be non-negative")
	ErrDuplicateBackend = errors.New("strata: backend already present in level")
	ErrInvalidKey       = errors.New("strata: invalid key")
	ErrClosed           = errors.New("strata: cache closed")
	ErrUnavailable      = errors.New("strata: backend unavailable")
	ErrCircuitOpen      = errors.New("strata: circuit breaker open")
	ErrBulkheadFull     = errors.New("strata: bulkhead at capacity")
	ErrBulkheadTimeout  = errors.New("strata: bulkhead timeout")
)

// CacheError wraps a backend failure with enough context to identify which
// member of which level raised it. Member is an insertion-order index within
// the level, or -1 when the operation was not member-specific.
type CacheError struct {
	Op     string
	Key    string
	Level  int
	Member int
	Err    error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("strata %s at level %d member %d [%s]: %v", e.Op, e.Level, e.Member, e.Key, e.Err)
	}
	return fmt.Sprintf("strata %s at level %d member %d: %v", e.Op, e.Level, e.Member, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func NewCacheError(op, key string, level, member int, err error) *CacheError {
	return &CacheError{
		Op:     op,
		Key:    key,
		Level:  level,
		Member: member,
		Err:    err,
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrNoBackends) ||
		errors.Is(err, ErrNegativePriority) ||
		errors.Is(err, ErrDuplicateBackend)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Misses are not retryable - the key doesn't exist
	if IsNotFound(err) {
		return false
	}

	// Circuit open is not retryable - need to wait for recovery
	if IsCircuitOpen(err) {
		return false
	}

	if errors.Is(err, ErrClosed) {
		return false
	}

	if errors.Is(err, ErrInvalidKey) {
		return false
	}

	// Most other errors (network, timeout) are retryable
	return true
}
