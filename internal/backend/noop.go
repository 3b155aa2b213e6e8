package backend

import (
	"context"

	"github.com/stratacache/strata/internal/types"
)

// Noop is a backend that stores nothing. Every read misses and every write
// reports false. It stands in for a disabled tier so level composition does
// not need conditionals around optional backends.
type Noop struct{}

// NewNoop returns the disabled backend.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Name() string { return "noop" }

func (n *Noop) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, types.ErrNotFound
}

func (n *Noop) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	return make(map[string][]byte), nil
}

func (n *Noop) Set(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return false, nil
}

func (n *Noop) Add(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return false, nil
}

func (n *Noop) Replace(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return false, nil
}

func (n *Noop) SetAll(ctx context.Context, items map[string][]byte, opts *types.SetOptions) error {
	return nil
}

func (n *Noop) Remove(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (n *Noop) RemoveAll(ctx context.Context, keys []string) error {
	return nil
}

func (n *Noop) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return 0, nil
}

func (n *Noop) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	return 0, nil
}

func (n *Noop) FlushAll(ctx context.Context) error { return nil }

func (n *Noop) Close() error { return nil }

var _ types.Backend = (*Noop)(nil)
