package resilience

import (
	"context"

	"github.com/stratacache/strata/internal/types"
)

// Executor is the surface shared by Policy and DisabledPolicy.
type Executor interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (any, error)) (any, error)
}

// guardedBackend routes every backend operation through a resilience policy.
// The wrapped backend keeps its own name so errors and metrics still point at
// the real engine.
type guardedBackend struct {
	inner  types.Backend
	policy Executor
}

// Wrap decorates a backend with circuit breaking, retry and bulkheading. A
// nil policy returns the backend unchanged.
func Wrap(b types.Backend, policy Executor) types.Backend {
	if policy == nil {
		return b
	}
	return &guardedBackend{inner: b, policy: policy}
}

func (g *guardedBackend) Name() string {
	return g.inner.Name()
}

// miss marks a not-found read so the policy records it as a success instead
// of tripping retries or the breaker.
type miss struct{}

func (g *guardedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	res, err := g.policy.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		v, err := g.inner.Get(ctx, key)
		if types.IsNotFound(err) {
			return miss{}, nil
		}
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	if _, ok := res.(miss); ok {
		return nil, types.ErrNotFound
	}
	v, _ := res.([]byte)
	return v, nil
}

func (g *guardedBackend) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	res, err := g.policy.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		return g.inner.GetAll(ctx, keys)
	})
	if err != nil {
		return nil, err
	}
	m, _ := res.(map[string][]byte)
	return m, nil
}

func (g *guardedBackend) Set(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return g.writeWithResult(ctx, func(ctx context.Context) (bool, error) {
		return g.inner.Set(ctx, key, value, opts)
	})
}

func (g *guardedBackend) Add(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return g.writeWithResult(ctx, func(ctx context.Context) (bool, error) {
		return g.inner.Add(ctx, key, value, opts)
	})
}

func (g *guardedBackend) Replace(ctx context.Context, key string, value []byte, opts *types.SetOptions) (bool, error) {
	return g.writeWithResult(ctx, func(ctx context.Context) (bool, error) {
		return g.inner.Replace(ctx, key, value, opts)
	})
}

func (g *guardedBackend) Remove(ctx context.Context, key string) (bool, error) {
	return g.writeWithResult(ctx, func(ctx context.Context) (bool, error) {
		return g.inner.Remove(ctx, key)
	})
}

func (g *guardedBackend) writeWithResult(ctx context.Context, fn func(context.Context) (bool, error)) (bool, error) {
	res, err := g.policy.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		ok, err := fn(ctx)
		if err != nil {
			return false, err
		}
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	ok, _ := res.(bool)
	return ok, nil
}

func (g *guardedBackend) SetAll(ctx context.Context, items map[string][]byte, opts *types.SetOptions) error {
	return g.policy.Execute(ctx, func(ctx context.Context) error {
		return g.inner.SetAll(ctx, items, opts)
	})
}

func (g *guardedBackend) RemoveAll(ctx context.Context, keys []string) error {
	return g.policy.Execute(ctx, func(ctx context.Context) error {
		return g.inner.RemoveAll(ctx, keys)
	})
}

func (g *guardedBackend) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	return g.countWithResult(ctx, func(ctx context.Context) (int64, error) {
		return g.inner.Increment(ctx, key, delta)
	})
}

func (g *guardedBackend) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	return g.countWithResult(ctx, func(ctx context.Context) (int64, error) {
		return g.inner.Decrement(ctx, key, delta)
	})
}

func (g *guardedBackend) countWithResult(ctx context.Context, fn func(context.Context) (int64, error)) (int64, error) {
	res, err := g.policy.ExecuteWithResult(ctx, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return int64(0), err
		}
		return v, nil
	})
	if err != nil {
		return 0, err
	}
	v, _ := res.(int64)
	return v, nil
}

func (g *guardedBackend) FlushAll(ctx context.Context) error {
	return g.policy.Execute(ctx, func(ctx context.Context) error {
		return g.inner.FlushAll(ctx)
	})
}

// Close bypasses the policy: teardown must not be blocked by an open circuit.
func (g *guardedBackend) Close() error {
	return g.inner.Close()
}

var (
	_ types.Backend = (*guardedBackend)(nil)
	_ Executor      = (*Policy)(nil)
	_ Executor      = (*DisabledPolicy)(nil)
)
