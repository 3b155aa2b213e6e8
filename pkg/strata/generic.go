package strata

import "context"

// Get fetches key from c and returns it as a T, avoiding the
// pointer-to-dest dance of Cache.Get.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var value T
	err := c.Get(ctx, key, &value)
	return value, err
}

// Set writes a typed value to c. Identical to Cache.Set; it exists so
// typed call sites read symmetrically with Get.
func Set[T any](ctx context.Context, c *Cache, key string, value T, opts ...SetOption) (bool, error) {
	return c.Set(ctx, key, value, opts...)
}

// GetOrCreate fetches key as a T, running factory on a miss and caching
// the result. Concurrent calls for the same key share one factory run.
func GetOrCreate[T any](ctx context.Context, c *Cache, key string, factory func() (T, error), opts ...SetOption) (T, error) {
	var value T
	err := c.GetOrCreate(ctx, key, &value, func() (any, error) {
		return factory()
	}, opts...)
	return value, err
}
