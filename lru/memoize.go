package lru

import (
	"context"

	"github.com/contra-app/fetchcache/internal/key"
)

// Func is the calling convention shared by raw and memoized operations.
type Func[A, R any] func(ctx context.Context, args A) (R, error)

// Memoize decorates fn with in-memory caching in c, keyed by the operation
// name plus a canonical serialization of the arguments. All memoized
// operations share c's single namespace; the name keeps them apart. There is
// no durability and no partitioning, this is the memory-only counterpart of
// the store-backed memoizer.
//
// A nil cache disables memoization and returns fn unchanged. Failures of fn
// propagate unchanged and are never cached.
func Memoize[A, R any](c *Cache[string, any], name string, fn Func[A, R]) Func[A, R] {
	if c == nil {
		return fn
	}
	return func(ctx context.Context, args A) (R, error) {
		k := key.Derive(name, args)
		if !k.Degraded() {
			if v, ok := c.Get(k.Digest()); ok {
				if out, ok := v.(R); ok {
					return out, nil
				}
			}
		}

		res, err := fn(ctx, args)
		if err != nil {
			var zero R
			return zero, err
		}
		c.Set(k.Digest(), res)
		return res, nil
	}
}
