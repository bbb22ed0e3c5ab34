// Package memoizer wraps fallible fetch operations so repeat calls with
// identical arguments are served from the backing store instead of the
// origin. The cache is a pure performance optimization: only the wrapped
// operation's own failures are ever visible to the caller.
package memoizer

import (
	"context"
	"log/slog"
	"time"

	"github.com/contra-app/fetchcache/config"
	"github.com/contra-app/fetchcache/internal/codec"
	"github.com/contra-app/fetchcache/internal/key"
	"github.com/contra-app/fetchcache/internal/store"
	"golang.org/x/sync/singleflight"
)

// NoExpiry marks a wrapped operation whose entries never go stale.
const NoExpiry time.Duration = -1

// Func is the calling convention shared by raw and memoized operations.
type Func[A, R any] func(ctx context.Context, args A) (R, error)

type Memoizer struct {
	enabled    bool
	coalescing bool
	defaultTTL time.Duration
	store      store.Store
	logger     *slog.Logger
	counters   *counters
	group      singleflight.Group
}

func New(cfg *config.Cache, st store.Store, logger *slog.Logger) *Memoizer {
	return &Memoizer{
		enabled:    cfg.Enabled,
		coalescing: cfg.Coalescing,
		defaultTTL: cfg.TTL,
		store:      st,
		logger:     logger,
		counters:   newCounters(),
	}
}

// Metrics returns cumulative counters since construction.
func (m *Memoizer) Metrics() (hits, misses, bypasses, degradedKeys, writeErrors int64) {
	return m.counters.snapshot()
}

// Wrap decorates fn with store-backed memoization under the given partition.
// The operation name must be unique per logical operation; it is part of the
// derived key, so two operations with identical arguments never collide.
//
// A ttl of zero inherits the configured default; NoExpiry disables aging.
// If fn fails, the failure propagates unchanged and nothing is stored.
func Wrap[A, R any](m *Memoizer, name string, ttl time.Duration, partition string, fn Func[A, R]) Func[A, R] {
	return func(ctx context.Context, args A) (R, error) {
		if !m.enabled {
			m.counters.bypasses.Add(1)
			return fn(ctx, args)
		}

		k := key.Derive(name, args)
		effTTL := ttl
		if effTTL == 0 {
			effTTL = m.defaultTTL
		}

		if k.Degraded() {
			// unconditional miss: never read under a time-bucket key
			m.counters.degradedKeys.Add(1)
		} else if data, ok := m.store.Get(ctx, partition, k.Digest(), effTTL); ok {
			var out R
			if err := codec.Default.Unmarshal(data, &out); err == nil {
				m.counters.hits.Add(1)
				return out, nil
			}
			// undecodable entry is a miss, same as a truncated file
		}
		m.counters.misses.Add(1)

		if m.coalescing && !k.Degraded() {
			v, err, _ := m.group.Do(partition+"/"+k.Digest(), func() (any, error) {
				return fetchAndStore(m, ctx, name, partition, k, effTTL, args, fn)
			})
			if err != nil {
				var zero R
				return zero, err
			}
			return v.(R), nil
		}

		return fetchAndStore(m, ctx, name, partition, k, effTTL, args, fn)
	}
}

func fetchAndStore[A, R any](
	m *Memoizer,
	ctx context.Context,
	name, partition string,
	k key.Key,
	ttl time.Duration,
	args A,
	fn Func[A, R],
) (R, error) {
	res, err := fn(ctx, args)
	if err != nil {
		var zero R
		return zero, err
	}

	blob, err := codec.Default.Marshal(res)
	if err != nil {
		m.logger.Warn("cache entry not serializable",
			"op", name,
			"partition", partition,
			"error", err,
		)
		m.counters.writeErrors.Add(1)
		return res, nil
	}

	if err = m.store.Put(ctx, partition, k.Digest(), blob, ttl); err != nil {
		m.logger.Warn("cache write failed",
			"op", name,
			"partition", partition,
			"error", err,
		)
		m.counters.writeErrors.Add(1)
	}
	return res, nil
}
