// Package fetchcache memoizes expensive origin fetches on a durable,
// partitioned backing store, with an in-process recency cache for hot values.
// The cache is a pure performance optimization: storage faults degrade to
// misses and only the wrapped operation's own failures reach the caller.
package fetchcache

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/contra-app/fetchcache/config"
	"github.com/contra-app/fetchcache/internal/memoizer"
	"github.com/contra-app/fetchcache/internal/store"
	"github.com/contra-app/fetchcache/internal/telemetry"
	"github.com/contra-app/fetchcache/lru"
)

// NoExpiry marks a wrapped operation whose entries never go stale.
const NoExpiry = memoizer.NoExpiry

// Func is the calling convention shared by raw and memoized operations.
type Func[A, R any] func(ctx context.Context, args A) (R, error)

// Registry owns one shared cache configuration: the backing store, the
// memoizer and the memory cache. Construct it once at process start and hand
// it to every adapter; there is no package-global cache state.
type Registry struct {
	cfg    *config.Cache
	logger *slog.Logger

	store   store.Store
	memo    *memoizer.Memoizer
	memory  *lru.Cache[string, any]
	logs    *telemetry.Logs
	metrics *telemetry.Metrics

	cls context.CancelFunc
}

func New(ctx context.Context, cfg *config.Cache, logger *slog.Logger) (*Registry, error) {
	ctx, cancel := context.WithCancel(ctx)

	st, err := store.New(cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	memo := memoizer.New(cfg, st, logger)

	var memory *lru.Cache[string, any]
	if cfg.Enabled && cfg.Memory.Enabled() {
		memory = lru.New[string, any](cfg.Memory.MaxEntries, cfg.Memory.Timeout)
	}

	var usage telemetry.StorageUsage
	if disk, ok := st.(*store.Disk); ok {
		usage = disk
	}
	logs := telemetry.New(ctx, cfg, logger, memo, usage, func() int {
		if memory == nil {
			return 0
		}
		return memory.Len()
	})

	var metrics *telemetry.Metrics
	if cfg.Telemetry.Enabled() {
		metrics = telemetry.NewMetrics(cfg.Telemetry.MetricsNamespace, memo)
	}

	return &Registry{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		memo:    memo,
		memory:  memory,
		logs:    logs,
		metrics: metrics,
		cls:     cancel,
	}, nil
}

// Memoize decorates fn with store-backed memoization under the given
// partition. The name must be unique per logical operation; it is part of
// the derived key, so operations with identical arguments never collide.
// A ttl of zero inherits the configured default; NoExpiry disables aging.
func Memoize[A, R any](r *Registry, name string, ttl time.Duration, partition string, fn Func[A, R]) Func[A, R] {
	return Func[A, R](memoizer.Wrap(r.memo, name, ttl, partition, memoizer.Func[A, R](fn)))
}

// MemoizeMemory decorates fn with the shared in-process recency cache,
// for values cheap enough to recompute that disk persistence is waste.
// When caching is disabled the raw function comes back unchanged.
func MemoizeMemory[A, R any](r *Registry, name string, fn Func[A, R]) Func[A, R] {
	return Func[A, R](lru.Memoize(r.memory, name, lru.Func[A, R](fn)))
}

// GetRaw reads an opaque blob straight from the backing store, for adapters
// caching non-JSON payloads such as rendered images. Disabled caching is an
// unconditional miss.
func (r *Registry) GetRaw(ctx context.Context, partition, key string, ttl time.Duration) ([]byte, bool) {
	if !r.cfg.Enabled {
		return nil, false
	}
	return r.store.Get(ctx, partition, key, ttl)
}

// PutRaw persists an opaque blob. Best-effort like every other write: callers
// treat a failure the same way the memoizer does, log and move on.
func (r *Registry) PutRaw(ctx context.Context, partition, key string, data []byte, ttl time.Duration) error {
	if !r.cfg.Enabled {
		return nil
	}
	return r.store.Put(ctx, partition, key, data, ttl)
}

// Memory exposes the shared recency cache; nil when caching is disabled.
func (r *Registry) Memory() *lru.Cache[string, any] {
	return r.memory
}

// Clear deletes all entries in one partition and returns how many were
// removed. An absent partition removes nothing.
func (r *Registry) Clear(partition string) (int, error) {
	return r.store.Clear(partition)
}

// ClearAll deletes every entry across the whole store and empties the
// memory cache.
func (r *Registry) ClearAll() (int, error) {
	if r.memory != nil {
		r.memory.Clear()
	}
	return r.store.Clear("")
}

// Sweep removes store entries older than maxAge. Only the disk backend keeps
// aged entries around (the redis backend expires server-side), so Sweep is a
// no-op elsewhere.
func (r *Registry) Sweep(maxAge time.Duration) (int, error) {
	if disk, ok := r.store.(*store.Disk); ok {
		return disk.Sweep(maxAge)
	}
	return 0, nil
}

// Metrics returns cumulative memoizer counters.
func (r *Registry) Metrics() (hits, misses, bypasses, degradedKeys, writeErrors int64) {
	return r.memo.Metrics()
}

// MetricsHandler serves prometheus metrics; nil when telemetry is disabled.
func (r *Registry) MetricsHandler() http.Handler {
	if r.metrics == nil {
		return nil
	}
	return r.metrics.Handler()
}

func (r *Registry) Close() error {
	r.cls()
	return r.store.Close()
}
