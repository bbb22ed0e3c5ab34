// Package store provides the durable partitioned key->blob store backing the
// memoizer. Storage faults never surface as caller-visible errors: unreadable
// or corrupt entries are indistinguishable from misses, and the memoizer
// swallows write failures.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/contra-app/fetchcache/config"
)

// Store is a durable key->blob store organized by partition, one partition
// per logical data source. Identical keys in different partitions never
// collide.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use; the last
//     completed write for a key determines the stored value.
//   - Get never returns an error; a corrupt, truncated or expired entry is a
//     miss. When ttl is positive, an entry whose age is >= ttl is absent.
//   - Put raises only on unrecoverable I/O errors; the caller is expected to
//     swallow them, persistence is best-effort.
type Store interface {
	Get(ctx context.Context, partition, key string, ttl time.Duration) ([]byte, bool)
	Put(ctx context.Context, partition, key string, data []byte, ttl time.Duration) error

	// Clear removes all entries in one partition, or across the whole store
	// when partition is empty. Returns the number of entries removed; an
	// absent partition counts as zero, not an error.
	Clear(partition string) (int, error)

	Close() error
}

// New builds the store selected by cfg.Store.Backend.
func New(cfg *config.Cache) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendDisk, "":
		return NewDisk(cfg.Store.Dir, cfg.Store.Gzip), nil
	case config.BackendRedis:
		if !cfg.Store.Redis.Enabled() {
			return nil, fmt.Errorf("store: redis backend selected but redis config is missing")
		}
		return NewRedis(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Store.Backend)
	}
}
