package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a shared remote backend for deployments where several processes
// should see each other's fetches. All operations fail soft: if the server is
// unavailable, reads are misses and writes are silently discarded. Entries
// expire server-side, so the ttl supplied to Get is ignored. The backend
// expects a dedicated logical database; Clear("") flushes every key it sees.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(addr, password string, db int) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{rdb: rdb}
}

func (r *Redis) Get(ctx context.Context, partition, key string, _ time.Duration) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, partition+":"+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false
		}
		// connection errors degrade to a miss
		return nil, false
	}
	return val, true
}

func (r *Redis) Put(ctx context.Context, partition, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		// no-expiry entries are kept until Clear
		ttl = 0
	}
	_ = r.rdb.Set(ctx, partition+":"+key, data, ttl).Err()
	return nil
}

func (r *Redis) Clear(partition string) (int, error) {
	ctx := context.Background()

	pattern := "*"
	if partition != "" {
		pattern = partition + ":*"
	}

	count := 0
	iter := r.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if r.rdb.Del(ctx, iter.Val()).Err() == nil {
			count++
		}
	}
	if err := iter.Err(); err != nil {
		return count, err
	}
	return count, nil
}

// Ping checks the server connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
