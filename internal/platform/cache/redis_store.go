package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStaleRetention is how long past its TTL a record is kept around so it
// can still be served as stale when every provider fails.
const DefaultStaleRetention = 7 * 24 * time.Hour

// RedisStore keeps entries in Redis, for deployments where several processes
// share one cache. Records use the same JSON shape as FileStore.
type RedisStore struct {
	rdb       *redis.Client
	namespace string
	retention time.Duration
	now       func() time.Time
}

// NewRedisStore wraps rdb. If namespace is empty it uses "market". A
// non-positive retention falls back to DefaultStaleRetention.
func NewRedisStore(rdb *redis.Client, namespace string, retention time.Duration) *RedisStore {
	if namespace == "" {
		namespace = "market"
	}
	if retention <= 0 {
		retention = DefaultStaleRetention
	}
	return &RedisStore{
		rdb:       rdb,
		namespace: namespace,
		retention: retention,
		now:       time.Now,
	}
}

// Get reads key. Missing keys, Redis errors and corrupt values are misses;
// corrupt values are deleted.
func (r *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	k := r.redisKey(key)
	b, err := r.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("redis cache read failed", "key", k, "error", err)
		}
		return Entry{}, ErrMiss
	}
	e, err := decodeEntry(b)
	if err != nil {
		slog.Warn("corrupt cache record", "key", k, "error", err)
		// Delete corrupted cache entry
		_ = r.rdb.Del(ctx, k).Err()
		return Entry{}, ErrMiss
	}
	return e, nil
}

// Put stores payload under key. The Redis expiry is ttl plus the stale
// retention, freshness is still judged from fetched_at and ttl.
func (r *RedisStore) Put(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	e := Entry{Key: key, Payload: payload, FetchedAt: r.now().UTC(), TTL: Duration(ttl)}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache record %s: %w", key, err)
	}
	return r.rdb.Set(ctx, r.redisKey(key), b, ttl+r.retention).Err()
}

// IsFresh reports whether e is within its TTL.
func (r *RedisStore) IsFresh(e Entry) bool {
	return e.FreshAt(r.now())
}

// Purge deletes every key in the namespace fetched before now-olderThan, using SCAN.
func (r *RedisStore) Purge(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := r.now().Add(-olderThan)
	removed := 0
	var cursor uint64
	for {
		keys, cur, err := r.rdb.Scan(ctx, cursor, r.namespace+":*", 200).Result()
		if err != nil {
			return removed, err
		}
		for _, k := range keys {
			b, err := r.rdb.Get(ctx, k).Bytes()
			if err != nil {
				continue
			}
			if e, err := decodeEntry(b); err == nil && !e.FetchedAt.Before(cutoff) {
				continue
			}
			if err := r.rdb.Del(ctx, k).Err(); err == nil {
				removed++
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return removed, nil
}

// redisKey generates the namespaced Redis key.
func (r *RedisStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", r.namespace, safe(key))
}
