package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_terminal/internal/config"
	"stock_terminal/internal/feature/marketdata/usecase"
	"stock_terminal/internal/platform/cache"
	infraredis "stock_terminal/internal/platform/redis"
)

// CacheStore is the cache seen by the coordinator plus the maintenance
// operation used by the CLI.
type CacheStore interface {
	usecase.CacheStore
	Purge(ctx context.Context, olderThan time.Duration) (int, error)
}

var (
	_ CacheStore = (*cache.FileStore)(nil)
	_ CacheStore = (*cache.RedisStore)(nil)
)

// NewCacheStore creates the configured cache backend. When the redis backend
// is selected but Redis is unreachable it falls back to the file store so
// the terminal keeps working; the returned client is nil in that case.
func NewCacheStore(ctx context.Context, cfg *config.Config) (CacheStore, *redis.Client, error) {
	if cfg.Cache.Backend == config.CacheRedis {
		rdb, err := infraredis.NewRedisClient(ctx, infraredis.Config{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err == nil {
			return cache.NewRedisStore(rdb, cfg.Cache.Redis.Namespace, cfg.Cache.StaleRetention), rdb, nil
		}
		slog.Warn("Redis unavailable, using the file cache", "dir", cfg.Cache.Dir, "error", err)
	}

	fs, err := cache.NewFileStore(cfg.Cache.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open file cache: %w", err)
	}
	return fs, nil, nil
}
