// internal/cache/redis.go
//
// Redis client for the gateway.
//
// Context
// -------
// REDIS_URL backs the response cache, the default Celery broker, and the
// health probe.  `Open()` parses the URL with go-redis (redis://, rediss://,
// and unix:// are all understood), applies REDIS_POOL_SIZE and fixed
// timeouts, and pings once so bootstrap fails fast on a bad host or
// password.
//
// Notes
// -----
// • go-redis always hands back decoded strings for string replies, so
//   REDIS_DECODE_RESPONSES needs no client option; it is logged only.
// • Oxford commas, two spaces after periods.

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/yanizio/research-gateway/internal/config"
)

// Options converts the Redis section into client options.
func Options(cfg config.Redis) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cache: parse REDIS_URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second
	return opts, nil
}

// Open returns a pinged client.  The client is closed when the ping fails.
func Open(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", opts.Addr, err)
	}

	zap.S().Infow("redis online",
		"addr", opts.Addr,
		"db", opts.DB,
		"pool_size", opts.PoolSize,
		"decode_responses", cfg.DecodeResponses,
	)
	return rdb, nil
}
