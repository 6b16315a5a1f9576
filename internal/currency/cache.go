package currency

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores looked-up rates for a limited time.
type Cache interface {
	// Get returns the cached rate and whether it was present.
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, rate float64, ttl time.Duration) error
}

// CachedProvider wraps a RateProvider with a TTL cache.
// Cache failures are logged and fall through to the wrapped provider.
type CachedProvider struct {
	next   RateProvider
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider creates a caching provider. A nil logger uses slog.Default.
func NewCachedProvider(next RateProvider, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedProvider{next: next, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(from, to string) string {
	return fmt.Sprintf("splitchat:rate:%s:%s", from, to)
}

// Rate implements RateProvider.
func (p *CachedProvider) Rate(ctx context.Context, from, to string) (float64, error) {
	key := cacheKey(from, to)

	rate, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("Rate cache read failed", "key", key, "error", err)
	} else if ok {
		p.logger.Debug("Rate cache hit", "from", from, "to", to, "rate", rate)
		return rate, nil
	}

	rate, err = p.next.Rate(ctx, from, to)
	if err != nil {
		return 0, err
	}

	if err := p.cache.Set(ctx, key, rate, p.ttl); err != nil {
		p.logger.Warn("Rate cache write failed", "key", key, "error", err)
	}
	return rate, nil
}

// RedisCache implements Cache on a Redis client.
type RedisCache struct {
	client redis.Cmdable
}

// NewRedisCache creates a Redis-backed rate cache.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (float64, bool, error) {
	rate, err := c.client.Get(ctx, key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read rate: %w", err)
	}
	return rate, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, rate float64, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, rate, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write rate: %w", err)
	}
	return nil
}

// NewRedisClient parses url and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, url string, timeout time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	opts.DialTimeout = timeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
