package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.Cache = (*RedisCache)(nil)

// ClientOptions configures the shared Redis client.
type ClientOptions struct {
	URL          string
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisClient parses the URL, applies pool settings and verifies the
// connection. The client is shared by the session store and the cache.
func NewRedisClient(ctx context.Context, opts ClientOptions, log *zap.Logger) (*redis.Client, error) {
	ropts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if opts.PoolSize > 0 {
		ropts.PoolSize = opts.PoolSize
	}
	if opts.DialTimeout > 0 {
		ropts.DialTimeout = opts.DialTimeout
	}
	if opts.ReadTimeout > 0 {
		ropts.ReadTimeout = opts.ReadTimeout
	}
	if opts.WriteTimeout > 0 {
		ropts.WriteTimeout = opts.WriteTimeout
	}

	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Successfully connected to Redis",
		zap.String("addr", ropts.Addr),
		zap.Int("db", ropts.DB),
		zap.Int("pool_size", ropts.PoolSize),
	)
	return client, nil
}

// RedisCache stores entries under a key prefix in a shared client.
type RedisCache struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// NewRedisCache does not take ownership of client; Close leaves it open.
func NewRedisCache(client *redis.Client, prefix string, log *zap.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		log:    log,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, expiration).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}

func (c *RedisCache) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return nil
}
