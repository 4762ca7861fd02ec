package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// Client wraps RedLock manager for the run lock + standard Redis for caching
type Client struct {
	lockManager *redlock.RedLock
	cache       *redis.Client
	lockTTL     time.Duration
}

// New creates new Redis client with RedLock support + caching
func New(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Single instance; list more addresses for a real quorum
	redisAddrs := []string{"tcp://" + cfg.Addr()}

	lockManager, err := redlock.NewRedLock(ctx, redisAddrs)
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	logger.Info("redis redlock manager initialized",
		zap.Strings("addresses", redisAddrs),
	)

	cacheClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := cacheClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis cache: %w", err)
	}

	logger.Info("redis cache client initialized",
		zap.String("address", cfg.Addr()),
		zap.Int("db", cfg.DB),
	)

	return &Client{
		lockManager: lockManager,
		cache:       cacheClient,
		lockTTL:     cfg.LockTTL,
	}, nil
}

// RunLock returns the distributed lock guarding scheduled digest runs
func (c *Client) RunLock() *DistributedLock {
	return NewDistributedLock(c.lockManager, RunLockName, c.lockTTL)
}

// Close closes redis connections
func (c *Client) Close() error {
	if c.cache != nil {
		logger.Info("closing redis cache client")
		if err := c.cache.Close(); err != nil {
			return fmt.Errorf("failed to close redis cache: %w", err)
		}
	}
	return nil
}

// Health pings the cache connection
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.cache.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// ============ CACHING METHODS ============

// Get retrieves value from Redis cache
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	return c.cache.Get(ctx, key)
}

// Set stores value in Redis cache with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return c.cache.Set(ctx, key, value, expiration)
}

// Del deletes keys from Redis cache
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return c.cache.Del(ctx, keys...)
}
