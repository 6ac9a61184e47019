package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the shared Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisClient wraps the Redis client with health checks and graceful
// degradation. A disabled client is valid and makes callers use their
// in-memory paths.
type RedisClient struct {
	client  *redis.Client
	enabled bool
	addr    string
}

// DisabledRedisClient returns a client that reports Redis as unavailable
func DisabledRedisClient() *RedisClient {
	return &RedisClient{enabled: false}
}

// NewRedisClient connects and pings Redis. On failure it returns a disabled
// client together with the error so callers can log and carry on.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*RedisClient, error) {
	if opts.Addr == "" {
		slog.Warn("Redis address not configured, using in-memory rate limiting and caching")
		return DisabledRedisClient(), nil
	}

	slog.Info("Initializing Redis client", "addr", opts.Addr, "db", opts.DB)

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return &RedisClient{enabled: false, addr: opts.Addr}, fmt.Errorf("redis ping failed: %w", err)
	}

	slog.Info("Redis client connected", "addr", opts.Addr)

	return &RedisClient{
		client:  client,
		enabled: true,
		addr:    opts.Addr,
	}, nil
}

// GetClient returns the underlying Redis client, nil when disabled
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

func (r *RedisClient) IsEnabled() bool {
	return r != nil && r.enabled
}

// HealthCheck pings Redis
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if !r.IsEnabled() {
		return fmt.Errorf("redis is disabled")
	}
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	if r.IsEnabled() && r.client != nil {
		slog.Info("Closing Redis client connection")
		return r.client.Close()
	}
	return nil
}

// GetPoolStats returns Redis connection pool statistics
func (r *RedisClient) GetPoolStats() map[string]interface{} {
	if !r.IsEnabled() || r.client == nil {
		return map[string]interface{}{"enabled": false}
	}

	stats := r.client.PoolStats()
	return map[string]interface{}{
		"enabled":     true,
		"addr":        r.addr,
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"stale_conns": stats.StaleConns,
	}
}
