package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration
type Config struct {
	IPLimitPerMin       int           // all routes, per client IP
	AnalysisLimitPerMin int           // text analysis and scoring routes, per client IP
	CleanupInterval     time.Duration // how often idle fallback limiters are dropped
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:       120,
		AnalysisLimitPerMin: 30,
		CleanupInterval:     10 * time.Minute,
	}
}

// Rate is a request budget over a period
type Rate struct {
	Limit  int
	Period time.Duration
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Metrics is the subset of monitoring.Metrics the limiter reports to
type Metrics interface {
	IncrementRateLimitIPBlock()
	IncrementRateLimitRedisError()
	IncrementRateLimitFallback()
}

type fallbackEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides distributed rate limiting with Redis and an in-memory
// token bucket fallback used whenever Redis is absent or failing.
type RateLimiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config
	metrics      Metrics

	fallbackLimiters map[string]*fallbackEntry
	fallbackMutex    sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a new rate limiter. Call Close to stop its cleanup loop.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics Metrics) *RateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &RateLimiter{
		redisClient:      redisClient,
		config:           config,
		metrics:          metrics,
		fallbackLimiters: make(map[string]*fallbackEntry),
		stop:             make(chan struct{}),
	}

	if redisClient != nil && redisClient.IsEnabled() {
		rl.redisLimiter = redis_rate.NewLimiter(redisClient.GetClient())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Warn("Redis unavailable, using in-memory rate limiting only")
	}

	go rl.cleanupFallbackLimiters()

	return rl
}

// AllowIP checks the general per-minute budget of a client IP
func (rl *RateLimiter) AllowIP(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, "ratelimit:ip:"+ip, Rate{Limit: rl.config.IPLimitPerMin, Period: time.Minute})
}

// AllowAnalysis checks the stricter budget for text analysis and scoring
func (rl *RateLimiter) AllowAnalysis(ctx context.Context, ip string) (*Result, error) {
	return rl.Allow(ctx, "ratelimit:analysis:"+ip, Rate{Limit: rl.config.AnalysisLimitPerMin, Period: time.Minute})
}

// Allow consumes one request from key's budget, trying Redis first
func (rl *RateLimiter) Allow(ctx context.Context, key string, r Rate) (*Result, error) {
	if r.Limit <= 0 || r.Period <= 0 {
		return nil, fmt.Errorf("invalid rate %d/%s", r.Limit, r.Period)
	}

	if rl.redisLimiter != nil && rl.redisClient.IsEnabled() {
		result, err := rl.allowRedis(ctx, key, r)
		if err == nil {
			return result, nil
		}
		slog.Warn("Redis rate limit check failed, using fallback", "key", key, "error", err)
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisError()
		}
	} else if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}

	return rl.allowFallback(key, r), nil
}

func (rl *RateLimiter) allowRedis(ctx context.Context, key string, r Rate) (*Result, error) {
	res, err := rl.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   r.Limit,
		Burst:  r.Limit,
		Period: r.Period,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		ResetAt:    time.Now().Add(res.ResetAfter),
		RetryAfter: res.RetryAfter,
	}, nil
}

// allowFallback uses a token bucket refilling limit tokens per period with a
// burst of limit.
func (rl *RateLimiter) allowFallback(key string, r Rate) *Result {
	now := time.Now()

	rl.fallbackMutex.Lock()
	entry, exists := rl.fallbackLimiters[key]
	if !exists {
		every := r.Period / time.Duration(r.Limit)
		entry = &fallbackEntry{limiter: rate.NewLimiter(rate.Every(every), r.Limit)}
		rl.fallbackLimiters[key] = entry
	}
	entry.lastSeen = now
	rl.fallbackMutex.Unlock()

	allowed := entry.limiter.AllowN(now, 1)
	remaining := int(entry.limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     r.Limit,
		Remaining: remaining,
		ResetAt:   now.Add(r.Period),
	}
	if !allowed {
		result.RetryAfter = r.Period / time.Duration(r.Limit)
	}
	return result
}

func (rl *RateLimiter) cleanupFallbackLimiters() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.pruneIdle(time.Now().Add(-rl.config.CleanupInterval))
		}
	}
}

// pruneIdle drops fallback limiters not used since cutoff
func (rl *RateLimiter) pruneIdle(cutoff time.Time) int {
	rl.fallbackMutex.Lock()
	defer rl.fallbackMutex.Unlock()

	removed := 0
	for key, entry := range rl.fallbackLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.fallbackLimiters, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Pruned idle fallback rate limiters", "removed", removed)
	}
	return removed
}

// Close stops the cleanup loop
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.fallbackMutex.Lock()
	fallbackCount := len(rl.fallbackLimiters)
	rl.fallbackMutex.Unlock()

	enabled := rl.redisClient != nil && rl.redisClient.IsEnabled()
	stats := map[string]interface{}{
		"redis_enabled":     enabled,
		"fallback_limiters": fallbackCount,
		"ip_limit_per_min":  rl.config.IPLimitPerMin,
		"analysis_per_min":  rl.config.AnalysisLimitPerMin,
	}
	if enabled {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
	}
	return stats
}
