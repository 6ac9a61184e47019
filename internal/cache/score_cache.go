package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/behaviorlab/inconsistency-meter/internal/analysis"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by ScoreCache.Get when no score is cached
var ErrMiss = errors.New("cache miss")

const scoreKeyPrefix = "score:"

// ScoreCache keeps calculated session scores close to the API so repeated
// GET /sessions/:id/score calls skip the database.
type ScoreCache interface {
	Set(ctx context.Context, result *analysis.SessionScoreResult) error
	Get(ctx context.Context, sessionID string) (*analysis.SessionScoreResult, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// DefaultScoreTTL bounds how long a score stays in redis when no positive
// TTL is configured.
const DefaultScoreTTL = 15 * time.Minute

// NewRedisScoreCache stores scores as JSON under score:<sessionID>. Entries
// always expire: a non-positive ttl falls back to DefaultScoreTTL.
func NewRedisScoreCache(client *redis.Client, ttl time.Duration) ScoreCache {
	if ttl <= 0 {
		ttl = DefaultScoreTTL
	}
	return &redisScoreCache{client: client, ttl: ttl}
}

func (c *redisScoreCache) Set(ctx context.Context, result *analysis.SessionScoreResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, scoreKeyPrefix+result.SessionID, data, c.ttl).Err()
}

func (c *redisScoreCache) Get(ctx context.Context, sessionID string) (*analysis.SessionScoreResult, error) {
	data, err := c.client.Get(ctx, scoreKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var result analysis.SessionScoreResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *redisScoreCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, scoreKeyPrefix+sessionID).Err()
}

type memoryScoreCache struct {
	cache *Cache
}

// NewMemoryScoreCache is the ScoreCache used when Redis is not configured
func NewMemoryScoreCache(c *Cache) ScoreCache {
	return &memoryScoreCache{cache: c}
}

func (c *memoryScoreCache) Set(_ context.Context, result *analysis.SessionScoreResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	c.cache.Set(scoreKeyPrefix+result.SessionID, data)
	return nil
}

func (c *memoryScoreCache) Get(_ context.Context, sessionID string) (*analysis.SessionScoreResult, error) {
	data, ok := c.cache.Get(scoreKeyPrefix + sessionID)
	if !ok {
		return nil, ErrMiss
	}

	var result analysis.SessionScoreResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *memoryScoreCache) Delete(_ context.Context, sessionID string) error {
	c.cache.Delete(scoreKeyPrefix + sessionID)
	return nil
}
