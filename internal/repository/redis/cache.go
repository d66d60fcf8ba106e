package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ecoguard/ecoguard/internal/config"
	"github.com/ecoguard/ecoguard/internal/domain"
)

// Cache provides Redis caching functionality
type Cache struct {
	client      *redis.Client
	researchTTL time.Duration
}

// Key prefixes for different cache types
const (
	PrefixResearch  = "research:"
	PrefixLatest    = "latest:"
	PrefixRateLimit = "ratelimit:"
)

// Default TTLs
const (
	DefaultResearchTTL = 24 * time.Hour
	LatestTTL          = 1 * time.Hour
	RateLimitWindow    = 1 * time.Minute
)

// New creates a new Redis cache client
func New(cfg config.RedisConfig, researchTTL time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	if researchTTL <= 0 {
		researchTTL = DefaultResearchTTL
	}

	return &Cache{client: client, researchTTL: researchTTL}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Health checks Redis connectivity
func (c *Cache) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client returns the underlying Redis client for advanced operations
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Research block caching

// GetResearch retrieves a cached research block for a company
func (c *Cache) GetResearch(ctx context.Context, companyName string) (string, bool) {
	block, err := c.client.Get(ctx, researchKey(companyName)).Result()
	if err != nil {
		return "", false
	}
	return block, true
}

// SetResearch caches a formatted research block for a company
func (c *Cache) SetResearch(ctx context.Context, companyName, block string) error {
	return c.client.Set(ctx, researchKey(companyName), block, c.researchTTL).Err()
}

func researchKey(companyName string) string {
	return PrefixResearch + strings.ToLower(companyName)
}

// Latest-analysis caching, keyed by user and URL

// SetLatest caches the most recent analysis result for a user and URL
func (c *Cache) SetLatest(ctx context.Context, userID uuid.UUID, url string, result *domain.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey(userID, url), data, LatestTTL).Err()
}

// GetLatest retrieves the cached latest analysis for a user and URL.
// A cache miss returns (nil, nil).
func (c *Cache) GetLatest(ctx context.Context, userID uuid.UUID, url string) (*domain.AnalysisResult, error) {
	data, err := c.client.Get(ctx, latestKey(userID, url)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func latestKey(userID uuid.UUID, url string) string {
	sum := sha256.Sum256([]byte(url))
	return PrefixLatest + userID.String() + ":" + hex.EncodeToString(sum[:8])
}

// Rate limiting

// CheckRateLimit checks and increments rate limit counter
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int) (bool, int, error) {
	fullKey := PrefixRateLimit + key

	pipe := c.client.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, RateLimitWindow)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, 0, err
	}

	count := int(incr.Val())
	return count <= limit, count, nil
}

// Generic caching methods

// Get retrieves a value from cache
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Set stores a value in cache
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value from cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DeletePattern removes all keys matching a pattern
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}

	return nil
}
