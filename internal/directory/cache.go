package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pto-tracker/internal/config"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const cacheKeyPrefix = "ldap_user_details_"

// Cache remembers lookups. A nil record with ok=true is a remembered miss.
type Cache interface {
	Get(key string) (record *Record, ok bool)
	Set(key string, record *Record)
}

// LRUCache keeps hits and misses in separate in-process LRUs so that they
// expire on different schedules.
type LRUCache struct {
	hits   *expirable.LRU[string, Record]
	misses *expirable.LRU[string, struct{}]
}

func NewLRUCache(size int, hitTTL, missTTL time.Duration) *LRUCache {
	return &LRUCache{
		hits:   expirable.NewLRU[string, Record](size, nil, hitTTL),
		misses: expirable.NewLRU[string, struct{}](size, nil, missTTL),
	}
}

func (c *LRUCache) Get(key string) (*Record, bool) {
	if r, ok := c.hits.Get(key); ok {
		return &r, true
	}
	if _, ok := c.misses.Get(key); ok {
		return nil, true
	}
	return nil, false
}

func (c *LRUCache) Set(key string, record *Record) {
	if record == nil {
		c.hits.Remove(key)
		c.misses.Add(key, struct{}{})
		return
	}
	c.misses.Remove(key)
	c.hits.Add(key, *record)
}

// RedisCache shares lookups between processes.
type RedisCache struct {
	client  *redis.Client
	hitTTL  time.Duration
	missTTL time.Duration
	timeout time.Duration
	logger  *logrus.Logger
}

func NewRedisCache(client *redis.Client, hitTTL, missTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		hitTTL:  hitTTL,
		missTTL: missTTL,
		timeout: 2 * time.Second,
		logger:  logrus.StandardLogger(),
	}
}

func (c *RedisCache) Get(key string) (*Record, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("directory cache read failed")
		return nil, false
	}
	if raw == "" {
		return nil, true
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		c.logger.WithError(err).Warnf("dropping corrupt cache value for %s", key)
		c.client.Del(ctx, key)
		return nil, false
	}
	return &record, true
}

func (c *RedisCache) Set(key string, record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	value, ttl := "", c.missTTL
	if record != nil {
		b, err := json.Marshal(record)
		if err != nil {
			c.logger.WithError(err).Warn("directory cache encode failed")
			return
		}
		value, ttl = string(b), c.hitTTL
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("directory cache write failed")
	}
}

// NewCache builds a Redis cache when REDIS_URL is set and an in-process LRU
// otherwise.
func NewCache(cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisURL == "" {
		return NewLRUCache(cfg.Size, cfg.HitTTL, cfg.MissTTL), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisCache(client, cfg.HitTTL, cfg.MissTTL), nil
}

// Cached puts a Cache in front of a Directory for FetchUserDetails.
type Cached struct {
	Directory
	cache Cache
}

func NewCached(dir Directory, cache Cache) *Cached {
	return &Cached{Directory: dir, cache: cache}
}

func (c *Cached) FetchUserDetails(email string) (*Record, error) {
	key := cacheKeyPrefix + strings.ToLower(strings.TrimSpace(email))
	if record, ok := c.cache.Get(key); ok {
		return record, nil
	}
	return c.Refresh(email)
}

// Refresh bypasses the cache and stores the fresh answer.
func (c *Cached) Refresh(email string) (*Record, error) {
	record, err := c.Directory.FetchUserDetails(email)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKeyPrefix+strings.ToLower(strings.TrimSpace(email)), record)
	return record, nil
}
