package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/primestore/primestore-backend/pkg/logger"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// CategoryCache keeps the distinct category list in Redis with an explicit
// TTL so catalog pages do not hit the database for it on every render.
type CategoryCache struct {
	store  cacheStore
	ttl    time.Duration
	logger *logger.Logger
}

func NewCategoryCache(store cacheStore, ttl time.Duration, logg *logger.Logger) *CategoryCache {
	return &CategoryCache{store: store, ttl: ttl, logger: logg}
}

func (c *CategoryCache) key() string {
	return c.store.CacheKey("catalog", "categories")
}

// Get returns the cached category list, or (nil, false) on miss. Cache
// failures degrade to a miss so the caller falls back to the database.
func (c *CategoryCache) Get(ctx context.Context) ([]string, bool) {
	raw, err := c.store.Get(ctx, c.key())
	if err != nil {
		if c.logger != nil && !errors.Is(err, redis.Nil) {
			c.logger.Warn(ctx, "category cache read failed")
		}
		return nil, false
	}
	var categories []string
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		if c.logger != nil {
			c.logger.Warn(ctx, "category cache entry corrupt")
		}
		return nil, false
	}
	return categories, true
}

// Put stores the category list. Failures are logged, not returned, since a
// cold cache is never fatal.
func (c *CategoryCache) Put(ctx context.Context, categories []string) {
	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, c.key(), raw, c.ttl); err != nil && c.logger != nil {
		c.logger.Warn(ctx, "category cache write failed")
	}
}

// Invalidate drops the cached list. Callers that mutate the catalog use this
// instead of waiting out the TTL.
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	return c.store.Del(ctx, c.key())
}
