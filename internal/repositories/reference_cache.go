package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	categoriesCacheKey = "inventario:categories"
	suppliersCacheKey  = "inventario:suppliers"
)

// ReferenceCache keeps category and supplier listings in redis. A nil
// *ReferenceCache, or one without a client, caches nothing.
type ReferenceCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewReferenceCache creates a cache over client. client may be nil.
func NewReferenceCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *ReferenceCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReferenceCache{client: client, ttl: ttl, log: log}
}

func (c *ReferenceCache) enabled() bool {
	return c != nil && c.client != nil
}

// load decodes the cached value into dst. It reports false on a miss or on any
// cache failure, in which case the caller reads the store.
func (c *ReferenceCache) load(ctx context.Context, key string, dst interface{}) bool {
	if !c.enabled() {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("reference cache entry undecodable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *ReferenceCache) store(ctx context.Context, key string, value interface{}) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *ReferenceCache) invalidate(ctx context.Context, key string) {
	if !c.enabled() {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn("reference cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
