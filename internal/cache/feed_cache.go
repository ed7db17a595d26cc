package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/izerwaren/catalog-importer/internal/models"
)

// feedCacheTTL bounds how long detail responses survive; long enough to cover
// a resumed run, short enough that a fresh run sees fresh data next day.
const feedCacheTTL = 6 * time.Hour

// FeedCache caches per-SKU detail responses from the catalog feed so a resumed
// run does not re-fetch variant schemas and spec sheets for SKUs it has
// already seen. All methods degrade gracefully: a Redis failure reads as a
// cache miss and writes are best-effort.
type FeedCache struct {
	redis *RedisClient
}

// NewFeedCache creates a new FeedCache. A nil RedisClient disables caching.
func NewFeedCache(redis *RedisClient) *FeedCache {
	return &FeedCache{redis: redis}
}

func (c *FeedCache) keySchema(sku string) string {
	return fmt.Sprintf("feed:schema:%s", sku)
}

func (c *FeedCache) keySpecs(sku string) string {
	return fmt.Sprintf("feed:specs:%s", sku)
}

// GetVariantSchema returns a cached schema or (nil, false) on miss.
func (c *FeedCache) GetVariantSchema(ctx context.Context, sku string) (*models.VariantSchema, bool) {
	if c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, c.keySchema(sku))
	if err != nil {
		return nil, false
	}
	var schema models.VariantSchema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return nil, false
	}
	return &schema, true
}

// SetVariantSchema stores a schema; failures are ignored.
func (c *FeedCache) SetVariantSchema(ctx context.Context, sku string, schema *models.VariantSchema) {
	if c.redis == nil || schema == nil {
		return
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, c.keySchema(sku), string(raw), feedCacheTTL)
}

// GetTechnicalAttributes returns cached spec sheets or (nil, false) on miss.
func (c *FeedCache) GetTechnicalAttributes(ctx context.Context, sku string) (map[string][]models.TechAttribute, bool) {
	if c.redis == nil {
		return nil, false
	}
	raw, err := c.redis.Get(ctx, c.keySpecs(sku))
	if err != nil {
		return nil, false
	}
	var specs map[string][]models.TechAttribute
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, false
	}
	return specs, true
}

// SetTechnicalAttributes stores spec sheets; failures are ignored.
func (c *FeedCache) SetTechnicalAttributes(ctx context.Context, sku string, specs map[string][]models.TechAttribute) {
	if c.redis == nil || specs == nil {
		return
	}
	raw, err := json.Marshal(specs)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, c.keySpecs(sku), string(raw), feedCacheTTL)
}

// Invalidate drops cached entries for a SKU, used when the feed flags a
// product as changed.
func (c *FeedCache) Invalidate(ctx context.Context, sku string) {
	if c.redis == nil {
		return
	}
	_ = c.redis.Delete(ctx, c.keySchema(sku), c.keySpecs(sku))
}
