// internal/workers/discovery/query-catalog/cache.go
package querycatalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"product-discovery/internal/common/metrics"
	"product-discovery/internal/models"
)

// CachedStore is a read-through redis cache in front of another store.
// Cache failures are logged and the wrapped store answers instead.
type CachedStore struct {
	next   Store
	redis  *redis.Client
	ttl    time.Duration
	logger Logger
}

func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, log Logger) *CachedStore {
	return &CachedStore{next: next, redis: rdb, ttl: ttl, logger: log}
}

func (c *CachedStore) Name() string {
	return c.next.Name()
}

func (c *CachedStore) Products(ctx context.Context, f Filter) ([]models.Match, error) {
	return c.lookup(ctx, "products", f, c.next.Products)
}

func (c *CachedStore) Businesses(ctx context.Context, f Filter) ([]models.Match, error) {
	return c.lookup(ctx, "businesses", f, c.next.Businesses)
}

func (c *CachedStore) buildCacheKey(kind string, f Filter) string {
	raw, _ := json.Marshal(f)
	sum := sha256.Sum256(raw)
	return "discovery:catalog:" + c.next.Name() + ":" + kind + ":" + hex.EncodeToString(sum[:16])
}

func (c *CachedStore) lookup(
	ctx context.Context,
	kind string,
	f Filter,
	load func(context.Context, Filter) ([]models.Match, error),
) ([]models.Match, error) {
	key := c.buildCacheKey(kind, f)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var matches []models.Match
		if jsonErr := json.Unmarshal([]byte(val), &matches); jsonErr == nil {
			metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
			return matches, nil
		}
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("catalog cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	matches, err := load(ctx, f)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(matches)
	if err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	return matches, nil
}
