package catalog

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Reader is the public, cacheable part of the catalog.
type Reader interface {
	ListProducts(ctx context.Context, offset, limit int) ([]Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(scope string, parts ...string) string
}

// CachedClient serves public catalog reads through Redis. Cache failures
// degrade to a direct call; remote failures are never cached.
type CachedClient struct {
	*Client
	cache         cacheStore
	productsTTL   time.Duration
	categoriesTTL time.Duration
	metrics       *metrics.UpstreamMetrics
	logg          *logger.Logger
}

func NewCachedClient(client *Client, cache cacheStore, cfg config.CatalogConfig, logg *logger.Logger) *CachedClient {
	if logg == nil {
		logg = logger.Nop()
	}
	var m *metrics.UpstreamMetrics
	if client != nil {
		m = client.metrics
	}
	return &CachedClient{
		Client:        client,
		cache:         cache,
		productsTTL:   cfg.ProductsTTL,
		categoriesTTL: cfg.CategoriesTTL,
		metrics:       m,
		logg:          logg,
	}
}

func (c *CachedClient) ListProducts(ctx context.Context, offset, limit int) ([]Product, error) {
	key := c.cache.CacheKey("products", strconv.Itoa(offset), strconv.Itoa(limit))
	return readThrough(ctx, c, "products", key, c.productsTTL, func() ([]Product, error) {
		return c.Client.ListProducts(ctx, offset, limit)
	})
}

func (c *CachedClient) GetProduct(ctx context.Context, id int) (*Product, error) {
	key := c.cache.CacheKey("product", strconv.Itoa(id))
	return readThrough(ctx, c, "product", key, c.productsTTL, func() (*Product, error) {
		return c.Client.GetProduct(ctx, id)
	})
}

func (c *CachedClient) ListCategories(ctx context.Context) ([]Category, error) {
	key := c.cache.CacheKey("categories")
	return readThrough(ctx, c, "categories", key, c.categoriesTTL, func() ([]Category, error) {
		return c.Client.ListCategories(ctx)
	})
}

func readThrough[T any](ctx context.Context, c *CachedClient, scope, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if raw, err := c.cache.Get(ctx, key); err == nil {
		var cached T
		if decodeErr := json.Unmarshal([]byte(raw), &cached); decodeErr == nil {
			c.metrics.IncCache(scope, true)
			return cached, nil
		}
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "catalog.cache.decode_failed")
	} else if !redisclient.IsNil(err) {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "catalog.cache.read_failed")
	}
	c.metrics.IncCache(scope, false)

	value, err := fetch()
	if err != nil {
		return value, err
	}
	if ttl <= 0 {
		return value, nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := c.cache.Set(ctx, key, string(payload), ttl); err != nil {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"cache_key": key, "error": err.Error()}), "catalog.cache.write_failed")
	}
	return value, nil
}
