// internal/common/sidecar/cache.go
package sidecar

import (
	"context"
	"errors"
	"time"

	"fourget-bridge/internal/common/database"
	"fourget-bridge/internal/common/logger"
	"fourget-bridge/internal/common/metrics"
)

const filtersKeyPrefix = "fourget:filters:"

// FilterSource is the uncached filters lookup.
type FilterSource interface {
	FetchFilters(ctx context.Context, engine string) (Filters, error)
}

// FilterCache is a Redis read-through cache over a FilterSource. Redis
// failures fall through to the source and source failures degrade to an
// empty set. Empty sets are never stored: filters.php answers [] when the
// scraper fails to load.
type FilterCache struct {
	source FilterSource
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

// NewFilterCache builds a cache. A nil redis client disables caching.
func NewFilterCache(source FilterSource, redis *database.RedisClient, ttl time.Duration, log logger.Logger) *FilterCache {
	return &FilterCache{
		source: source,
		redis:  redis,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "filter-cache"}),
	}
}

func FiltersKey(engine string) string {
	return filtersKeyPrefix + engine
}

func (c *FilterCache) Get(ctx context.Context, engine string) Filters {
	if c.redis != nil {
		var cached Filters
		err := c.redis.GetJSON(ctx, FiltersKey(engine), &cached)
		switch {
		case err == nil:
			metrics.FilterCacheLookups.WithLabelValues("hit").Inc()
			return cached
		case errors.Is(err, database.ErrCacheMiss):
			metrics.FilterCacheLookups.WithLabelValues("miss").Inc()
		default:
			metrics.FilterCacheLookups.WithLabelValues("error").Inc()
			c.logger.Warn("filter cache read failed", map[string]interface{}{
				"engine": engine,
				"error":  err.Error(),
			})
		}
	}

	filters, err := c.source.FetchFilters(ctx, engine)
	if err != nil {
		c.logger.Warn("failed to fetch engine filters", map[string]interface{}{
			"engine": engine,
			"error":  err.Error(),
		})
		return Filters{}
	}

	if c.redis != nil && len(filters) > 0 {
		if err := c.redis.SetJSON(ctx, FiltersKey(engine), filters, c.ttl); err != nil {
			c.logger.Warn("filter cache write failed", map[string]interface{}{
				"engine": engine,
				"error":  err.Error(),
			})
		}
	}
	return filters
}

// Invalidate drops the cached filters of engine.
func (c *FilterCache) Invalidate(ctx context.Context, engine string) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, FiltersKey(engine))
}
