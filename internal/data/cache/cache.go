package cache

import (
	"context"
	"sync"
	"time"

	"github.com/songzhibin97/cryptotherapist/internal/data"
	"github.com/songzhibin97/cryptotherapist/internal/models"
)

// DefaultTTL is how long a passive batch stays fresh.
const DefaultTTL = 5 * time.Minute

type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

type entry struct {
	items     []models.NewsItem
	fetchedAt time.Time
}

// NewsCache holds one batch of headlines. The entry is only ever replaced whole.
type NewsCache struct {
	collector data.NewsCollector
	ttl       time.Duration
	now       func() time.Time
	logger    Logger

	mu    sync.Mutex
	entry *entry

	// refreshMu lets a single passive caller refill an expired entry at a time.
	refreshMu sync.Mutex
}

func NewNewsCache(collector data.NewsCollector, ttl time.Duration, logger Logger) *NewsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &NewsCache{
		collector: collector,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source.
func (c *NewsCache) WithClock(now func() time.Time) *NewsCache {
	c.now = now
	return c
}

// Get never fails. A forced read always fetches and leaves the passive entry untouched,
// so it yields an empty batch when every source is down. A passive read serves the entry
// while it is younger than the TTL, otherwise refetches and falls back to the stale entry.
func (c *NewsCache) Get(ctx context.Context, forceFresh bool) []models.NewsItem {
	if forceFresh {
		items, err := c.collector.Collect(ctx)
		if err != nil {
			c.logger.Warn("forced news fetch degraded", "error", err)
			return []models.NewsItem{}
		}
		return items
	}

	if e := c.fresh(); e != nil {
		return e.items
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refilled the entry while we waited.
	if e := c.fresh(); e != nil {
		return e.items
	}

	items, err := c.collector.Collect(ctx)
	if err != nil {
		stale := c.load()
		if stale == nil {
			c.logger.Warn("news fetch degraded, nothing cached", "error", err)
			return []models.NewsItem{}
		}
		c.logger.Warn("news fetch degraded, serving stale batch", "error", err, "age", c.now().Sub(stale.fetchedAt))
		return stale.items
	}

	c.store(&entry{items: items, fetchedAt: c.now()})
	c.logger.Info("news cache refreshed", "items", len(items))
	return items
}

func (c *NewsCache) fresh() *entry {
	e := c.load()
	if e == nil || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil
	}
	return e
}

func (c *NewsCache) load() *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry
}

func (c *NewsCache) store(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = e
}
