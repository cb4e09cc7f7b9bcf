package zillow

import (
	"sync"
	"time"

	"github.com/homescout/listings-cli/internal/model"
)

// extractCache is a bounded TTL cache for fetched extracts. The clock is
// injected so expiry is testable.
type extractCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type cacheEntry struct {
	extract   model.MarketExtract
	fetchedAt time.Time
}

func newExtractCache(ttl time.Duration, maxEntries int, now func() time.Time) *extractCache {
	if now == nil {
		now = time.Now
	}
	return &extractCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
	}
}

func (c *extractCache) get(zpid string) (model.MarketExtract, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[zpid]
	if !ok {
		return model.MarketExtract{}, false
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		delete(c.entries, zpid)
		return model.MarketExtract{}, false
	}
	return entry.extract, true
}

func (c *extractCache) set(zpid string, extract model.MarketExtract) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// At capacity, evict expired entries first; if still full, drop the
	// oldest entry.
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[zpid]; !exists {
			c.evictLocked()
		}
	}
	c.entries[zpid] = cacheEntry{extract: extract, fetchedAt: c.now()}
}

func (c *extractCache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.fetchedAt.Before(oldest) {
			oldestKey = k
			oldest = e.fetchedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
