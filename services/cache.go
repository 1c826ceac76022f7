package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"grorent/scraper"
)

// ResultCache holds the most recent ingest result per agency set, with a
// fixed TTL. A stale read racing a refresh serves the old entry once; that
// window is accepted.
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result   *scraper.IngestResult
	cachedAt time.Time
}

func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// CacheKey derives a stable key from the agency set, order-insensitive.
func CacheKey(agencyIDs []string) string {
	ids := make([]string, len(agencyIDs))
	copy(ids, agencyIDs)
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

func (c *ResultCache) Get(key string) (*scraper.IngestResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.cachedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.result, true
}

func (c *ResultCache) Set(key string, result *scraper.IngestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, cachedAt: time.Now()}
}

// Flush drops every entry. The next read scrapes fresh.
func (c *ResultCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Age reports how old the entry under key is. Zero when absent.
func (c *ResultCache) Age(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return 0
	}
	return time.Since(entry.cachedAt)
}
