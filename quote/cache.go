package quote

import (
	"context"
	"sync"
	"time"

	"github.com/tbuchner/folio"
)

// Cache memoizes another price source for a fixed TTL. Finalizing a portfolio
// asks for the same code once per holding that carries it; the cache keeps
// that to one upstream call.
type Cache struct {
	src folio.PriceSource
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote   folio.Quote
	fetched time.Time
}

// NewCache wraps src with a TTL cache. A zero or negative ttl caches forever.
func NewCache(src folio.PriceSource, ttl time.Duration) *Cache {
	return &Cache{src: src, ttl: ttl, now: time.Now, entries: make(map[string]cacheEntry)}
}

// Latest serves from the cache when fresh, otherwise asks the wrapped source.
// Errors are not cached: the next call retries.
func (c *Cache) Latest(ctx context.Context, code string) (folio.Quote, error) {
	c.mu.Lock()
	e, ok := c.entries[code]
	c.mu.Unlock()
	if ok && (c.ttl <= 0 || c.now().Sub(e.fetched) < c.ttl) {
		return e.quote, nil
	}

	q, err := c.src.Latest(ctx, code)
	if err != nil {
		return folio.Quote{}, err
	}
	c.mu.Lock()
	c.entries[code] = cacheEntry{quote: q, fetched: c.now()}
	c.mu.Unlock()
	return q, nil
}
