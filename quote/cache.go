package quote

import (
	"context"
	"sync"
	"time"
)

type cachedQuote struct {
	quote   Quote
	fetched time.Time
}

// Cache is a Provider that keeps quotes for a time to live.
// It is safe for concurrent use.
type Cache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedQuote
}

// NewCache wraps a provider with a cache.
func NewCache(p Provider, ttl time.Duration) *Cache {
	return &Cache{
		provider: p,
		ttl:      ttl,
		now:      time.Now,
		cache:    make(map[string]cachedQuote),
	}
}

// Quote returns the cached quote of symbol while it is fresh, otherwise asks the provider.
// Failures are not cached.
func (c *Cache) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = normalize(symbol)

	c.mu.RLock()
	if cq, ok := c.cache[symbol]; ok && c.now().Sub(cq.fetched) < c.ttl {
		c.mu.RUnlock()
		return cq.quote, nil
	}
	c.mu.RUnlock()

	q, err := c.provider.Quote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{quote: q, fetched: c.now()}
	c.mu.Unlock()
	return q, nil
}

// Quotes returns the quotes of several symbols. Symbols that fail are
// reported in the error map.
func Quotes(ctx context.Context, p Provider, symbols []string) (map[string]Quote, map[string]error) {
	quotes := make(map[string]Quote, len(symbols))
	errs := make(map[string]error)
	for _, s := range symbols {
		q, err := p.Quote(ctx, s)
		if err != nil {
			errs[normalize(s)] = err
			continue
		}
		quotes[q.Symbol] = q
	}
	return quotes, errs
}
