package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgcache "StockCast/pkg/cache"
)

// CachedQuotes implements QuoteCache over a cache.Service backend. A short TTL
// absorbs bursts of refresh requests for the same symbol without consuming
// provider credits.
type CachedQuotes struct {
	svc pkgcache.Service
	ttl time.Duration
}

func NewCachedQuotes(svc pkgcache.Service, ttl time.Duration) *CachedQuotes {
	if ttl == 0 {
		ttl = 15 * time.Second
	}
	return &CachedQuotes{svc: svc, ttl: ttl}
}

var _ domrepo.QuoteCache = (*CachedQuotes)(nil)

func quoteKey(symbol string) string { return "quote:" + symbol }

// Get returns the cached quote and whether it was present. Backend errors are
// treated as misses; the caller falls through to the provider.
func (c *CachedQuotes) Get(ctx context.Context, symbol string) (*models.QuoteResult, bool) {
	var q models.QuoteResult
	if err := c.svc.Get(ctx, quoteKey(symbol), &q); err != nil {
		return nil, false
	}
	return &q, true
}

// Set stores the quote for the configured TTL.
func (c *CachedQuotes) Set(ctx context.Context, symbol string, q *models.QuoteResult) error {
	return c.svc.Set(ctx, quoteKey(symbol), q, c.ttl)
}
