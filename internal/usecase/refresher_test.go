package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStockStore struct {
	records      map[string]*models.StockRecord
	updateErr    error
	quoteUpdates int
	lastQuote    *models.QuoteResult
}

func newStubStockStore() *stubStockStore {
	return &stubStockStore{records: map[string]*models.StockRecord{
		"AAPL": {
			Symbol:  "AAPL",
			Name:    "Apple Inc.",
			Price:   180.5,
			AIScore: 72,
		},
	}}
}

func (s *stubStockStore) GetBySymbol(_ context.Context, symbol string) (*models.StockRecord, error) {
	rec, ok := s.records[symbol]
	if !ok {
		return nil, drepo.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *stubStockStore) UpdateQuote(_ context.Context, symbol string, q *models.QuoteResult) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.quoteUpdates++
	s.lastQuote = q
	return nil
}

func (s *stubStockStore) UpdatePrice(context.Context, string, float64) error { return nil }

type stubProvider struct {
	quote *models.QuoteResult
	err   error
	calls int
}

func (p *stubProvider) Fetch(context.Context, string) (*models.QuoteResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.quote, nil
}

type stubQuoteCache struct {
	entries map[string]*models.QuoteResult
	sets    int
}

func (c *stubQuoteCache) Get(_ context.Context, symbol string) (*models.QuoteResult, bool) {
	q, ok := c.entries[symbol]
	return q, ok
}

func (c *stubQuoteCache) Set(_ context.Context, symbol string, q *models.QuoteResult) error {
	if c.entries == nil {
		c.entries = map[string]*models.QuoteResult{}
	}
	c.entries[symbol] = q
	c.sets++
	return nil
}

func TestRefreshSuccess(t *testing.T) {
	stocks := newStubStockStore()
	provider := &stubProvider{quote: &models.QuoteResult{
		Price:         185.2,
		Change:        4.7,
		PercentChange: 2.6,
		Volume:        9000000,
	}}
	cache := &stubQuoteCache{}

	r := NewQuoteRefresher(stocks, provider, cache, nil, nil, nil, time.Minute)
	rec, err := r.Refresh(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 185.2, rec.Price)
	assert.Equal(t, 4.7, rec.Change)
	assert.Equal(t, int64(9000000), rec.Volume)
	assert.Equal(t, 1, stocks.quoteUpdates)
	assert.Equal(t, 1, cache.sets)
}

func TestRefreshUnknownSymbol(t *testing.T) {
	r := NewQuoteRefresher(newStubStockStore(), &stubProvider{}, nil, nil, nil, nil, time.Minute)
	_, err := r.Refresh(context.Background(), "ZZZZ")
	require.ErrorIs(t, err, drepo.ErrNotFound)
}

func TestRefreshDegradesToStoredValues(t *testing.T) {
	stocks := newStubStockStore()
	provider := &stubProvider{err: drepo.ErrQuoteUnavailable}
	cache := &stubQuoteCache{}

	r := NewQuoteRefresher(stocks, provider, cache, nil, nil, nil, time.Minute)
	rec, err := r.Refresh(context.Background(), "AAPL")
	require.NoError(t, err)

	// Stored values come back untouched and are written back so the row's
	// update timestamp still moves.
	assert.Equal(t, 180.5, rec.Price)
	require.Equal(t, 1, stocks.quoteUpdates)
	require.NotNil(t, stocks.lastQuote)
	assert.Equal(t, 180.5, stocks.lastQuote.Price)

	// The fallback never enters the cache.
	assert.Equal(t, 0, cache.sets)
}

func TestRefreshUpdateFailureIsNonFatal(t *testing.T) {
	stocks := newStubStockStore()
	stocks.updateErr = errors.New("db down")
	provider := &stubProvider{quote: &models.QuoteResult{Price: 200}}

	r := NewQuoteRefresher(stocks, provider, nil, nil, nil, nil, time.Minute)
	rec, err := r.Refresh(context.Background(), "AAPL")
	require.NoError(t, err)
	// The fetched quote is still served even though persistence failed.
	assert.Equal(t, 200.0, rec.Price)
}

func TestRefreshServesCachedQuote(t *testing.T) {
	stocks := newStubStockStore()
	provider := &stubProvider{quote: &models.QuoteResult{Price: 999}}
	cache := &stubQuoteCache{entries: map[string]*models.QuoteResult{
		"AAPL": {Price: 181.0},
	}}

	r := NewQuoteRefresher(stocks, provider, cache, nil, nil, nil, time.Minute)
	rec, err := r.Refresh(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, 181.0, rec.Price)
	assert.Equal(t, 0, provider.calls)
	// A cache hit is not re-written.
	assert.Equal(t, 0, cache.sets)
}

func TestRefreshTriggersBackgroundForecast(t *testing.T) {
	stocks := newStubStockStore()
	provider := &stubProvider{quote: &models.QuoteResult{Price: 190}}

	store := &stubPredictionStore{}
	log := &stubPredictionLog{rows: logRows(20)}
	f := NewForecaster(store, log, nil, nil, nil, testSettings())

	r := NewQuoteRefresher(stocks, provider, nil, f, nil, nil, time.Minute)
	_, err := r.Refresh(context.Background(), "AAPL")
	require.NoError(t, err)

	r.Wait()
	require.Len(t, store.upserted, 1)
	assert.Equal(t, "AAPL", store.upserted[0].Symbol)
}
