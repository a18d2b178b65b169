package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	applogger "StockCast/pkg/logger"
)

// QuoteRefresher orchestrates a quote refresh: resolve the tracked instrument,
// fetch a live quote, persist it, and trigger a background forecast run. The
// provider and persistence are both degradable; only an unknown symbol fails
// the refresh.
type QuoteRefresher struct {
	stocks     drepo.StockStore
	provider   drepo.QuoteProvider
	cache      drepo.QuoteCache
	forecaster *Forecaster
	metrics    drepo.Metrics
	l          *applogger.Logger

	triggerTimeout time.Duration
	wg             sync.WaitGroup
}

// NewQuoteRefresher creates a new refresh orchestrator.
func NewQuoteRefresher(
	stocks drepo.StockStore,
	provider drepo.QuoteProvider,
	cache drepo.QuoteCache,
	forecaster *Forecaster,
	metrics drepo.Metrics,
	l *applogger.Logger,
	triggerTimeout time.Duration,
) *QuoteRefresher {
	if triggerTimeout == 0 {
		triggerTimeout = 2 * time.Minute
	}
	return &QuoteRefresher{
		stocks:         stocks,
		provider:       provider,
		cache:          cache,
		forecaster:     forecaster,
		metrics:        metrics,
		l:              l,
		triggerTimeout: triggerTimeout,
	}
}

// Refresh returns the freshest available quote for symbol. When the provider
// is exhausted the stored values are served and re-persisted, bumping the
// row's update timestamp; a stale quote beats no quote. ErrNotFound is
// returned only for untracked symbols.
func (r *QuoteRefresher) Refresh(ctx context.Context, symbol string) (*models.QuoteResult, error) {
	stock, err := r.stocks.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	quote, fromCache := r.lookupCached(ctx, symbol)
	degraded := false
	if quote == nil {
		quote, err = r.provider.Fetch(ctx, symbol)
		if err != nil {
			if !errors.Is(err, drepo.ErrQuoteUnavailable) {
				return nil, err
			}
			if r.l != nil {
				r.l.Warn("quote provider exhausted, serving stored values",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			degraded = true
			quote = storedQuote(stock)
		}
	}

	// Stale fallback values never enter the cache.
	if !degraded && !fromCache && r.cache != nil {
		if err := r.cache.Set(ctx, symbol, quote); err != nil && r.l != nil {
			r.l.Warn("quote cache set failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	applyQuote(stock, quote)
	if r.metrics != nil {
		r.metrics.RecordLastPrice(symbol, quote.Price)
	}

	// The retained values are written back too on the degraded path. A
	// failed write downgrades the response to best-effort, it does not
	// fail the refresh.
	if err := r.stocks.UpdateQuote(ctx, symbol, quote); err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("stock_update")
		}
		if r.l != nil {
			r.l.Error("stock quote update failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	r.triggerForecast(stock)
	return quote, nil
}

func storedQuote(stock *models.StockRecord) *models.QuoteResult {
	return &models.QuoteResult{
		Price:         stock.Price,
		Change:        stock.Change,
		PercentChange: stock.PercentChange,
		Volume:        stock.Volume,
		MarketCap:     stock.MarketCap,
	}
}

func (r *QuoteRefresher) lookupCached(ctx context.Context, symbol string) (*models.QuoteResult, bool) {
	if r.cache == nil {
		return nil, false
	}
	q, ok := r.cache.Get(ctx, symbol)
	if !ok {
		return nil, false
	}
	if r.l != nil {
		r.l.Debug("quote cache hit", applogger.String("symbol", symbol))
	}
	return q, true
}

// triggerForecast starts a detached forecast run so the refresh response never
// waits on training. The run gets its own deadline independent of the request
// context; outcomes are logged, never surfaced.
func (r *QuoteRefresher) triggerForecast(stock *models.StockRecord) {
	if r.forecaster == nil {
		return
	}
	symbol, price, score := stock.Symbol, stock.Price, stock.AIScore

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.triggerTimeout)
		defer cancel()

		if _, err := r.forecaster.Run(ctx, symbol, price, score); err != nil {
			if r.l != nil {
				r.l.Warn("background forecast failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return
		}
	}()
}

// Wait blocks until all in-flight background forecast runs finish. Called
// during graceful shutdown.
func (r *QuoteRefresher) Wait() {
	r.wg.Wait()
}

func applyQuote(stock *models.StockRecord, q *models.QuoteResult) {
	stock.Price = q.Price
	stock.Change = q.Change
	stock.PercentChange = q.PercentChange
	stock.Volume = q.Volume
	if q.MarketCap > 0 {
		stock.MarketCap = q.MarketCap
	}
	stock.UpdatedAt = time.Now().UTC()
}
