package repository

import (
	"context"

	"StockCast/internal/domain/models"
)

// StockStore provides row-level access to tracked instruments.
type StockStore interface {
	GetBySymbol(ctx context.Context, symbol string) (*models.StockRecord, error)
	UpdateQuote(ctx context.Context, symbol string, q *models.QuoteResult) error
	UpdatePrice(ctx context.Context, symbol string, price float64) error
}

// PredictionStore holds the single current prediction per symbol.
type PredictionStore interface {
	Upsert(ctx context.Context, rec *models.PredictionRecord) error
	GetBySymbol(ctx context.Context, symbol string) (*models.PredictionRecord, error)
}

// PredictionLog is the append-only historical prediction log.
type PredictionLog interface {
	Append(ctx context.Context, entries []*models.HistoricalPrediction) error
	// LatestBySymbol returns up to limit newest rows, ordered oldest-to-newest.
	LatestBySymbol(ctx context.Context, symbol string, limit int) ([]*models.HistoricalPrediction, error)
}

// QuoteProvider retrieves a live quote for a symbol.
type QuoteProvider interface {
	Fetch(ctx context.Context, symbol string) (*models.QuoteResult, error)
}

// QuoteCache holds recently fetched quotes for a short TTL.
type QuoteCache interface {
	Get(ctx context.Context, symbol string) (*models.QuoteResult, bool)
	Set(ctx context.Context, symbol string, q *models.QuoteResult) error
}

// EventPublisher emits forecast lifecycle events for downstream consumers.
type EventPublisher interface {
	ForecastCompleted(ctx context.Context, symbol string, rec *models.PredictionRecord) error
	Close() error
}

// MarketStream is a live trade tick feed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational measurements.
type Metrics interface {
	RecordQuoteAttempt(symbol string)
	RecordQuoteRotation(symbol string)
	RecordQuoteFailure(symbol string)
	RecordForecastRun(symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
