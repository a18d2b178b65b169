package repository

import (
	"context"
	"fmt"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/postgres"
)

// PGStockStore implements StockStore backed by Postgres.
type PGStockStore struct {
	pool *postgres.Pool
}

func NewPGStockStore(pool *postgres.Pool) *PGStockStore {
	return &PGStockStore{pool: pool}
}

// StockSchema returns the idempotent DDL for the stocks table.
func StockSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS stocks (
			symbol         TEXT PRIMARY KEY,
			name           TEXT NOT NULL DEFAULT '',
			price          DOUBLE PRECISION NOT NULL DEFAULT 0,
			change         DOUBLE PRECISION NOT NULL DEFAULT 0,
			percent_change DOUBLE PRECISION NOT NULL DEFAULT 0,
			volume         BIGINT NOT NULL DEFAULT 0,
			market_cap     DOUBLE PRECISION NOT NULL DEFAULT 0,
			ai_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
}

// GetBySymbol returns the tracked instrument row, or ErrNotFound when the
// symbol is not tracked.
func (s *PGStockStore) GetBySymbol(ctx context.Context, symbol string) (*models.StockRecord, error) {
	const q = `
		SELECT symbol, name, price, change, percent_change, volume, market_cap, ai_score, updated_at
		FROM stocks
		WHERE symbol = $1
	`
	var rec models.StockRecord
	err := s.pool.QueryRow(ctx, q, symbol).Scan(
		&rec.Symbol, &rec.Name, &rec.Price, &rec.Change, &rec.PercentChange,
		&rec.Volume, &rec.MarketCap, &rec.AIScore, &rec.UpdatedAt,
	)
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, fmt.Errorf("%w: stock %s", domrepo.ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("get stock %s: %w", symbol, err)
	}
	return &rec, nil
}

// UpdateQuote overwrites the quote fields of an existing row.
func (s *PGStockStore) UpdateQuote(ctx context.Context, symbol string, q *models.QuoteResult) error {
	const stmt = `
		UPDATE stocks
		SET price = $2, change = $3, percent_change = $4, volume = $5,
		    market_cap = CASE WHEN $6 > 0 THEN $6 ELSE market_cap END,
		    updated_at = $7
		WHERE symbol = $1
	`
	tag, err := s.pool.Exec(ctx, stmt,
		symbol, q.Price, q.Change, q.PercentChange, q.Volume, q.MarketCap, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: update quote %s: %w", domrepo.ErrPersistence, symbol, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stock %s", domrepo.ErrNotFound, symbol)
	}
	return nil
}

// UpdatePrice overwrites only the price, used by the live tick stream.
func (s *PGStockStore) UpdatePrice(ctx context.Context, symbol string, price float64) error {
	const stmt = `UPDATE stocks SET price = $2, updated_at = $3 WHERE symbol = $1`
	tag, err := s.pool.Exec(ctx, stmt, symbol, price, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: update price %s: %w", domrepo.ErrPersistence, symbol, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stock %s", domrepo.ErrNotFound, symbol)
	}
	return nil
}
