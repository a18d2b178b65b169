package repository

import (
	"context"
	"fmt"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/postgres"
)

// PGPredictionStore implements PredictionStore backed by Postgres. One row per
// symbol, overwritten on every forecast run.
type PGPredictionStore struct {
	pool *postgres.Pool
}

func NewPGPredictionStore(pool *postgres.Pool) *PGPredictionStore {
	return &PGPredictionStore{pool: pool}
}

// PredictionSchema returns the idempotent DDL for the predictions table.
func PredictionSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			symbol           TEXT PRIMARY KEY REFERENCES stocks(symbol),
			one_day          DOUBLE PRECISION NOT NULL,
			one_week         DOUBLE PRECISION NOT NULL,
			one_month        DOUBLE PRECISION NOT NULL,
			accuracy_score   INTEGER NOT NULL,
			confidence_level TEXT NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
}

// Upsert replaces the current prediction for rec.Symbol.
func (s *PGPredictionStore) Upsert(ctx context.Context, rec *models.PredictionRecord) error {
	const stmt = `
		INSERT INTO predictions (symbol, one_day, one_week, one_month, accuracy_score, confidence_level, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol) DO UPDATE SET
			one_day = EXCLUDED.one_day,
			one_week = EXCLUDED.one_week,
			one_month = EXCLUDED.one_month,
			accuracy_score = EXCLUDED.accuracy_score,
			confidence_level = EXCLUDED.confidence_level,
			created_at = EXCLUDED.created_at
	`
	_, err := s.pool.Exec(ctx, stmt,
		rec.Symbol, rec.OneDay, rec.OneWeek, rec.OneMonth,
		rec.AccuracyScore, string(rec.ConfidenceLevel), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: upsert prediction %s: %w", domrepo.ErrPersistence, rec.Symbol, err)
	}
	return nil
}

// GetBySymbol returns the current prediction, or ErrNotFound.
func (s *PGPredictionStore) GetBySymbol(ctx context.Context, symbol string) (*models.PredictionRecord, error) {
	const q = `
		SELECT symbol, one_day, one_week, one_month, accuracy_score, confidence_level, created_at
		FROM predictions
		WHERE symbol = $1
	`
	var (
		rec        models.PredictionRecord
		confidence string
	)
	err := s.pool.QueryRow(ctx, q, symbol).Scan(
		&rec.Symbol, &rec.OneDay, &rec.OneWeek, &rec.OneMonth,
		&rec.AccuracyScore, &confidence, &rec.CreatedAt,
	)
	if err != nil {
		if postgres.IsNotFound(err) {
			return nil, fmt.Errorf("%w: prediction %s", domrepo.ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("get prediction %s: %w", symbol, err)
	}
	rec.ConfidenceLevel = models.Confidence(confidence)
	return &rec, nil
}
