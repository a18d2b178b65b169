package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgch "StockCast/pkg/clickhouse"
	applogger "StockCast/pkg/logger"
)

const predictionLogTable = "stockcast.historical_predictions"

// CHPredictionLog implements PredictionLog backed by ClickHouse. Rows are
// append-only; each forecast run contributes one row per horizon.
type CHPredictionLog struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHPredictionLog(ch *pkgch.Client) *CHPredictionLog {
	return &CHPredictionLog{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHPredictionLog) SetLogger(l *applogger.Logger) { s.l = l }

// PredictionLogSchema returns the idempotent DDL for the historical log.
func PredictionLogSchema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS stockcast`,
		`CREATE TABLE IF NOT EXISTS ` + predictionLogTable + ` (
			symbol          String,
			predicted_price Float64,
			prediction_date DateTime,
			target_date     DateTime,
			horizon         LowCardinality(String),
			accuracy_score  Float64
		) ENGINE = MergeTree()
		ORDER BY (symbol, prediction_date)`,
	}
}

// Append writes entries as a single multi-row insert.
func (s *CHPredictionLog) Append(ctx context.Context, entries []*models.HistoricalPrediction) error {
	if len(entries) == 0 {
		return nil
	}
	start := time.Now()

	values := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*6)
	for _, e := range entries {
		if e == nil || e.Symbol == "" {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args,
			e.Symbol,
			e.PredictedPrice,
			e.PredictionDate,
			e.TargetDate,
			string(e.Horizon),
			e.AccuracyScore,
		)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (symbol, predicted_price, prediction_date, target_date, horizon, accuracy_score) VALUES %s",
		predictionLogTable, strings.Join(values, ","),
	)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse append_predictions error",
				applogger.String("symbol", entries[0].Symbol),
				applogger.Int("rows", len(values)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("%w: append predictions: %w", domrepo.ErrPersistence, err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse append_predictions ok",
			applogger.String("symbol", entries[0].Symbol),
			applogger.Int("rows", len(values)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// LatestBySymbol returns up to limit newest rows for symbol, reordered
// oldest-to-newest for windowed consumption.
func (s *CHPredictionLog) LatestBySymbol(ctx context.Context, symbol string, limit int) ([]*models.HistoricalPrediction, error) {
	start := time.Now()
	const q = `
        SELECT symbol, predicted_price, prediction_date, target_date, horizon, accuracy_score
        FROM ` + predictionLogTable + `
        WHERE symbol = ?
        ORDER BY prediction_date DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_predictions query error",
				applogger.String("symbol", symbol),
				applogger.Int("limit", limit),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest predictions: %w", err)
	}
	defer rows.Close()

	tmp := make([]*models.HistoricalPrediction, 0, limit)
	for rows.Next() {
		var (
			h       models.HistoricalPrediction
			horizon string
		)
		if err := rows.Scan(&h.Symbol, &h.PredictedPrice, &h.PredictionDate, &h.TargetDate, &horizon, &h.AccuracyScore); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse latest_predictions scan error",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		h.Horizon = models.Horizon(horizon)
		tmp = append(tmp, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}

	if s.l != nil {
		s.l.Debug("clickhouse latest_predictions ok",
			applogger.String("symbol", symbol),
			applogger.Int("limit", limit),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}
