package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/service/regression"
	applogger "StockCast/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ForecastSettings bounds the training pipeline.
type ForecastSettings struct {
	HistoryLimit    int
	MinHistory      int
	WindowSize      int
	Epochs          int
	BatchSize       int
	LearningRate    float64
	ValidationSplit float64
}

var forecastHorizons = []models.Horizon{
	models.HorizonOneDay,
	models.HorizonOneWeek,
	models.HorizonOneMonth,
}

// Forecaster trains a fresh regression model per run and produces the three
// horizon forecasts. Each run is self-contained: the model never outlives it.
type Forecaster struct {
	predictions drepo.PredictionStore
	log         drepo.PredictionLog
	events      drepo.EventPublisher
	metrics     drepo.Metrics
	l           *applogger.Logger
	settings    ForecastSettings
}

// NewForecaster creates a new forecast pipeline.
func NewForecaster(
	predictions drepo.PredictionStore,
	log drepo.PredictionLog,
	events drepo.EventPublisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
	settings ForecastSettings,
) *Forecaster {
	return &Forecaster{
		predictions: predictions,
		log:         log,
		events:      events,
		metrics:     metrics,
		l:           l,
		settings:    settings,
	}
}

// Run executes one full forecast for symbol: load history, train, predict all
// horizons, persist. The current-prediction upsert is fatal; the historical
// log append and the completion event are logged and swallowed so a degraded
// sink never fails an otherwise successful run.
func (f *Forecaster) Run(ctx context.Context, symbol string, currentPrice, aiScore float64) (*models.ForecastResult, error) {
	start := time.Now()

	// A started run always completes: caller cancellation must not land
	// between the current-record upsert and the history append. A deadline,
	// when set, still bounds the run.
	if dl, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(context.WithoutCancel(ctx), dl)
		defer cancel()
	} else {
		ctx = context.WithoutCancel(ctx)
	}

	history, err := f.log.LatestBySymbol(ctx, symbol, f.settings.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", symbol, err)
	}
	if len(history) < f.settings.MinHistory {
		return nil, fmt.Errorf("%w: %s has %d rows, need %d",
			drepo.ErrInsufficientData, symbol, len(history), f.settings.MinHistory)
	}

	samples := regression.BuildWindowed(history, f.settings.WindowSize)
	model, err := regression.Train(samples, regression.Config{
		Epochs:          f.settings.Epochs,
		BatchSize:       f.settings.BatchSize,
		LearningRate:    f.settings.LearningRate,
		ValidationSplit: f.settings.ValidationSplit,
	})
	if err != nil {
		if f.metrics != nil {
			f.metrics.RecordError("model_training")
		}
		return nil, fmt.Errorf("%w: %s: %w", drepo.ErrModelTraining, symbol, err)
	}
	defer model.Close()

	features := regression.LatestWindow(history, f.settings.WindowSize, currentPrice, aiScore)
	confidence, accuracy := models.ConfidenceFromScore(aiScore)

	// All horizons share the trained model; its weights are read-only here.
	forecasts := make([]models.HorizonForecast, len(forecastHorizons))
	g, gctx := errgroup.WithContext(ctx)
	for i := range forecastHorizons {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			price, err := model.Predict(features)
			if err != nil {
				return fmt.Errorf("%s: %w", forecastHorizons[i], err)
			}
			forecasts[i] = models.HorizonForecast{
				Price:      round2(price),
				Accuracy:   accuracy,
				Confidence: confidence,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if f.metrics != nil {
			f.metrics.RecordError("prediction")
		}
		return nil, fmt.Errorf("%w: %s: %w", drepo.ErrPrediction, symbol, err)
	}

	result := &models.ForecastResult{
		OneDay:   forecasts[0],
		OneWeek:  forecasts[1],
		OneMonth: forecasts[2],
	}

	now := time.Now().UTC()
	record := &models.PredictionRecord{
		Symbol:          symbol,
		OneDay:          result.OneDay.Price,
		OneWeek:         result.OneWeek.Price,
		OneMonth:        result.OneMonth.Price,
		AccuracyScore:   result.AggregateAccuracy(),
		ConfidenceLevel: result.OneDay.Confidence,
		CreatedAt:       now,
	}
	if err := f.predictions.Upsert(ctx, record); err != nil {
		if f.metrics != nil {
			f.metrics.RecordError("prediction_store")
		}
		return nil, err
	}

	entries := make([]*models.HistoricalPrediction, 0, len(forecastHorizons))
	for i, h := range forecastHorizons {
		entries = append(entries, &models.HistoricalPrediction{
			Symbol:         symbol,
			PredictedPrice: forecasts[i].Price,
			PredictionDate: now,
			TargetDate:     now.Add(h.Duration()),
			Horizon:        h,
			AccuracyScore:  float64(forecasts[i].Accuracy),
		})
	}
	if err := f.log.Append(ctx, entries); err != nil {
		if f.metrics != nil {
			f.metrics.RecordError("prediction_log")
		}
		if f.l != nil {
			f.l.Warn("forecast history append failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	if f.events != nil {
		if err := f.events.ForecastCompleted(ctx, symbol, record); err != nil {
			if f.l != nil {
				f.l.Warn("forecast event publish failed",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
		}
	}

	if f.metrics != nil {
		f.metrics.RecordForecastRun(symbol)
		f.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	}
	if f.l != nil {
		f.l.Info("forecast completed",
			applogger.String("symbol", symbol),
			applogger.Int("history_rows", len(history)),
			applogger.Int("samples", len(samples)),
			applogger.Float64("train_loss", model.TrainLoss()),
			applogger.Float64("val_loss", model.ValidationLoss()),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
