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

type stubPredictionStore struct {
	upserted  []*models.PredictionRecord
	upsertErr error
}

func (s *stubPredictionStore) Upsert(_ context.Context, rec *models.PredictionRecord) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserted = append(s.upserted, rec)
	return nil
}

func (s *stubPredictionStore) GetBySymbol(context.Context, string) (*models.PredictionRecord, error) {
	return nil, drepo.ErrNotFound
}

type stubPredictionLog struct {
	rows      []*models.HistoricalPrediction
	appended  [][]*models.HistoricalPrediction
	appendErr error
}

func (s *stubPredictionLog) Append(_ context.Context, entries []*models.HistoricalPrediction) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, entries)
	return nil
}

func (s *stubPredictionLog) LatestBySymbol(_ context.Context, _ string, limit int) ([]*models.HistoricalPrediction, error) {
	if len(s.rows) > limit {
		return s.rows[len(s.rows)-limit:], nil
	}
	return s.rows, nil
}

type stubPublisher struct {
	events []string
}

func (s *stubPublisher) ForecastCompleted(_ context.Context, symbol string, _ *models.PredictionRecord) error {
	s.events = append(s.events, symbol)
	return nil
}

func (s *stubPublisher) Close() error { return nil }

func logRows(n int) []*models.HistoricalPrediction {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]*models.HistoricalPrediction, n)
	for i := range rows {
		rows[i] = &models.HistoricalPrediction{
			Symbol:         "AAPL",
			PredictedPrice: 150 + float64(i),
			PredictionDate: base.AddDate(0, 0, i),
			Horizon:        models.HorizonOneDay,
			AccuracyScore:  65,
		}
	}
	return rows
}

func testSettings() ForecastSettings {
	return ForecastSettings{
		HistoryLimit:    100,
		MinHistory:      10,
		WindowSize:      5,
		Epochs:          3,
		BatchSize:       32,
		LearningRate:    0.001,
		ValidationSplit: 0.1,
	}
}

func TestForecasterRun(t *testing.T) {
	store := &stubPredictionStore{}
	log := &stubPredictionLog{rows: logRows(20)}
	pub := &stubPublisher{}

	f := NewForecaster(store, log, pub, nil, nil, testSettings())
	result, err := f.Run(context.Background(), "AAPL", 165.5, 85)
	require.NoError(t, err)
	require.NotNil(t, result)

	// aiScore 85 maps to high confidence on every horizon.
	assert.Equal(t, models.ConfidenceHigh, result.OneDay.Confidence)
	assert.Equal(t, 85, result.OneDay.Accuracy)
	assert.Equal(t, 85, result.OneWeek.Accuracy)
	assert.Equal(t, 85, result.OneMonth.Accuracy)

	require.Len(t, store.upserted, 1)
	rec := store.upserted[0]
	assert.Equal(t, "AAPL", rec.Symbol)
	assert.Equal(t, result.OneDay.Price, rec.OneDay)
	assert.Equal(t, result.OneWeek.Price, rec.OneWeek)
	assert.Equal(t, result.OneMonth.Price, rec.OneMonth)
	assert.Equal(t, 85, rec.AccuracyScore)
	assert.Equal(t, models.ConfidenceHigh, rec.ConfidenceLevel)

	require.Len(t, log.appended, 1)
	entries := log.appended[0]
	require.Len(t, entries, 3)
	assert.Equal(t, models.HorizonOneDay, entries[0].Horizon)
	assert.Equal(t, models.HorizonOneWeek, entries[1].Horizon)
	assert.Equal(t, models.HorizonOneMonth, entries[2].Horizon)
	for i, e := range entries {
		assert.Equal(t, "AAPL", e.Symbol)
		assert.Equal(t, e.PredictionDate.Add(e.Horizon.Duration()), e.TargetDate, "entry %d", i)
	}

	assert.Equal(t, []string{"AAPL"}, pub.events)
}

func TestForecasterInsufficientHistory(t *testing.T) {
	store := &stubPredictionStore{}
	log := &stubPredictionLog{rows: logRows(9)}

	f := NewForecaster(store, log, nil, nil, nil, testSettings())
	_, err := f.Run(context.Background(), "AAPL", 165.5, 85)
	require.ErrorIs(t, err, drepo.ErrInsufficientData)
	assert.Empty(t, store.upserted)
	assert.Empty(t, log.appended)
}

func TestForecasterUpsertFailureIsFatal(t *testing.T) {
	store := &stubPredictionStore{upsertErr: errors.New("db down")}
	log := &stubPredictionLog{rows: logRows(20)}

	f := NewForecaster(store, log, nil, nil, nil, testSettings())
	_, err := f.Run(context.Background(), "AAPL", 165.5, 85)
	require.Error(t, err)
	// The historical log is only written after a successful upsert.
	assert.Empty(t, log.appended)
}

func TestForecasterAppendFailureIsSwallowed(t *testing.T) {
	store := &stubPredictionStore{}
	log := &stubPredictionLog{rows: logRows(20), appendErr: errors.New("sink down")}

	f := NewForecaster(store, log, nil, nil, nil, testSettings())
	result, err := f.Run(context.Background(), "AAPL", 165.5, 85)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, store.upserted, 1)
}

func TestForecasterCompletesAfterCallerCancel(t *testing.T) {
	store := &stubPredictionStore{}
	log := &stubPredictionLog{rows: logRows(20)}
	pub := &stubPublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A disconnecting caller must not abort the run: both stores still see
	// their writes and the completion event still fires.
	f := NewForecaster(store, log, pub, nil, nil, testSettings())
	result, err := f.Run(ctx, "AAPL", 165.5, 85)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Len(t, store.upserted, 1)
	require.Len(t, log.appended, 1)
	assert.Equal(t, []string{"AAPL"}, pub.events)
}

func TestForecasterPredictionFailureWritesNothing(t *testing.T) {
	store := &stubPredictionStore{}
	log := &stubPredictionLog{rows: logRows(20)}

	// An already-expired deadline fails every horizon; the run must fail
	// whole with zero persistence writes.
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	f := NewForecaster(store, log, nil, nil, nil, testSettings())
	_, err := f.Run(ctx, "AAPL", 165.5, 85)
	require.ErrorIs(t, err, drepo.ErrPrediction)
	assert.Empty(t, store.upserted)
	assert.Empty(t, log.appended)
}

func TestForecasterLowConfidence(t *testing.T) {
	store := &stubPredictionStore{}
	log := &stubPredictionLog{rows: logRows(20)}

	f := NewForecaster(store, log, nil, nil, nil, testSettings())
	result, err := f.Run(context.Background(), "AAPL", 165.5, 20)
	require.NoError(t, err)
	assert.Equal(t, models.ConfidenceLow, result.OneDay.Confidence)
	assert.Equal(t, 20, result.OneDay.Accuracy)
}
