package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStocks struct{}

func (fakeStocks) GetBySymbol(_ context.Context, symbol string) (*models.StockRecord, error) {
	if symbol != "AAPL" {
		return nil, drepo.ErrNotFound
	}
	return &models.StockRecord{Symbol: "AAPL", Name: "Apple Inc.", Price: 180.5, AIScore: 80}, nil
}

func (fakeStocks) UpdateQuote(context.Context, string, *models.QuoteResult) error { return nil }
func (fakeStocks) UpdatePrice(context.Context, string, float64) error             { return nil }

type fakeProvider struct{}

func (fakeProvider) Fetch(context.Context, string) (*models.QuoteResult, error) {
	return &models.QuoteResult{Price: 185.0, Change: 4.5, PercentChange: 2.5, Volume: 100}, nil
}

type fakePredictions struct{}

func (fakePredictions) Upsert(context.Context, *models.PredictionRecord) error { return nil }
func (fakePredictions) GetBySymbol(context.Context, string) (*models.PredictionRecord, error) {
	return nil, drepo.ErrNotFound
}

type fakeLog struct{ rows int }

func (fakeLog) Append(context.Context, []*models.HistoricalPrediction) error { return nil }

func (f fakeLog) LatestBySymbol(_ context.Context, symbol string, limit int) ([]*models.HistoricalPrediction, error) {
	n := f.rows
	if n > limit {
		n = limit
	}
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]*models.HistoricalPrediction, n)
	for i := range out {
		out[i] = &models.HistoricalPrediction{
			Symbol:         symbol,
			PredictedPrice: 100 + float64(i),
			PredictionDate: base.AddDate(0, 0, i),
			AccuracyScore:  60,
		}
	}
	return out, nil
}

func newTestHandler(rows int) *StocksHandler {
	forecaster := usecase.NewForecaster(fakePredictions{}, fakeLog{rows: rows}, nil, nil, nil,
		usecase.ForecastSettings{
			HistoryLimit:    100,
			MinHistory:      10,
			WindowSize:      5,
			Epochs:          2,
			BatchSize:       32,
			LearningRate:    0.001,
			ValidationSplit: 0.1,
		})
	refresher := usecase.NewQuoteRefresher(fakeStocks{}, fakeProvider{}, nil, nil, nil, nil, time.Minute)
	return NewStocksHandler(refresher, forecaster, nil, nil)
}

func doRequest(h *StocksHandler, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestQuoteRefreshValidation(t *testing.T) {
	rec := doRequest(newTestHandler(20), http.MethodPost, "/api/quote-refresh", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "symbol is required", resp["error"])
}

func TestQuoteRefreshUnknownSymbol(t *testing.T) {
	rec := doRequest(newTestHandler(20), http.MethodPost, "/api/quote-refresh", `{"symbol":"ZZZZ"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "ZZZZ")
}

func TestQuoteRefreshSuccess(t *testing.T) {
	rec := doRequest(newTestHandler(20), http.MethodPost, "/api/quote-refresh", `{"symbol":"AAPL"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Plain payload, no envelope.
	var quote models.QuoteResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, 185.0, quote.Price)
	assert.Equal(t, 4.5, quote.Change)
}

func TestForecastValidation(t *testing.T) {
	rec := doRequest(newTestHandler(20), http.MethodPost, "/api/forecast", `{"symbol":"AAPL"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "currentPrice")
}

func TestForecastMissingScoreRejected(t *testing.T) {
	rec := doRequest(newTestHandler(20), http.MethodPost, "/api/forecast",
		`{"symbol":"AAPL","currentPrice":180.5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "aiScore")
}

func TestForecastExplicitZeroScore(t *testing.T) {
	rec := doRequest(newTestHandler(20), http.MethodPost, "/api/forecast",
		`{"symbol":"AAPL","currentPrice":180.5,"aiScore":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ForecastResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.ConfidenceLow, result.OneDay.Confidence)
	assert.Equal(t, 0, result.OneDay.Accuracy)
}

func TestForecastInsufficientHistory(t *testing.T) {
	rec := doRequest(newTestHandler(5), http.MethodPost, "/api/forecast",
		`{"symbol":"AAPL","currentPrice":180.5,"aiScore":80}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient historical data", resp["error"])
	assert.NotEmpty(t, resp["details"])
}

func TestForecastSuccess(t *testing.T) {
	rec := doRequest(newTestHandler(20), http.MethodPost, "/api/forecast",
		`{"symbol":"AAPL","currentPrice":180.5,"aiScore":80}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ForecastResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 80, result.OneDay.Accuracy)
	assert.Equal(t, models.ConfidenceHigh, result.OneDay.Confidence)
	assert.Equal(t, result.OneDay.Price, result.OneWeek.Price)
}

func TestHealth(t *testing.T) {
	rec := doRequest(newTestHandler(20), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
}
