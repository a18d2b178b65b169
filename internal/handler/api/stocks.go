package api

import (
	"errors"
	"net/http"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	"StockCast/internal/service/ratelimit"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Per-client budget for the refresh and forecast endpoints. Both fan out to
// the quote provider or a training run, so inbound callers are throttled
// harder than plain reads would be.
const (
	rateCapacity  = 5
	rateRefillSec = 2
)

// StocksHandler serves the quote refresh and forecast endpoints.
type StocksHandler struct {
	refresher  *usecase.QuoteRefresher
	forecaster *usecase.Forecaster
	rl         *ratelimit.Limiter
	metrics    drepo.Metrics
	l          *applogger.Logger
}

// NewStocksHandler creates a new stocks API handler.
func NewStocksHandler(refresher *usecase.QuoteRefresher, forecaster *usecase.Forecaster, metrics drepo.Metrics, l *applogger.Logger) *StocksHandler {
	return &StocksHandler{
		refresher:  refresher,
		forecaster: forecaster,
		rl:         ratelimit.New(),
		metrics:    metrics,
		l:          l,
	}
}

// RegisterRoutes registers the API routes.
func (h *StocksHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.POST("/api/quote-refresh", h.QuoteRefresh)
	e.POST("/api/forecast", h.Forecast)
}

// Health reports liveness.
func (h *StocksHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// QuoteRefresh refreshes the live quote for one tracked symbol and returns
// the quote, stale or fresh. A forecast run is triggered in the background.
func (h *StocksHandler) QuoteRefresh(c echo.Context) error {
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.RecordLatency("api_quote_refresh", time.Since(start).Seconds())
		}
	}()

	var req models.QuoteRefreshRequest
	if verrs := xhttp.ReadAndValidateRequest(c, &req); verrs != nil {
		return xhttp.ValidationFailResponse(c, verrs)
	}

	if !h.rl.Allow(c.RealIP()+":quote-refresh", rateCapacity, rateRefillSec) {
		return xhttp.FailResponse(c, http.StatusTooManyRequests, "rate limited", "")
	}

	quote, err := h.refresher.Refresh(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, drepo.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "stock not found: "+req.Symbol)
		}
		if h.l != nil {
			h.l.Error("quote refresh failed",
				applogger.String("symbol", req.Symbol),
				applogger.Error(err),
			)
		}
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, quote)
}

// Forecast runs the forecast pipeline synchronously for the given inputs and
// returns the three horizon forecasts.
func (h *StocksHandler) Forecast(c echo.Context) error {
	start := time.Now()
	defer func() {
		if h.metrics != nil {
			h.metrics.RecordLatency("api_forecast", time.Since(start).Seconds())
		}
	}()

	var req models.ForecastRequest
	if verrs := xhttp.ReadAndValidateRequest(c, &req); verrs != nil {
		return xhttp.ValidationFailResponse(c, verrs)
	}

	if !h.rl.Allow(c.RealIP()+":forecast", rateCapacity, rateRefillSec) {
		return xhttp.FailResponse(c, http.StatusTooManyRequests, "rate limited", "")
	}

	result, err := h.forecaster.Run(c.Request().Context(), req.Symbol, req.CurrentPrice, *req.AIScore)
	if err != nil {
		if h.l != nil {
			h.l.Error("forecast failed",
				applogger.String("symbol", req.Symbol),
				applogger.Error(err),
			)
		}
		switch {
		case errors.Is(err, drepo.ErrInsufficientData):
			return xhttp.BadRequestResponse(c, "insufficient historical data", err.Error())
		case errors.Is(err, drepo.ErrModelTraining):
			return xhttp.BadRequestResponse(c, "model training failed", err.Error())
		case errors.Is(err, drepo.ErrPrediction):
			return xhttp.BadRequestResponse(c, "prediction failed", err.Error())
		case errors.Is(err, drepo.ErrPersistence):
			return xhttp.BadRequestResponse(c, "failed to store forecast", err.Error())
		case errors.Is(err, drepo.ErrNotFound):
			return xhttp.NotFoundResponse(c, "stock not found: "+req.Symbol)
		default:
			return xhttp.AppErrorResponse(c, err)
		}
	}

	return xhttp.SuccessResponse(c, result)
}
