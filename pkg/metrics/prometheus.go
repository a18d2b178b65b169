package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	quoteAttempts  *prometheus.CounterVec
	quoteRotations *prometheus.CounterVec
	quoteFailures  *prometheus.CounterVec
	forecastRuns   *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastPrice      *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		quoteAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_quote_attempts_total",
				Help: "Total quote provider attempts",
			},
			[]string{"symbol"},
		),
		quoteRotations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_quote_key_rotations_total",
				Help: "Total credential rotations after failed attempts",
			},
			[]string{"symbol"},
		),
		quoteFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_quote_failures_total",
				Help: "Total quote fetches that exhausted the credential pool",
			},
			[]string{"symbol"},
		),
		forecastRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_forecast_runs_total",
				Help: "Total completed forecast runs",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcast_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordQuoteAttempt records one provider attempt.
func (r *Recorder) RecordQuoteAttempt(symbol string) {
	r.quoteAttempts.WithLabelValues(symbol).Inc()
}

// RecordQuoteRotation records a credential rotation.
func (r *Recorder) RecordQuoteRotation(symbol string) {
	r.quoteRotations.WithLabelValues(symbol).Inc()
}

// RecordQuoteFailure records a fully exhausted fetch.
func (r *Recorder) RecordQuoteFailure(symbol string) {
	r.quoteFailures.WithLabelValues(symbol).Inc()
}

// RecordForecastRun records a completed forecast run.
func (r *Recorder) RecordForecastRun(symbol string) {
	r.forecastRuns.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
