package models

import (
	"math"
	"time"
)

// Horizon is a forecast target distance.
type Horizon string

const (
	HorizonOneDay   Horizon = "one_day"
	HorizonOneWeek  Horizon = "one_week"
	HorizonOneMonth Horizon = "one_month"
)

// Days returns the horizon length in days.
func (h Horizon) Days() int {
	switch h {
	case HorizonOneWeek:
		return 7
	case HorizonOneMonth:
		return 30
	default:
		return 1
	}
}

// Duration returns the horizon length as a time.Duration.
func (h Horizon) Duration() time.Duration {
	return time.Duration(h.Days()) * 24 * time.Hour
}

// Confidence is a coarse trust category derived from the input aiScore,
// independent of the model output.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ConfidenceFromScore maps an aiScore (0-100) to a confidence level and a
// 0-100 accuracy score. The thresholds are inclusive: 70 is high, 40 is medium.
func ConfidenceFromScore(aiScore float64) (Confidence, int) {
	score := math.Min(aiScore/100, 1)
	level := ConfidenceLow
	switch {
	case score >= 0.7:
		level = ConfidenceHigh
	case score >= 0.4:
		level = ConfidenceMedium
	}
	return level, int(math.Round(score * 100))
}

// PredictionRecord is the single current prediction per symbol, overwritten
// on each forecast run.
type PredictionRecord struct {
	Symbol          string     `json:"symbol"`
	OneDay          float64    `json:"oneDay"`
	OneWeek         float64    `json:"oneWeek"`
	OneMonth        float64    `json:"oneMonth"`
	AccuracyScore   int        `json:"accuracyScore"` // 0-100
	ConfidenceLevel Confidence `json:"confidenceLevel"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// HistoricalPrediction is one append-only log row; three are written per
// forecast run, one per horizon. Rows are never mutated.
type HistoricalPrediction struct {
	Symbol         string    `json:"symbol"`
	PredictedPrice float64   `json:"predictedPrice"`
	PredictionDate time.Time `json:"predictionDate"`
	TargetDate     time.Time `json:"targetDate"`
	Horizon        Horizon   `json:"horizon"`
	AccuracyScore  float64   `json:"accuracyScore"`
}

// HorizonForecast is one horizon's result.
type HorizonForecast struct {
	Price      float64    `json:"price"`
	Accuracy   int        `json:"accuracy"`
	Confidence Confidence `json:"confidence"`
}

// ForecastResult bundles the three horizon forecasts of one run.
type ForecastResult struct {
	OneDay   HorizonForecast `json:"oneDay"`
	OneWeek  HorizonForecast `json:"oneWeek"`
	OneMonth HorizonForecast `json:"oneMonth"`
}

// AggregateAccuracy is the rounded arithmetic mean of the three horizon
// accuracy scores.
func (r *ForecastResult) AggregateAccuracy() int {
	sum := float64(r.OneDay.Accuracy + r.OneWeek.Accuracy + r.OneMonth.Accuracy)
	return int(math.Round(sum / 3))
}
