package regression

import (
	"StockCast/internal/domain/models"
)

// defaultAccuracy substitutes for an absent accuracy score. Matches the
// storage convention where an unset score is written as zero.
const defaultAccuracy = 50

// Sample is one supervised training example: the flattened window of the
// preceding entries' (price, score) pairs, labelled with the next entry's
// price. Samples exist only for the duration of training.
type Sample struct {
	Features []float64
	Label    float64
}

// BuildWindowed constructs the windowed training set from the historical log,
// ordered oldest-to-newest. The feature vector is the window's predicted
// prices followed by its accuracy scores, so the result has exactly
// max(0, len(history)-window) samples of 2*window features each.
func BuildWindowed(history []*models.HistoricalPrediction, window int) []Sample {
	if len(history) <= window {
		return nil
	}

	samples := make([]Sample, 0, len(history)-window)
	for i := window; i < len(history); i++ {
		features := make([]float64, 0, 2*window)
		for _, h := range history[i-window : i] {
			features = append(features, h.PredictedPrice)
		}
		for _, h := range history[i-window : i] {
			features = append(features, scoreOrDefault(h.AccuracyScore, defaultAccuracy))
		}
		samples = append(samples, Sample{
			Features: features,
			Label:    history[i].PredictedPrice,
		})
	}
	return samples
}

// LatestWindow builds the inference feature vector from the most recent
// window-length slice of history. When history is shorter than the window,
// the missing leading entries are substituted with the current price and
// aiScore; zero-valued fields are substituted the same way.
func LatestWindow(history []*models.HistoricalPrediction, window int, currentPrice, aiScore float64) []float64 {
	recent := history
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}

	pad := window - len(recent)
	features := make([]float64, 0, 2*window)
	for i := 0; i < pad; i++ {
		features = append(features, currentPrice)
	}
	for _, h := range recent {
		features = append(features, priceOrDefault(h.PredictedPrice, currentPrice))
	}
	for i := 0; i < pad; i++ {
		features = append(features, aiScore)
	}
	for _, h := range recent {
		features = append(features, scoreOrDefault(h.AccuracyScore, aiScore))
	}
	return features
}

func priceOrDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func scoreOrDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
