package regression

import (
	"errors"
	"math"
	"sync"
	"testing"
)

// linearSamples builds a trivially learnable dataset: label equals the mean
// of the price half of the features.
func linearSamples(n, window int) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		features := make([]float64, 2*window)
		var sum float64
		for j := 0; j < window; j++ {
			v := float64(i+j) / float64(n)
			features[j] = v
			sum += v
		}
		for j := window; j < 2*window; j++ {
			features[j] = 0.5
		}
		samples = append(samples, Sample{Features: features, Label: sum / float64(window)})
	}
	return samples
}

func TestTrainAndPredict(t *testing.T) {
	samples := linearSamples(60, 5)
	model, err := Train(samples, Config{Seed: 1})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	defer model.Close()

	if model.InputSize() != 10 {
		t.Fatalf("input size=%d, want 10", model.InputSize())
	}

	p, err := model.Predict(samples[10].Features)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) {
		t.Fatalf("prediction not finite: %v", p)
	}
	if math.IsNaN(model.TrainLoss()) || math.IsNaN(model.ValidationLoss()) {
		t.Fatalf("losses not finite: train=%v val=%v", model.TrainLoss(), model.ValidationLoss())
	}
}

func TestTrainDeterministicWithSeed(t *testing.T) {
	samples := linearSamples(40, 5)
	a, err := Train(samples, Config{Seed: 7})
	if err != nil {
		t.Fatalf("train a: %v", err)
	}
	defer a.Close()
	b, err := Train(samples, Config{Seed: 7})
	if err != nil {
		t.Fatalf("train b: %v", err)
	}
	defer b.Close()

	pa, _ := a.Predict(samples[0].Features)
	pb, _ := b.Predict(samples[0].Features)
	if pa != pb {
		t.Fatalf("same seed diverged: %v vs %v", pa, pb)
	}
}

func TestTrainRejectsBadInput(t *testing.T) {
	if _, err := Train(nil, Config{}); err == nil {
		t.Fatal("expected error for empty samples")
	}
	bad := []Sample{
		{Features: []float64{1, 2}, Label: 1},
		{Features: []float64{1}, Label: 1},
	}
	if _, err := Train(bad, Config{}); err == nil {
		t.Fatal("expected error for ragged features")
	}
}

func TestPredictConcurrent(t *testing.T) {
	samples := linearSamples(40, 5)
	model, err := Train(samples, Config{Seed: 3})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	defer model.Close()

	want, _ := model.Predict(samples[5].Features)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := model.Predict(samples[5].Features)
				if err != nil {
					t.Errorf("predict: %v", err)
					return
				}
				if got != want {
					t.Errorf("concurrent predict drifted: %v vs %v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCloseReleasesModel(t *testing.T) {
	samples := linearSamples(40, 5)
	model, err := Train(samples, Config{Seed: 2})
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	model.Close()
	model.Close() // idempotent

	if _, err := model.Predict(samples[0].Features); !errors.Is(err, ErrModelReleased) {
		t.Fatalf("err=%v, want ErrModelReleased", err)
	}
}

func TestPredictWrongSize(t *testing.T) {
	samples := linearSamples(40, 5)
	model, err := Train(samples, Config{Seed: 2})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	defer model.Close()

	if _, err := model.Predict([]float64{1, 2, 3}); err == nil {
		t.Fatal("expected size mismatch error")
	}
}
