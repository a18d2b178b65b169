package models

import "testing"

func TestConfidenceFromScore(t *testing.T) {
	cases := []struct {
		aiScore  float64
		level    Confidence
		accuracy int
	}{
		{95, ConfidenceHigh, 95},
		{70, ConfidenceHigh, 70},
		{69.4, ConfidenceMedium, 69},
		{40, ConfidenceMedium, 40},
		{39.9, ConfidenceLow, 40},
		{39.4, ConfidenceLow, 39},
		{0, ConfidenceLow, 0},
		{150, ConfidenceHigh, 100},
	}
	for _, c := range cases {
		level, accuracy := ConfidenceFromScore(c.aiScore)
		if level != c.level {
			t.Errorf("aiScore=%v: level=%s, want %s", c.aiScore, level, c.level)
		}
		if accuracy != c.accuracy {
			t.Errorf("aiScore=%v: accuracy=%d, want %d", c.aiScore, accuracy, c.accuracy)
		}
	}
}

func TestAggregateAccuracy(t *testing.T) {
	r := &ForecastResult{
		OneDay:   HorizonForecast{Accuracy: 70},
		OneWeek:  HorizonForecast{Accuracy: 70},
		OneMonth: HorizonForecast{Accuracy: 71},
	}
	if got := r.AggregateAccuracy(); got != 70 {
		t.Fatalf("aggregate=%d, want 70", got)
	}

	r = &ForecastResult{
		OneDay:   HorizonForecast{Accuracy: 50},
		OneWeek:  HorizonForecast{Accuracy: 51},
		OneMonth: HorizonForecast{Accuracy: 51},
	}
	if got := r.AggregateAccuracy(); got != 51 {
		t.Fatalf("aggregate=%d, want 51", got)
	}
}

func TestHorizonDays(t *testing.T) {
	if d := HorizonOneDay.Days(); d != 1 {
		t.Fatalf("one_day=%d", d)
	}
	if d := HorizonOneWeek.Days(); d != 7 {
		t.Fatalf("one_week=%d", d)
	}
	if d := HorizonOneMonth.Days(); d != 30 {
		t.Fatalf("one_month=%d", d)
	}
}
