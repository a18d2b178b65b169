package models

import "time"

// StockRecord is a tracked instrument row. Quote refreshes mutate the price
// fields; the forecast pipeline reads Price and AIScore as its anchor inputs.
type StockRecord struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percentChange"`
	Volume        int64     `json:"volume"`
	MarketCap     float64   `json:"marketCap"`
	AIScore       float64   `json:"aiScore"` // 0-100
	UpdatedAt     time.Time `json:"updatedAt"`
}

// QuoteResult is a single live quote produced by the quote provider client.
type QuoteResult struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
	Volume        int64   `json:"volume"`
	MarketCap     float64 `json:"marketCap"`
}

// Tick is a single trade event from the live market stream.
type Tick struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp int64 // unix seconds
}
