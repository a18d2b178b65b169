package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

type QuoteRefreshRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}

type ForecastRequest struct {
	Symbol       string  `json:"symbol" validate:"required"`
	CurrentPrice float64 `json:"currentPrice" validate:"required,gt=0"`
	// Pointer so an omitted score is rejected while an explicit 0 passes.
	AIScore *float64 `json:"aiScore" validate:"required,gte=0,lte=100"`
}
