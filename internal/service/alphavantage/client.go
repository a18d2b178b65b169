package alphavantage

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	xhttp "StockCast/pkg/http"
	applogger "StockCast/pkg/logger"
	"StockCast/pkg/util"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client retrieves live quotes from the Alpha Vantage GLOBAL_QUOTE endpoint,
// rotating through a fixed pool of API keys on rate-limit or error. The
// rotation index is shared across concurrent calls and advanced atomically;
// each call makes at most one attempt per key in the pool.
type Client struct {
	baseURL        string
	keys           []string
	rotation       atomic.Uint64
	attemptTimeout time.Duration
	retryDelay     time.Duration
	http           *xhttp.Client
	limiter        *rate.Limiter
	logger         *applogger.Logger
	metrics        drepo.Metrics
}

// Options holds options for creating a new quote client.
type Options struct {
	BaseURL        string
	APIKeys        []string
	AttemptTimeout time.Duration
	RetryDelay     time.Duration
	RequestsPerSec int
	Logger         *applogger.Logger
	Metrics        drepo.Metrics
}

// NewClient creates a new Alpha Vantage quote client.
func NewClient(opts Options) *Client {
	if opts.AttemptTimeout == 0 {
		opts.AttemptTimeout = 10 * time.Second
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}

	return &Client{
		baseURL:        opts.BaseURL,
		keys:           opts.APIKeys,
		attemptTimeout: opts.AttemptTimeout,
		retryDelay:     opts.RetryDelay,
		// The transport timeout backstops the per-attempt context deadline.
		http:    xhttp.NewClient(xhttp.WithTimeout(opts.AttemptTimeout + time.Second)),
		limiter: rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

var _ drepo.QuoteProvider = (*Client)(nil)

// globalQuoteResponse mirrors the provider payload. Rate limiting is signalled
// in-band through the Note field on an otherwise 200 response.
type globalQuoteResponse struct {
	Note        string            `json:"Note"`
	ErrorMsg    string            `json:"Error Message"`
	GlobalQuote map[string]string `json:"Global Quote"`
}

// Fetch retrieves a live quote for symbol. It fails with ErrQuoteUnavailable
// only after every key in the pool has failed once.
func (c *Client) Fetch(ctx context.Context, symbol string) (*models.QuoteResult, error) {
	n := len(c.keys)
	if n == 0 {
		return nil, fmt.Errorf("%w: no api keys configured", drepo.ErrQuoteUnavailable)
	}

	var (
		result  *models.QuoteResult
		lastErr error
		attempt int
	)

	// Capture the shared index once so this call walks N distinct keys even
	// when concurrent calls advance the rotation underneath it.
	start := c.rotation.Load()

	operation := func() error {
		attempt++
		key := c.keys[int((start+uint64(attempt-1))%uint64(n))]

		q, err := c.attempt(ctx, symbol, key)
		if err != nil {
			lastErr = err
			// Advance the shared rotation so the next attempt (ours or a
			// concurrent caller's) lands on a different key.
			c.rotation.Add(1)
			if c.metrics != nil {
				c.metrics.RecordQuoteRotation(symbol)
			}
			if c.logger != nil {
				c.logger.Warn("quote attempt failed, rotating key",
					applogger.String("symbol", symbol),
					applogger.Int("attempt", attempt),
					applogger.Error(err),
				)
			}
			return err
		}
		result = q
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(n-1)),
		ctx,
	)
	if err := backoff.Retry(operation, bo); err != nil {
		if c.metrics != nil {
			c.metrics.RecordQuoteFailure(symbol)
		}
		return nil, fmt.Errorf("%w for %s after %d attempts: %w",
			drepo.ErrQuoteUnavailable, symbol, attempt, lastErr)
	}

	return result, nil
}

// attempt performs a single provider request bound to one key, with a hard
// per-attempt timeout. Timeouts, transport errors and provider-reported
// rate-limit responses are all returned as plain errors.
func (c *Client) attempt(ctx context.Context, symbol, key string) (*models.QuoteResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	if c.metrics != nil {
		c.metrics.RecordQuoteAttempt(symbol)
	}

	var payload globalQuoteResponse
	err := c.http.SendAndParse(attemptCtx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/query",
		QueryParams: map[string][]string{
			"function": {"GLOBAL_QUOTE"},
			"symbol":   {symbol},
			"apikey":   {key},
		},
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}

	if payload.Note != "" {
		return nil, fmt.Errorf("provider rate limited: %s", payload.Note)
	}
	if payload.ErrorMsg != "" {
		return nil, fmt.Errorf("provider error: %s", payload.ErrorMsg)
	}
	if len(payload.GlobalQuote) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	return parseQuote(payload.GlobalQuote), nil
}

// parseQuote maps provider fields defensively: missing or non-numeric fields
// default to zero rather than failing the fetch. The provider does not supply
// market cap on this endpoint.
func parseQuote(q map[string]string) *models.QuoteResult {
	return &models.QuoteResult{
		Price:         util.ParseFloatDefault(q["05. price"], 0),
		Change:        util.ParseFloatDefault(q["09. change"], 0),
		PercentChange: util.ParseFloatDefault(q["10. change percent"], 0),
		Volume:        util.ParseInt64Default(q["06. volume"], 0),
		MarketCap:     0,
	}
}
