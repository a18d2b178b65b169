package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	drepo "StockCast/internal/domain/repository"
)

func quotePayload(price string) map[string]interface{} {
	return map[string]interface{}{
		"Global Quote": map[string]string{
			"01. symbol":         "AAPL",
			"05. price":          price,
			"06. volume":         "123456",
			"09. change":         "1.25",
			"10. change percent": "0.85%",
		},
	}
}

func newTestClient(baseURL string, keys []string) *Client {
	return NewClient(Options{
		BaseURL:        baseURL,
		APIKeys:        keys,
		AttemptTimeout: 2 * time.Second,
		RetryDelay:     time.Millisecond,
		RequestsPerSec: 1000,
	})
}

func TestFetchParsesQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "GLOBAL_QUOTE" {
			t.Errorf("function=%q", got)
		}
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("symbol=%q", got)
		}
		_ = json.NewEncoder(w).Encode(quotePayload("189.30"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, []string{"k1"})
	q, err := c.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Price != 189.30 {
		t.Errorf("price=%v", q.Price)
	}
	if q.Change != 1.25 {
		t.Errorf("change=%v", q.Change)
	}
	if q.PercentChange != 0.85 {
		t.Errorf("percent=%v", q.PercentChange)
	}
	if q.Volume != 123456 {
		t.Errorf("volume=%v", q.Volume)
	}
}

func TestFetchRotatesToWorkingKey(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("apikey") != "good" {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"Note": "API call frequency exceeded",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(quotePayload("50.00"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, []string{"bad1", "bad2", "good"})
	q, err := c.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if q.Price != 50 {
		t.Errorf("price=%v", q.Price)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls=%d, want 3", got)
	}
}

func TestFetchExhaustsAllKeys(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Error Message": "Invalid API call",
		})
	}))
	defer srv.Close()

	keys := []string{"a", "b", "c", "d"}
	c := newTestClient(srv.URL, keys)
	_, err := c.Fetch(context.Background(), "AAPL")
	if !errors.Is(err, drepo.ErrQuoteUnavailable) {
		t.Fatalf("err=%v, want ErrQuoteUnavailable", err)
	}
	// Exactly one attempt per key.
	if got := calls.Load(); got != int64(len(keys)) {
		t.Errorf("calls=%d, want %d", got, len(keys))
	}
}

func TestFetchNoKeys(t *testing.T) {
	c := newTestClient("http://unused", nil)
	_, err := c.Fetch(context.Background(), "AAPL")
	if !errors.Is(err, drepo.ErrQuoteUnavailable) {
		t.Fatalf("err=%v, want ErrQuoteUnavailable", err)
	}
}

func TestFetchEmptyQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"Global Quote": map[string]string{}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, []string{"k1"})
	_, err := c.Fetch(context.Background(), "AAPL")
	if !errors.Is(err, drepo.ErrQuoteUnavailable) {
		t.Fatalf("err=%v, want ErrQuoteUnavailable", err)
	}
}

func TestSharedRotationAcrossCalls(t *testing.T) {
	var lastKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastKey.Store(r.URL.Query().Get("apikey"))
		_ = json.NewEncoder(w).Encode(map[string]string{"Note": "limit"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, []string{"k0", "k1", "k2"})
	_, _ = c.Fetch(context.Background(), "AAPL")

	// The shared index advanced once per failure, so a fresh call starts at
	// a different key than the first one did.
	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastKey.Store(r.URL.Query().Get("apikey"))
		_ = json.NewEncoder(w).Encode(quotePayload("10.00"))
	}))
	defer srv2.Close()
	c.baseURL = srv2.URL

	if _, err := c.Fetch(context.Background(), "AAPL"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := lastKey.Load().(string); got != "k0" {
		t.Errorf("start key=%q, want k0 after full wrap", got)
	}
}
