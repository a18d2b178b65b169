package usecase

import (
	"context"

	"StockCast/internal/domain/models"
	drepo "StockCast/internal/domain/repository"
	applogger "StockCast/pkg/logger"
)

// TickCollector consumes the live market stream and keeps tracked instrument
// prices current between explicit quote refreshes.
type TickCollector struct {
	stream  drepo.MarketStream
	stocks  drepo.StockStore
	metrics drepo.Metrics
	l       *applogger.Logger
}

// NewTickCollector creates a new TickCollector instance.
func NewTickCollector(stream drepo.MarketStream, stocks drepo.StockStore, metrics drepo.Metrics, l *applogger.Logger) *TickCollector {
	return &TickCollector{stream: stream, stocks: stocks, metrics: metrics, l: l}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				if c.metrics != nil {
					c.metrics.RecordError("stream")
				}
				if c.l != nil {
					c.l.Warn("stream error, reconnecting", applogger.Error(err))
				}
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			// Untracked symbols come back as not found; nothing to update.
			if err := c.stocks.UpdatePrice(ctx, t.Symbol, t.Price); err != nil {
				if c.l != nil {
					c.l.Debug("tick price update skipped",
						applogger.String("symbol", t.Symbol),
						applogger.Error(err),
					)
				}
				continue
			}
			if c.metrics != nil {
				c.metrics.RecordLastPrice(t.Symbol, t.Price)
			}
		}
	}
}

// Stop closes the underlying stream.
func (c *TickCollector) Stop() error { return c.stream.Close() }
