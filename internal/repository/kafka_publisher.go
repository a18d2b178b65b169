package repository

import (
	"context"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	pkgkafka "StockCast/pkg/kafka"
)

// KafkaPublisher implements EventPublisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka event publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.EventPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// ForecastCompleted emits one event per completed forecast run, keyed by
// symbol so all events of one instrument land on the same partition.
func (p *KafkaPublisher) ForecastCompleted(ctx context.Context, symbol string, rec *models.PredictionRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(symbol), map[string]interface{}{
		"event":      "forecast.completed",
		"symbol":     symbol,
		"one_day":    rec.OneDay,
		"one_week":   rec.OneWeek,
		"one_month":  rec.OneMonth,
		"accuracy":   rec.AccuracyScore,
		"confidence": string(rec.ConfidenceLevel),
		"created_at": rec.CreatedAt.Format(time.RFC3339),
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher is used when Kafka is disabled in configuration.
type NopPublisher struct{}

func (NopPublisher) ForecastCompleted(context.Context, string, *models.PredictionRecord) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
