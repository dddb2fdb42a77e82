package repository

import (
	"context"
	"fmt"

	"StockLens/internal/domain/models"
	pkgkafka "StockLens/pkg/kafka"
	applogger "StockLens/pkg/logger"
)

// KafkaAlertPublisher writes each alert as a JSON message keyed by ticker so
// one symbol's alerts stay ordered on a partition.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	l        *applogger.Logger
}

func NewKafkaAlertPublisher(p *pkgkafka.Producer, l *applogger.Logger) *KafkaAlertPublisher {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaAlertPublisher{producer: p, l: l}
}

func (k *KafkaAlertPublisher) Publish(ctx context.Context, alerts []models.VolatilityAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(alerts))
	for _, a := range alerts {
		msgs = append(msgs, pkgkafka.Message{Key: []byte(a.Ticker), Value: a})
	}
	if err := k.producer.PublishBatch(ctx, msgs); err != nil {
		return fmt.Errorf("publish alerts: %w", err)
	}
	k.l.Info("alerts published",
		applogger.String("topic", k.producer.Topic()),
		applogger.Int("count", len(alerts)),
	)
	return nil
}

func (k *KafkaAlertPublisher) Close() error {
	return k.producer.Close()
}

// NoopAlertPublisher drops alerts; used when Kafka is disabled.
type NoopAlertPublisher struct{}

func (NoopAlertPublisher) Publish(context.Context, []models.VolatilityAlert) error { return nil }
func (NoopAlertPublisher) Close() error                                            { return nil }
