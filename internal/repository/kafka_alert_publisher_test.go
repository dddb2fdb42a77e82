package repository

import (
	"context"
	"encoding/json"
	"testing"

	"StockLens/internal/domain/models"
	pkgkafka "StockLens/pkg/kafka"

	"github.com/guregu/null/v6"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaAlertPublisherKeysByTicker(t *testing.T) {
	w := &captureWriter{}
	pub := NewKafkaAlertPublisher(pkgkafka.NewProducerWithWriter(w, "stocklens.alerts", nil), nil)

	ts := day("2024-03-01")
	alerts := []models.VolatilityAlert{
		{ID: "a1", Ticker: "AAPL", Index: 7, Timestamp: &ts, Price: 130, ZScore: null.FloatFrom(4.2), Reason: models.VolatilityReason},
		{ID: "a2", Ticker: "MSFT", Index: 3, Price: 410, Reason: models.VolatilityReason},
	}
	require.NoError(t, pub.Publish(context.Background(), alerts))
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "AAPL", string(w.msgs[0].Key))
	assert.Equal(t, "MSFT", string(w.msgs[1].Key))

	var got models.VolatilityAlert
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "a1", got.ID)
	assert.Equal(t, 7, got.Index)
	assert.True(t, got.Timestamp.Equal(ts))
	assert.InDelta(t, 4.2, got.ZScore.Float64, 1e-9)

	require.NoError(t, pub.Close())
	assert.True(t, w.closed)
}

func TestKafkaAlertPublisherSkipsEmpty(t *testing.T) {
	w := &captureWriter{}
	pub := NewKafkaAlertPublisher(pkgkafka.NewProducerWithWriter(w, "t", nil), nil)
	require.NoError(t, pub.Publish(context.Background(), nil))
	assert.Empty(t, w.msgs)
}

func TestNoopAlertPublisher(t *testing.T) {
	var p NoopAlertPublisher
	assert.NoError(t, p.Publish(context.Background(), []models.VolatilityAlert{{Ticker: "X"}}))
	assert.NoError(t, p.Close())
}
