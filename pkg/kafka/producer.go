package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON messages to one topic.
type Producer struct {
	writer  MessageWriter
	topic   string
	metrics *producerMetrics
}

// NewProducer validates cfg and opens a kafka.Writer. A nil registerer
// skips metrics.
func NewProducer(cfg Config, reg prometheus.Registerer) (*Producer, error) {
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return NewProducerWithWriter(cfg.writer(), cfg.Topic, reg), nil
}

// NewProducerWithWriter wires a producer around any MessageWriter.
func NewProducerWithWriter(w MessageWriter, topic string, reg prometheus.Registerer) *Producer {
	p := &Producer{writer: w, topic: topic}
	if reg != nil {
		p.metrics = newProducerMetrics(reg)
	}
	return p
}

// Topic returns the topic messages are written to.
func (p *Producer) Topic() string { return p.topic }

// Message is one record to publish. Value is JSON encoded unless it is
// already []byte or string.
type Message struct {
	Key   []byte
	Value interface{}
}

// Publish sends one message.
func (p *Producer) Publish(ctx context.Context, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, []Message{{Key: key, Value: value}})
}

// PublishBatch encodes every message first and then writes them in a single
// call, so an encoding failure publishes nothing.
func (p *Producer) PublishBatch(ctx context.Context, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	now := time.Now()
	out := make([]kafka.Message, len(messages))
	size := 0
	for i, m := range messages {
		v, err := encode(m.Value)
		if err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		out[i] = kafka.Message{Key: m.Key, Value: v, Time: now}
		size += len(v)
	}

	err := p.writer.WriteMessages(ctx, out...)
	p.metrics.observe(p.topic, len(out), size, time.Since(now), err)
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", p.topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return b, nil
}

type producerMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newProducerMetrics(reg prometheus.Registerer) *producerMetrics {
	return &producerMetrics{
		messages: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_kafka_messages_total",
			Help: "Messages handed to Kafka by result",
		}, []string{"topic", "result"})),
		bytes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_kafka_bytes_total",
			Help: "Encoded payload bytes handed to Kafka",
		}, []string{"topic"})),
		latency: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stocklens_kafka_write_seconds",
			Help:    "Kafka batch write latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})),
	}
}

// register returns the collector already registered under the same name,
// so two producers on one registerer share series.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *producerMetrics) observe(topic string, count, size int, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, result).Add(float64(count))
	if err == nil {
		m.bytes.WithLabelValues(topic).Add(float64(size))
	}
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}
