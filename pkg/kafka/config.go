package kafka

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
)

// Config describes a producer writing to a single topic.
type Config struct {
	Brokers []string `validate:"required,min=1,dive,hostname_port"`
	Topic   string   `validate:"required"`
	// Acks is all, leader or none.
	Acks        string `default:"all" validate:"oneof=all leader none"`
	Compression string `default:"gzip" validate:"oneof=none gzip snappy lz4 zstd"`

	MaxAttempts  int           `default:"3" validate:"min=1"`
	WriteTimeout time.Duration `default:"10s"`
	BatchSize    int           `default:"100" validate:"min=1"`
	BatchTimeout time.Duration `default:"50ms"`
}

var configValidator = validator.New()

func (c *Config) resolve() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("kafka defaults: %w", err)
	}
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("kafka config: %w", err)
	}
	return nil
}

func (c Config) requiredAcks() kafka.RequiredAcks {
	switch c.Acks {
	case "none":
		return kafka.RequireNone
	case "leader":
		return kafka.RequireOne
	default:
		return kafka.RequireAll
	}
}

// compression returns the codec; zero means uncompressed.
func (c Config) compression() kafka.Compression {
	switch c.Compression {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	}
	return 0
}

func (c Config) writer() *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           c.requiredAcks(),
		Compression:            c.compression(),
		MaxAttempts:            c.MaxAttempts,
		WriteTimeout:           c.WriteTimeout,
		BatchSize:              c.BatchSize,
		BatchTimeout:           c.BatchTimeout,
		AllowAutoTopicCreation: true,
	}
}
