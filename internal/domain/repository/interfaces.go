package repository

import (
	"context"
	"time"

	"StockLens/internal/domain/models"
)

// PriceSource returns daily bars for ticker in [start, end], oldest first.
type PriceSource interface {
	Name() string
	FetchBars(ctx context.Context, ticker string, start, end time.Time) ([]models.Bar, error)
}

// AlertPublisher ships volatility alerts to downstream consumers.
type AlertPublisher interface {
	Publish(ctx context.Context, alerts []models.VolatilityAlert) error
	Close() error
}

// BarStore persists daily bars, e.g. to serve them later as a PriceSource.
type BarStore interface {
	EnsureSchema(ctx context.Context) error
	StoreBars(ctx context.Context, ticker, source string, bars []models.Bar) (int, error)
}

// Pinger is implemented by sources and stores that can report whether their
// backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Metrics interface {
	RecordFetch(source string, seconds float64, err error)
	RecordCache(hit bool)
	RecordAnomalies(kind string, n int)
	RecordBreakerState(name string, state int)
}
