package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockLens/internal/domain/models"
	domrepo "StockLens/internal/domain/repository"
	applogger "StockLens/pkg/logger"

	"github.com/sony/gobreaker/v2"
)

// ErrSourceUnavailable is returned while the breaker rejects calls.
var ErrSourceUnavailable = errors.New("price source unavailable")

// BreakerConfig holds configuration for a circuit breaker
type BreakerConfig struct {
	MaxRequests uint32        // max requests allowed in half-open state
	Interval    time.Duration // cyclic period of the closed state to clear counts
	Timeout     time.Duration // period of the open state before transitioning to half-open
}

var DefaultBreakerConfig = BreakerConfig{
	MaxRequests: 3,
	Interval:    time.Minute,
	Timeout:     30 * time.Second,
}

// BreakerPriceSource guards another PriceSource with a circuit breaker. Bad
// input and empty ranges do not count as failures.
type BreakerPriceSource struct {
	next domrepo.PriceSource
	cb   *gobreaker.CircuitBreaker[[]models.Bar]
	l    *applogger.Logger
}

func NewBreakerPriceSource(next domrepo.PriceSource, cfg BreakerConfig, metrics domrepo.Metrics, l *applogger.Logger) *BreakerPriceSource {
	if l == nil {
		l = applogger.Nop()
	}
	name := next.Name()
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, models.ErrNoData) ||
				errors.Is(err, models.ErrInvalidArgument) ||
				errors.Is(err, models.ErrInvalidTicker) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state change",
				applogger.String("breaker", name),
				applogger.String("from", from.String()),
				applogger.String("to", to.String()),
			)
			if metrics != nil {
				metrics.RecordBreakerState(name, stateToInt(to))
			}
		},
	}
	return &BreakerPriceSource{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[]models.Bar](settings),
		l:    l,
	}
}

func (b *BreakerPriceSource) Name() string { return b.next.Name() }

// State exposes the breaker state for health output.
func (b *BreakerPriceSource) State() string { return b.cb.State().String() }

// Ping fails while the breaker is open.
func (b *BreakerPriceSource) Ping(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s: %w", b.next.Name(), ErrSourceUnavailable)
	}
	if p, ok := b.next.(domrepo.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (b *BreakerPriceSource) FetchBars(ctx context.Context, ticker string, start, end time.Time) ([]models.Bar, error) {
	bars, err := b.cb.Execute(func() ([]models.Bar, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return b.next.FetchBars(ctx, ticker, start, end)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, b.Name(), err)
	}
	return bars, err
}

// stateToInt converts a circuit breaker state to an integer for metrics
// 0=closed, 1=half-open, 2=open
func stateToInt(state gobreaker.State) int {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
