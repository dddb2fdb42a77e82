package repository

import (
	"context"
	"errors"
	"time"

	"StockLens/internal/domain/models"
	domrepo "StockLens/internal/domain/repository"
	"StockLens/pkg/cache"
	applogger "StockLens/pkg/logger"
)

// CachedPriceSource serves repeated range requests from a cache.Service.
type CachedPriceSource struct {
	next    domrepo.PriceSource
	cache   cache.Service
	ttl     time.Duration
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewCachedPriceSource(next domrepo.PriceSource, c cache.Service, ttl time.Duration, metrics domrepo.Metrics, l *applogger.Logger) *CachedPriceSource {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedPriceSource{next: next, cache: c, ttl: ttl, metrics: metrics, l: l}
}

func (s *CachedPriceSource) Name() string { return s.next.Name() }

// Ping checks the cache backend, then the wrapped source when it can be
// pinged.
func (s *CachedPriceSource) Ping(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return err
	}
	if p, ok := s.next.(domrepo.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *CachedPriceSource) FetchBars(ctx context.Context, ticker string, start, end time.Time) ([]models.Bar, error) {
	key := cache.Key("bars", s.next.Name(), ticker, start, end)

	var bars []models.Bar
	err := s.cache.Get(ctx, key, &bars)
	switch {
	case err == nil:
		s.record(true)
		return bars, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.l.Warn("bar cache read failed", applogger.String("key", key), applogger.Error(err))
	}
	s.record(false)

	bars, err = s.next.FetchBars(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, bars, s.ttl); err != nil {
		s.l.Warn("bar cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return bars, nil
}

func (s *CachedPriceSource) record(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCache(hit)
	}
}
