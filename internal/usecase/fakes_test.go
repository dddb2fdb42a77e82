package usecase

import (
	"context"
	"sync"
	"time"

	"StockLens/internal/domain/models"
)

type fakeSource struct {
	mu    sync.Mutex
	bars  map[string][]models.Bar
	errs  map[string]error
	calls []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{bars: map[string][]models.Bar{}, errs: map[string]error{}}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchBars(_ context.Context, ticker string, _, _ time.Time) ([]models.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ticker)
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	bars, ok := f.bars[ticker]
	if !ok {
		return nil, models.ErrNoData
	}
	return bars, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []models.VolatilityAlert
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, alerts []models.VolatilityAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, alerts...)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// barsOf dates closes one day apart starting at epoch.
func barsOf(closes ...any) []models.Bar {
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{Date: epoch.AddDate(0, 0, i), Close: c}
	}
	return out
}

type fakeStore struct {
	schemaErr error
	schemaOK  int
	stored    map[string]int
}

func (s *fakeStore) EnsureSchema(context.Context) error {
	if s.schemaErr != nil {
		return s.schemaErr
	}
	s.schemaOK++
	return nil
}

func (s *fakeStore) StoreBars(_ context.Context, ticker, _ string, bars []models.Bar) (int, error) {
	if s.stored == nil {
		s.stored = map[string]int{}
	}
	s.stored[ticker] += len(bars)
	return len(bars), nil
}
