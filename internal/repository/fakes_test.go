package repository

import (
	"context"
	"sync"
	"time"

	"StockLens/internal/domain/models"
)

type stubSource struct {
	mu    sync.Mutex
	calls int
	bars  []models.Bar
	err   error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchBars(_ context.Context, _ string, _, _ time.Time) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.bars, s.err
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingMetrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	states  []int
	fetches int
}

func (m *recordingMetrics) RecordFetch(string, float64, error) {
	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()
}

func (m *recordingMetrics) RecordCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *recordingMetrics) RecordAnomalies(string, int) {}

func (m *recordingMetrics) RecordBreakerState(_ string, state int) {
	m.mu.Lock()
	m.states = append(m.states, state)
	m.mu.Unlock()
}
