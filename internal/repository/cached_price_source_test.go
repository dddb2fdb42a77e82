package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockLens/internal/domain/models"
	"StockLens/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedPriceSourceServesRepeatsFromCache(t *testing.T) {
	stub := &stubSource{bars: []models.Bar{
		{Date: day("2024-01-02"), Close: 10.5},
		{Date: day("2024-01-03"), Close: nil},
	}}
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })
	m := &recordingMetrics{}
	src := NewCachedPriceSource(stub, mem, time.Minute, m, nil)

	first, err := src.FetchBars(context.Background(), "AAPL", day("2024-01-02"), day("2024-01-03"))
	require.NoError(t, err)
	second, err := src.FetchBars(context.Background(), "AAPL", day("2024-01-02"), day("2024-01-03"))
	require.NoError(t, err)

	assert.Equal(t, 1, stub.Calls())
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].Date, second[0].Date)
	assert.Equal(t, 10.5, second[0].Close)
	assert.Nil(t, second[1].Close)
	assert.Equal(t, "stub", src.Name())
}

func TestCachedPriceSourceKeysByRange(t *testing.T) {
	stub := &stubSource{bars: []models.Bar{{Date: day("2024-01-02"), Close: 1.0}}}
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })
	src := NewCachedPriceSource(stub, mem, time.Minute, nil, nil)

	_, err := src.FetchBars(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-02"))
	require.NoError(t, err)
	_, err = src.FetchBars(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-03"))
	require.NoError(t, err)
	_, err = src.FetchBars(context.Background(), "MSFT", day("2024-01-01"), day("2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, 3, stub.Calls())
	assert.NoError(t, src.Ping(context.Background()))
}

func TestCachedPriceSourceDoesNotCacheErrors(t *testing.T) {
	stub := &stubSource{err: errors.New("upstream down")}
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })
	src := NewCachedPriceSource(stub, mem, time.Minute, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := src.FetchBars(context.Background(), "AAPL", day("2024-01-01"), day("2024-01-02"))
		assert.Error(t, err)
	}
	assert.Equal(t, 2, stub.Calls())
	assert.Equal(t, 0, mem.Len())
}
