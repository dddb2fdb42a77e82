package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"StockLens/internal/domain/models"
	"StockLens/internal/services/anomaly"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(src *fakeSource, pub *fakePublisher, watchlist ...string) *Watcher {
	a := NewAnalyzer(src, DefaultAnalysisConfig(), nil, nil)
	w := NewWatcher(a, pub, WatchConfig{
		Schedule:     "@every 1h",
		Watchlist:    watchlist,
		LookbackDays: 30,
		ZScore:       anomaly.ZScoreOptions{Window: 4, Threshold: 2},
	}, nil)
	w.now = func() time.Time { return epoch.AddDate(0, 0, 10) }
	n := 0
	w.newID = func() string {
		n++
		return fmt.Sprintf("alert-%d", n)
	}
	return w
}

func TestWatcherRunOnce(t *testing.T) {
	src := newFakeSource()
	src.bars["TSLA"] = barsOf(100.0, 101.0, 100.0, 101.0, 100.0, 101.0, 100.0, 130.0)
	src.bars["AAPL"] = barsOf(100.0, 100.0, 100.0, 100.0, 100.0)
	pub := &fakePublisher{}
	w := newTestWatcher(src, pub, "TSLA", "AAPL")

	fresh, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "alert-1", fresh[0].ID)
	assert.Equal(t, "TSLA", fresh[0].Ticker)
	assert.Equal(t, 7, fresh[0].Index)
	assert.Len(t, pub.published, 1)

	// the same bars again produce nothing new
	fresh, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Len(t, pub.published, 1)
	assert.Len(t, w.Recent(), 1)
}

func TestWatcherSkipsFailingTickers(t *testing.T) {
	src := newFakeSource()
	src.errs["AAPL"] = errors.New("timeout")
	src.bars["TSLA"] = barsOf(100.0, 101.0, 100.0, 101.0, 100.0, 101.0, 100.0, 130.0)
	w := newTestWatcher(src, &fakePublisher{}, "AAPL", "TSLA")

	fresh, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestWatcherAllFailed(t *testing.T) {
	src := newFakeSource()
	w := newTestWatcher(src, &fakePublisher{}, "AAPL", "MSFT")
	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestWatcherPublishError(t *testing.T) {
	src := newFakeSource()
	src.bars["TSLA"] = barsOf(100.0, 101.0, 100.0, 101.0, 100.0, 101.0, 100.0, 130.0)
	pub := &fakePublisher{err: errors.New("broker down")}
	w := newTestWatcher(src, pub, "TSLA")

	fresh, err := w.RunOnce(context.Background())
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, fresh, 1)
	assert.Len(t, w.Recent(), 1, "alerts are kept even when publishing fails")
}

func TestWatcherRecentNewestFirstAndCapped(t *testing.T) {
	w := newTestWatcher(newFakeSource(), &fakePublisher{})
	w.cfg.Keep = 3

	for i := 0; i < 5; i++ {
		ts := epoch.AddDate(0, 0, i)
		w.remember([]models.VolatilityAlert{{Ticker: "X", Index: i, Timestamp: &ts}})
	}
	recent := w.Recent()
	require.Len(t, recent, 3)
	assert.True(t, recent[0].Timestamp.Equal(epoch.AddDate(0, 0, 4)))
	assert.True(t, recent[2].Timestamp.Equal(epoch.AddDate(0, 0, 2)))
}

func TestWatcherStartRejectsBadSchedule(t *testing.T) {
	w := newTestWatcher(newFakeSource(), &fakePublisher{})
	w.cfg.Schedule = "not a schedule"
	assert.Error(t, w.Start(context.Background()))

	w.cfg.Schedule = "@every 1h"
	require.NoError(t, w.Start(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Stop(ctx)
}
