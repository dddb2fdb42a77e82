package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockLens/internal/domain/models"
	domrepo "StockLens/internal/domain/repository"
	"StockLens/internal/services/anomaly"
	applogger "StockLens/pkg/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// defaultKeep is how many recent alerts the watcher remembers.
const defaultKeep = 50

type WatchConfig struct {
	Schedule     string
	Watchlist    []string
	LookbackDays int
	ZScore       anomaly.ZScoreOptions
	Keep         int
}

// Watcher periodically scans a watchlist for z-score volatility alerts,
// remembers the newest ones and publishes those it has not seen before.
type Watcher struct {
	analyzer  *Analyzer
	publisher domrepo.AlertPublisher
	cfg       WatchConfig
	cron      *cron.Cron
	l         *applogger.Logger
	now       func() time.Time
	newID     func() string

	mu     sync.RWMutex
	recent []models.VolatilityAlert
	seen   map[string]struct{}
}

func NewWatcher(analyzer *Analyzer, publisher domrepo.AlertPublisher, cfg WatchConfig, l *applogger.Logger) *Watcher {
	if cfg.Keep <= 0 {
		cfg.Keep = defaultKeep
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 120
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Watcher{
		analyzer:  analyzer,
		publisher: publisher,
		cfg:       cfg,
		cron:      cron.New(),
		l:         l.Component("watcher"),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		seen:      make(map[string]struct{}),
	}
}

// Start registers the scan on the configured schedule and starts the cron.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.cfg.Schedule, func() {
		if _, err := w.RunOnce(ctx); err != nil {
			w.l.Error("watch run failed", applogger.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register watch schedule %q: %w", w.cfg.Schedule, err)
	}
	w.cron.Start()
	w.l.Info("watcher started",
		applogger.String("schedule", w.cfg.Schedule),
		applogger.Strings("watchlist", w.cfg.Watchlist),
	)
	return nil
}

// Stop waits for a running scan to finish or ctx to expire.
func (w *Watcher) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	w.l.Info("watcher stopped")
}

// RunOnce scans every watchlist ticker and returns the alerts that were new.
// A ticker that fails is logged and skipped.
func (w *Watcher) RunOnce(ctx context.Context) ([]models.VolatilityAlert, error) {
	end := w.now()
	start := end.AddDate(0, 0, -w.cfg.LookbackDays)

	var fresh []models.VolatilityAlert
	failed := 0
	for _, ticker := range w.cfg.Watchlist {
		alerts, err := w.analyzer.VolatilityAlerts(ctx, ticker, start, end, w.cfg.ZScore)
		if err != nil {
			failed++
			w.l.Warn("watch scan failed", applogger.String("ticker", ticker), applogger.Error(err))
			continue
		}
		fresh = append(fresh, w.remember(alerts)...)
	}

	if len(fresh) > 0 && w.publisher != nil {
		if err := w.publisher.Publish(ctx, fresh); err != nil {
			return fresh, fmt.Errorf("publish %d alerts: %w", len(fresh), err)
		}
	}
	w.l.Info("watch run complete",
		applogger.Int("tickers", len(w.cfg.Watchlist)),
		applogger.Int("failed", failed),
		applogger.Int("new_alerts", len(fresh)),
	)
	if failed > 0 && failed == len(w.cfg.Watchlist) {
		return fresh, fmt.Errorf("all %d watchlist tickers failed", failed)
	}
	return fresh, nil
}

// remember assigns ids to unseen alerts and pushes them to the front of the
// recent list.
func (w *Watcher) remember(alerts []models.VolatilityAlert) []models.VolatilityAlert {
	w.mu.Lock()
	defer w.mu.Unlock()

	var fresh []models.VolatilityAlert
	for _, a := range alerts {
		key := alertKey(a)
		if _, ok := w.seen[key]; ok {
			continue
		}
		w.seen[key] = struct{}{}
		a.ID = w.newID()
		fresh = append(fresh, a)
	}
	if len(fresh) == 0 {
		return nil
	}

	// newest bar first
	merged := make([]models.VolatilityAlert, 0, len(fresh)+len(w.recent))
	for i := len(fresh) - 1; i >= 0; i-- {
		merged = append(merged, fresh[i])
	}
	merged = append(merged, w.recent...)
	if len(merged) > w.cfg.Keep {
		merged = merged[:w.cfg.Keep]
	}
	w.recent = merged
	return fresh
}

// Recent returns a copy of the remembered alerts, newest first.
func (w *Watcher) Recent() []models.VolatilityAlert {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]models.VolatilityAlert, len(w.recent))
	copy(out, w.recent)
	return out
}

func alertKey(a models.VolatilityAlert) string {
	if a.Timestamp != nil {
		return a.Ticker + "|" + a.Timestamp.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s|#%d", a.Ticker, a.Index)
}
