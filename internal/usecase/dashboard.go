package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockLens/internal/domain/models"
	domrepo "StockLens/internal/domain/repository"
	"StockLens/internal/services/features"
	"StockLens/internal/services/portfolio"
	applogger "StockLens/pkg/logger"

	"github.com/guregu/null/v6"
)

// maxConcurrentLookups bounds parallel latest-price fetches.
const maxConcurrentLookups = 4

// AlertFeed supplies the alerts shown on the dashboard.
type AlertFeed interface {
	Recent() []models.VolatilityAlert
}

type DashboardConfig struct {
	MaxNews     int
	HistoryDays int
}

// Dashboard holds the loaded portfolio and builds summaries from it. The
// portfolio is replaced wholesale by LoadPortfolio or SetPortfolio.
type Dashboard struct {
	source domrepo.PriceSource
	cfg    DashboardConfig
	alerts AlertFeed
	l      *applogger.Logger
	now    func() time.Time

	mu        sync.RWMutex
	portfolio models.Portfolio
	origin    string
}

func NewDashboard(source domrepo.PriceSource, cfg DashboardConfig, alerts AlertFeed, l *applogger.Logger) *Dashboard {
	if cfg.MaxNews == 0 {
		cfg.MaxNews = portfolio.DefaultMaxNews
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 14
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Dashboard{
		source:    source,
		cfg:       cfg,
		alerts:    alerts,
		l:         l,
		now:       time.Now,
		portfolio: models.Portfolio{},
	}
}

// LoadPortfolio replaces the portfolio with the contents of a CSV file.
func (d *Dashboard) LoadPortfolio(path string) ([]models.RowResult, error) {
	p, rows, err := portfolio.LoadCSV(path)
	if err != nil {
		return nil, err
	}
	skipped := 0
	for _, r := range rows {
		if r.Skipped {
			skipped++
			d.l.Warn("portfolio row skipped",
				applogger.Int("line", r.Line),
				applogger.String("reason", r.Reason),
			)
		}
	}
	d.SetPortfolio(p, path)
	d.l.Info("portfolio loaded",
		applogger.String("path", path),
		applogger.Int("positions", len(p)),
		applogger.Int("skipped", skipped),
	)
	return rows, nil
}

func (d *Dashboard) SetPortfolio(p models.Portfolio, origin string) {
	cp := make(models.Portfolio, len(p))
	for k, v := range p {
		cp[k] = v
	}
	d.mu.Lock()
	d.portfolio = cp
	d.origin = origin
	d.mu.Unlock()
}

// Portfolio returns a copy of the loaded portfolio.
func (d *Dashboard) Portfolio() models.Portfolio {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cp := make(models.Portfolio, len(d.portfolio))
	for k, v := range d.portfolio {
		cp[k] = v
	}
	return cp
}

func (d *Dashboard) Summary() models.PortfolioSummary {
	d.mu.RLock()
	origin := d.origin
	d.mu.RUnlock()
	s := portfolio.Summarize(d.Portfolio())
	s.Source = origin
	return s
}

// LatestPrice returns the last non-null close within the configured history
// window ending today.
func (d *Dashboard) LatestPrice(ctx context.Context, ticker string) (null.Float, error) {
	end := d.now()
	start := end.AddDate(0, 0, -d.cfg.HistoryDays)
	bars, err := d.source.FetchBars(ctx, ticker, start, end)
	if err != nil {
		return null.Float{}, err
	}
	prices := features.NormalizePrices(features.CloseColumn(bars))
	v, ok := models.LastValid(prices)
	if !ok {
		return null.Float{}, fmt.Errorf("%w: no close for %s in the last %d days", models.ErrNoData, ticker, d.cfg.HistoryDays)
	}
	return null.FloatFrom(v), nil
}

// LatestPrices looks up every ticker concurrently. Failed lookups map to null
// and come back as warnings.
func (d *Dashboard) LatestPrices(ctx context.Context, tickers []string) (map[string]null.Float, []string) {
	prices := make(map[string]null.Float, len(tickers))
	failures := make(map[string]error)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, maxConcurrentLookups)
	)
	for _, t := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			price, err := d.LatestPrice(ctx, ticker)
			mu.Lock()
			defer mu.Unlock()
			prices[ticker] = price
			if err != nil {
				failures[ticker] = err
			}
		}(t)
	}
	wg.Wait()

	// report in ticker order so output is stable
	var warnings []string
	for _, t := range tickers {
		if err, ok := failures[t]; ok {
			d.l.Warn("latest price lookup failed", applogger.String("ticker", t), applogger.Error(err))
			warnings = append(warnings, fmt.Sprintf("price unavailable for %s: %v", t, err))
		}
	}
	return prices, warnings
}

// Build prices the given portfolio, or the loaded one when p is empty. A nil
// alerts slice falls back to the alert feed.
func (d *Dashboard) Build(ctx context.Context, p models.Portfolio, news []models.NewsItem, alerts []models.VolatilityAlert, maxNews *int) (*models.DashboardSummary, error) {
	if len(p) == 0 {
		p = d.Portfolio()
	}
	limit := d.cfg.MaxNews
	if maxNews != nil {
		limit = *maxNews
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: max_news must be non-negative, got %d", models.ErrInvalidArgument, limit)
	}
	if alerts == nil && d.alerts != nil {
		alerts = d.alerts.Recent()
	}

	began := time.Now()
	prices, warnings := d.LatestPrices(ctx, portfolio.Tickers(p))
	summary, err := portfolio.BuildDashboard(p, prices, news, alerts, limit)
	observe("dashboard", began, Classify(err))
	if err != nil {
		return nil, err
	}
	summary.Warnings = warnings
	return summary, nil
}

// NormalizePortfolio upper-cases and validates request positions. Later
// entries for the same ticker win.
func NormalizePortfolio(positions []models.Position) (models.Portfolio, error) {
	out := make(models.Portfolio, len(positions))
	for i, pos := range positions {
		t, err := models.NormalizeTicker(pos.Ticker)
		if err != nil {
			return nil, fmt.Errorf("portfolio[%d]: %w", i, err)
		}
		if pos.Shares < 0 || pos.BuyPrice < 0 {
			return nil, fmt.Errorf("%w: portfolio[%d]: shares and buy_price must be non-negative", models.ErrInvalidArgument, i)
		}
		pos.Ticker = t
		out[t] = pos
	}
	return out, nil
}
