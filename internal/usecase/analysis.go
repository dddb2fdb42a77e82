package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockLens/internal/domain/models"
	domrepo "StockLens/internal/domain/repository"
	domsvc "StockLens/internal/domain/service"
	"StockLens/internal/service/metrics"
	"StockLens/internal/services/anomaly"
	"StockLens/internal/services/chart"
	"StockLens/internal/services/features"
	"StockLens/internal/services/indicators"
	applogger "StockLens/pkg/logger"
	"StockLens/pkg/util"

	"github.com/guregu/null/v6"
)

// AnalysisConfig holds the indicator and detector parameters of the
// timeseries pipeline.
type AnalysisConfig struct {
	SMAWindow        int
	RSIWindow        int
	AnomalyThreshold float64
	Divisor          indicators.DivisorMode
	ZScore           anomaly.ZScoreOptions
	Timeout          time.Duration
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		SMAWindow:        20,
		RSIWindow:        14,
		AnomalyThreshold: 0.07,
		Divisor:          indicators.DivideByWindow,
		ZScore:           anomaly.DefaultZScoreOptions(),
		Timeout:          30 * time.Second,
	}
}

// Analyzer runs fetch, normalize, indicators, anomalies and payload building
// for one ticker. It holds no per-request state.
type Analyzer struct {
	source  domrepo.PriceSource
	cfg     AnalysisConfig
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewAnalyzer(source domrepo.PriceSource, cfg AnalysisConfig, m domrepo.Metrics, l *applogger.Logger) *Analyzer {
	if l == nil {
		l = applogger.Nop()
	}
	return &Analyzer{source: source, cfg: cfg, metrics: m, l: l}
}

// Config returns the parameters the analyzer was built with.
func (a *Analyzer) Config() AnalysisConfig { return a.cfg }

// Timeseries parses user supplied dates and runs Analyze.
func (a *Analyzer) Timeseries(ctx context.Context, ticker, start, end string) models.AnalysisResult {
	from, err := util.ParseDate(start)
	if err != nil {
		return models.Failed(models.FailureInvalidInput, "Invalid start date: %s", start)
	}
	to, err := util.ParseDate(end)
	if err != nil {
		return models.Failed(models.FailureInvalidInput, "Invalid end date: %s", end)
	}
	return a.Analyze(ctx, ticker, from, to)
}

// Analyze builds the "<TICKER> Price Chart" payload with SMA, RSI and
// percent-change anomalies. Failures come back as an error result.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, start, end time.Time) models.AnalysisResult {
	began := time.Now()
	res := a.analyze(ctx, ticker, start, end)
	observe("timeseries", began, res.Kind)
	if !res.OK() {
		a.l.Warn("analysis failed",
			applogger.String("ticker", ticker),
			applogger.String("kind", string(res.Kind)),
			applogger.String("error", res.Error),
		)
	}
	return res
}

func (a *Analyzer) analyze(ctx context.Context, ticker string, start, end time.Time) models.AnalysisResult {
	sym, err := models.NormalizeTicker(ticker)
	if err != nil {
		return models.Failed(models.FailureInvalidInput, "Invalid ticker: %s", ticker)
	}
	if util.StartOfDay(end).Before(util.StartOfDay(start)) {
		return models.Failed(models.FailureInvalidInput, "start date %s is after end date %s",
			start.Format(util.DateLayout), end.Format(util.DateLayout))
	}

	series, err := a.History(ctx, sym, start, end)
	if err != nil {
		return fetchFailure(sym, start, end, err)
	}

	payload, err := a.compute(series.Prices, series.Timestamps, sym+" Price Chart", a.params())
	if err != nil {
		return models.Failed(Classify(err), "%v", err)
	}
	return models.Succeeded(payload)
}

// AnalyzePrices runs the same engine over caller supplied prices without a
// fetch.
func (a *Analyzer) AnalyzePrices(req models.IndicatorsRequest) models.AnalysisResult {
	began := time.Now()
	res := a.analyzePrices(req)
	observe("indicators", began, res.Kind)
	return res
}

func (a *Analyzer) analyzePrices(req models.IndicatorsRequest) models.AnalysisResult {
	if len(req.Prices) == 0 {
		return models.Failed(models.FailureInvalidInput, "prices must not be empty")
	}
	prices := features.NormalizePrices(req.Prices)

	var timestamps []time.Time
	if len(req.Timestamps) > 0 {
		timestamps = make([]time.Time, len(req.Timestamps))
		for i, s := range req.Timestamps {
			t, err := util.ParseDate(s)
			if err != nil {
				return models.Failed(models.FailureInvalidInput, "timestamps[%d]: %v", i, err)
			}
			timestamps[i] = t
		}
	}

	divisor, err := indicators.ParseDivisorMode(req.Divisor)
	if err != nil {
		return models.Failed(models.FailureInvalidInput, "%v", err)
	}
	p := runParams{
		smaWindow: orDefault(req.SMAWindow, a.cfg.SMAWindow),
		rsiWindow: orDefault(req.RSIWindow, a.cfg.RSIWindow),
		threshold: req.Threshold,
		divisor:   divisor,
	}
	if p.threshold == 0 {
		p.threshold = a.cfg.AnomalyThreshold
	}

	title := req.Title
	if title == "" {
		title = chart.DefaultTitle
	}
	payload, err := a.compute(prices, timestamps, title, p)
	if err != nil {
		return models.Failed(Classify(err), "%v", err)
	}
	return models.Succeeded(payload)
}

// VolatilityAlerts fetches the range and runs the rolling z-score detector.
// Zero-valued options fall back to the configured ones.
func (a *Analyzer) VolatilityAlerts(ctx context.Context, ticker string, start, end time.Time, opts anomaly.ZScoreOptions) ([]models.VolatilityAlert, error) {
	began := time.Now()
	alerts, err := a.volatilityAlerts(ctx, ticker, start, end, opts)
	kind := models.FailureKind("")
	if err != nil {
		kind = Classify(err)
	}
	observe("zscore", began, kind)
	return alerts, err
}

func (a *Analyzer) volatilityAlerts(ctx context.Context, ticker string, start, end time.Time, opts anomaly.ZScoreOptions) ([]models.VolatilityAlert, error) {
	sym, err := models.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if opts.Window == 0 {
		opts.Window = a.cfg.ZScore.Window
	}
	if opts.Threshold == 0 {
		opts.Threshold = a.cfg.ZScore.Threshold
	}
	if opts.MinNonNull == 0 {
		opts.MinNonNull = a.cfg.ZScore.MinNonNull
	}

	series, err := a.History(ctx, sym, start, end)
	if err != nil {
		return nil, err
	}
	alerts, err := anomaly.ZScore(series.Prices, series.Timestamps, opts)
	if err != nil {
		return nil, err
	}
	for i := range alerts {
		alerts[i].Ticker = sym
	}
	a.recordAnomalies("zscore", len(alerts))
	return alerts, nil
}

// History fetches bars and normalizes the close column. Gaps stay in place.
func (a *Analyzer) History(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	bars, err := a.source.FetchBars(ctx, ticker, start, end)
	if err != nil {
		return models.PriceSeries{}, err
	}
	if len(bars) == 0 {
		return models.PriceSeries{}, fmt.Errorf("%w: %s", models.ErrNoData, ticker)
	}

	timestamps := make([]time.Time, len(bars))
	for i, b := range bars {
		timestamps[i] = b.Date
	}
	return models.PriceSeries{
		Ticker:     ticker,
		Timestamps: timestamps,
		Prices:     features.NormalizePrices(features.CloseColumn(bars)),
	}, nil
}

type runParams struct {
	smaWindow int
	rsiWindow int
	threshold float64
	divisor   indicators.DivisorMode
}

func (a *Analyzer) params() runParams {
	return runParams{
		smaWindow: a.cfg.SMAWindow,
		rsiWindow: a.cfg.RSIWindow,
		threshold: a.cfg.AnomalyThreshold,
		divisor:   a.cfg.Divisor,
	}
}

func (a *Analyzer) compute(prices []null.Float, timestamps []time.Time, title string, p runParams) (*models.ChartPayload, error) {
	set := models.IndicatorSet{}
	for _, ind := range []domsvc.Indicator{
		indicators.MovingAverage{Window: p.smaWindow, Mode: p.divisor},
		indicators.StrengthIndex{Window: p.rsiWindow},
	} {
		vals, err := ind.Compute(prices)
		if err != nil {
			return nil, err
		}
		set[ind.Name()] = vals
	}

	detector := anomaly.PercentChangeDetector{Threshold: p.threshold}
	flagged, err := detector.Detect(models.PriceSeries{Timestamps: timestamps, Prices: prices})
	if err != nil {
		return nil, err
	}
	a.recordAnomalies(detector.Name(), len(flagged))

	payload, err := chart.BuildPayload(prices, timestamps, set, title)
	if err != nil {
		return nil, err
	}
	payload.Anomalies = flagged
	return payload, nil
}

func (a *Analyzer) recordAnomalies(kind string, n int) {
	if a.metrics != nil {
		a.metrics.RecordAnomalies(kind, n)
	}
}

// Classify maps an error from the pipeline to a failure kind.
func Classify(err error) models.FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrInvalidArgument), errors.Is(err, models.ErrInvalidTicker):
		return models.FailureInvalidInput
	case errors.Is(err, models.ErrNoData):
		return models.FailureNoData
	case errors.Is(err, context.Canceled):
		return models.FailureInternal
	default:
		// anything else surfaced from a price source
		return models.FailureUpstream
	}
}

func fetchFailure(ticker string, start, end time.Time, err error) models.AnalysisResult {
	switch Classify(err) {
	case models.FailureNoData:
		return models.Failed(models.FailureNoData, "No data found for %s between %s and %s.",
			ticker, start.Format(util.DateLayout), end.Format(util.DateLayout))
	case models.FailureInvalidInput:
		return models.Failed(models.FailureInvalidInput, "%v", err)
	default:
		return models.Failed(models.FailureUpstream, "Failed to fetch data: %v", err)
	}
}

func observe(operation string, began time.Time, kind models.FailureKind) {
	metrics.AnalysisLatency.WithLabelValues(operation).Observe(time.Since(began).Seconds())
	if kind != "" {
		metrics.AnalysisErrors.WithLabelValues(operation, string(kind)).Inc()
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
