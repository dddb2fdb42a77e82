package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockLens/internal/domain/models"
	domrepo "StockLens/internal/domain/repository"
	xhttp "StockLens/pkg/http"
	applogger "StockLens/pkg/logger"
	"StockLens/pkg/util"

	"golang.org/x/time/rate"
)

const yahooSourceName = "yahoo"

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooPriceSource reads daily closes from the public chart API. Calls are
// throttled and retried; wrap it in a BreakerPriceSource to shed load when
// Yahoo is down.
type YahooPriceSource struct {
	client    *xhttp.Client
	baseURL   string
	interval  domrepo.Interval
	limiter   *rate.Limiter
	retry     RetryConfig
	metrics   domrepo.Metrics
	l         *applogger.Logger
	symbolMap map[string]string
}

// YahooOption configures YahooPriceSource.
type YahooOption func(*YahooPriceSource)

func WithYahooBaseURL(u string) YahooOption {
	return func(s *YahooPriceSource) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithYahooInterval(iv string) YahooOption {
	return func(s *YahooPriceSource) { s.interval = domrepo.NormalizeInterval(iv) }
}

// WithYahooRateLimit caps outbound requests per second; <= 0 disables throttling.
func WithYahooRateLimit(rps float64) YahooOption {
	return func(s *YahooPriceSource) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func WithYahooRetry(cfg RetryConfig) YahooOption {
	return func(s *YahooPriceSource) { s.retry = cfg }
}

func WithYahooMetrics(m domrepo.Metrics) YahooOption {
	return func(s *YahooPriceSource) { s.metrics = m }
}

func WithYahooLogger(l *applogger.Logger) YahooOption {
	return func(s *YahooPriceSource) {
		if l != nil {
			s.l = l
		}
	}
}

func NewYahooPriceSource(client *xhttp.Client, opts ...YahooOption) *YahooPriceSource {
	s := &YahooPriceSource{
		client:   client,
		baseURL:  "https://query1.finance.yahoo.com",
		interval: domrepo.DefaultInterval(),
		limiter:  rate.NewLimiter(rate.Limit(2), 1),
		retry:    DefaultRetryConfig,
		l:        applogger.Nop(),
		symbolMap: map[string]string{
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
			"DJI":    "^DJI",
			"VIX":    "^VIX",
			"RUT":    "^RUT",
			"NASDAQ": "^IXIC",
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *YahooPriceSource) Name() string { return yahooSourceName }

// FetchBars returns one bar per trading day in [start, end], both inclusive,
// dated at midnight UTC. Closes are passed through untouched (numbers or nil).
func (s *YahooPriceSource) FetchBars(ctx context.Context, ticker string, start, end time.Time) ([]models.Bar, error) {
	from, to := util.StartOfDay(start), util.StartOfDay(end)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: start %s is after end %s", models.ErrInvalidArgument, from.Format(util.DateLayout), to.Format(util.DateLayout))
	}

	began := time.Now()
	var chart yahooChart
	err := WithRetry(ctx, s.retry, s.l, func() error {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return Permanent(err)
			}
		}
		chart = yahooChart{}
		err := s.client.GetJSON(ctx,
			fmt.Sprintf("%s/v8/finance/chart/%s", s.baseURL, url.PathEscape(s.yahooSymbol(ticker))),
			url.Values{
				"period1":  {strconv.FormatInt(from.Unix(), 10)},
				"period2":  {strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10)},
				"interval": {string(s.interval)},
				"events":   {"history"},
			}, &chart)
		return classifyYahooError(err)
	})

	var bars []models.Bar
	if err == nil {
		bars, err = s.toBars(chart, from, to)
	}
	if s.metrics != nil {
		s.metrics.RecordFetch(yahooSourceName, time.Since(began).Seconds(), ignoreNoData(err))
	}
	if err != nil {
		s.l.Warn("yahoo fetch failed",
			applogger.String("ticker", ticker),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("yahoo %s: %w", ticker, err)
	}

	s.l.Debug("yahoo fetch ok",
		applogger.String("ticker", ticker),
		applogger.Int("bars", len(bars)),
		applogger.Duration("duration_ms", time.Since(began)),
	)
	return bars, nil
}

func (s *YahooPriceSource) yahooSymbol(symbol string) string {
	if mapped, ok := s.symbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

func (s *YahooPriceSource) toBars(chart yahooChart, from, to time.Time) ([]models.Bar, error) {
	if chart.Chart.Error != nil {
		if chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", models.ErrNoData, chart.Chart.Error.Description)
		}
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("%w: empty chart", models.ErrNoData)
	}

	result := chart.Chart.Result[0]
	var closes []interface{}
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	byDay := make(map[time.Time]int, len(result.Timestamp))
	bars := make([]models.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		day := util.StartOfDay(time.Unix(ts, 0))
		if day.Before(from) || day.After(to) {
			continue
		}
		var c interface{}
		if i < len(closes) {
			c = closes[i]
		}
		// a repeated day (live bar after the daily one) replaces the earlier row
		if j, ok := byDay[day]; ok {
			bars[j].Close = c
			continue
		}
		byDay[day] = len(bars)
		bars = append(bars, models.Bar{Date: day, Close: c})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars in range", models.ErrNoData)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func classifyYahooError(err error) error {
	if err == nil {
		return nil
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusNotFound {
			return Permanent(fmt.Errorf("%w: %v", models.ErrNoData, se))
		}
		if !se.Retryable() {
			return Permanent(err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Permanent(err)
	}
	return err
}

func ignoreNoData(err error) error {
	if errors.Is(err, models.ErrNoData) {
		return nil
	}
	return err
}
