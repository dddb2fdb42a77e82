package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"StockLens/internal/domain/models"
	"StockLens/internal/services/anomaly"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingWithJump() []models.Bar {
	closes := make([]any, 25)
	for i := 0; i < 24; i++ {
		closes[i] = float64(100 + i)
	}
	closes[24] = 150.0
	return barsOf(closes...)
}

func TestAnalyze(t *testing.T) {
	src := newFakeSource()
	src.bars["AAPL"] = risingWithJump()
	a := NewAnalyzer(src, DefaultAnalysisConfig(), nil, nil)

	res := a.Analyze(context.Background(), " aapl ", epoch, epoch.AddDate(0, 0, 24))
	require.True(t, res.OK(), res.Error)

	p := res.Payload
	assert.Equal(t, "AAPL Price Chart", p.Title)
	assert.Equal(t, "2024-01-01", p.Labels[0])
	require.Len(t, p.Datasets, 3)
	assert.Equal(t, []string{"Price", "RSI_14", "SMA_20"}, []string{p.Datasets[0].Label, p.Datasets[1].Label, p.Datasets[2].Label})
	assert.Equal(t, []int{24}, p.Anomalies)

	sma := p.Indicators["SMA_20"]
	require.Len(t, sma, 25)
	assert.False(t, sma[18].Valid)
	assert.InDelta(t, 109.5, sma[19].Float64, 1e-9)
	rsi := p.Indicators["RSI_14"]
	assert.InDelta(t, 100.0, rsi[13].Float64, 1e-9)
	assert.Equal(t, []string{"AAPL"}, src.calls)
}

func TestAnalyzeFailures(t *testing.T) {
	src := newFakeSource()
	src.errs["MSFT"] = errors.New("connection reset")
	a := NewAnalyzer(src, DefaultAnalysisConfig(), nil, nil)
	end := epoch.AddDate(0, 0, 30)

	tests := []struct {
		name   string
		ticker string
		kind   models.FailureKind
		msg    string
	}{
		{"invalid ticker", "NOT A TICKER", models.FailureInvalidInput, "Invalid ticker: NOT A TICKER"},
		{"no data", "AAPL", models.FailureNoData, "No data found for AAPL between 2024-01-01 and 2024-01-31."},
		{"upstream", "MSFT", models.FailureUpstream, "Failed to fetch data: connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := a.Analyze(context.Background(), tt.ticker, epoch, end)
			assert.False(t, res.OK())
			assert.Nil(t, res.Payload)
			assert.Equal(t, tt.kind, res.Kind)
			assert.Equal(t, tt.msg, res.Error)

			body, err := json.Marshal(res)
			require.NoError(t, err)
			assert.JSONEq(t, `{"error":"`+tt.msg+`"}`, string(body))
		})
	}
}

func TestTimeseriesParsesDates(t *testing.T) {
	src := newFakeSource()
	src.bars["AAPL"] = risingWithJump()
	a := NewAnalyzer(src, DefaultAnalysisConfig(), nil, nil)

	res := a.Timeseries(context.Background(), "AAPL", "2024-01-01", "01/25/2024")
	assert.True(t, res.OK())

	res = a.Timeseries(context.Background(), "AAPL", "yesterday", "2024-01-25")
	assert.Equal(t, models.FailureInvalidInput, res.Kind)
	assert.Equal(t, "Invalid start date: yesterday", res.Error)

	res = a.Timeseries(context.Background(), "AAPL", "2024-02-01", "2024-01-01")
	assert.Equal(t, models.FailureInvalidInput, res.Kind)
	assert.Len(t, src.calls, 1, "bad input must not reach the source")
}

func TestAnalyzePrices(t *testing.T) {
	a := NewAnalyzer(newFakeSource(), DefaultAnalysisConfig(), nil, nil)

	res := a.AnalyzePrices(models.IndicatorsRequest{
		Prices:    []any{100, "102", 101.0, nil, 105, 150},
		SMAWindow: 2,
		RSIWindow: 2,
		Threshold: 0.07,
	})
	require.True(t, res.OK(), res.Error)
	p := res.Payload
	assert.Equal(t, "Price Chart", p.Title)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5"}, p.Labels)
	assert.Equal(t, []int{5}, p.Anomalies)
	assert.False(t, p.Datasets[0].Data[3].Valid)
	assert.Contains(t, p.Indicators, "SMA_2")
	assert.Contains(t, p.Indicators, "RSI_2")
}

func TestAnalyzePricesValidation(t *testing.T) {
	a := NewAnalyzer(newFakeSource(), DefaultAnalysisConfig(), nil, nil)

	res := a.AnalyzePrices(models.IndicatorsRequest{})
	assert.Equal(t, models.FailureInvalidInput, res.Kind)

	res = a.AnalyzePrices(models.IndicatorsRequest{Prices: []any{1, 2}, Timestamps: []string{"2024-01-01"}})
	assert.Equal(t, models.FailureInvalidInput, res.Kind)

	res = a.AnalyzePrices(models.IndicatorsRequest{Prices: []any{1, 2}, Timestamps: []string{"2024-01-01", "soon"}})
	assert.Equal(t, models.FailureInvalidInput, res.Kind)
	assert.Contains(t, res.Error, "timestamps[1]")

	res = a.AnalyzePrices(models.IndicatorsRequest{Prices: []any{1, 2}, RSIWindow: 1})
	assert.Equal(t, models.FailureInvalidInput, res.Kind)
}

func TestVolatilityAlerts(t *testing.T) {
	src := newFakeSource()
	src.bars["TSLA"] = barsOf(100.0, 101.0, 100.0, 101.0, 100.0, 101.0, 100.0, 130.0)
	a := NewAnalyzer(src, DefaultAnalysisConfig(), nil, nil)

	alerts, err := a.VolatilityAlerts(context.Background(), "tsla", epoch, epoch.AddDate(0, 0, 7),
		anomaly.ZScoreOptions{Window: 4, Threshold: 2})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "TSLA", alerts[0].Ticker)
	assert.Equal(t, 7, alerts[0].Index)
	assert.Equal(t, 130.0, alerts[0].Price)
	require.NotNil(t, alerts[0].Timestamp)
	assert.True(t, alerts[0].Timestamp.Equal(epoch.AddDate(0, 0, 7)))

	_, err = a.VolatilityAlerts(context.Background(), "$$$", epoch, epoch, anomaly.ZScoreOptions{})
	assert.ErrorIs(t, err, models.ErrInvalidTicker)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, models.FailureKind(""), Classify(nil))
	assert.Equal(t, models.FailureInvalidInput, Classify(models.ErrInvalidArgument))
	assert.Equal(t, models.FailureInvalidInput, Classify(models.ErrInvalidTicker))
	assert.Equal(t, models.FailureNoData, Classify(models.ErrNoData))
	assert.Equal(t, models.FailureInternal, Classify(context.Canceled))
	assert.Equal(t, models.FailureUpstream, Classify(errors.New("502")))
}
