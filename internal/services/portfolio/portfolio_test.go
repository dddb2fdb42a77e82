package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"StockLens/internal/domain/models"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Ticker,Shares,Buy_Price
aapl,10,150.5
MSFT,5,310
,3,10
TSLA,abc,700
BAD TICKER,1,1
GOOG,-1,100
AAPL,12,155
NVDA,2
`

func TestParseCSV(t *testing.T) {
	p, rows, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, models.Portfolio{
		"AAPL": {Ticker: "AAPL", Shares: 12, BuyPrice: 155},
		"MSFT": {Ticker: "MSFT", Shares: 5, BuyPrice: 310},
	}, p)

	require.Len(t, rows, 8)
	assert.Equal(t, models.RowResult{Line: 2, Ticker: "AAPL"}, rows[0])
	assert.Equal(t, 4, rows[2].Line)
	assert.True(t, rows[2].Skipped)
	assert.Equal(t, "missing ticker", rows[2].Reason)
	assert.True(t, rows[3].Skipped)
	assert.Contains(t, rows[3].Reason, "shares")
	assert.True(t, rows[4].Skipped)
	assert.Contains(t, rows[4].Reason, "invalid ticker")
	assert.True(t, rows[5].Skipped)
	assert.Contains(t, rows[5].Reason, "negative")
	assert.False(t, rows[6].Skipped)
	assert.Contains(t, rows[6].Reason, "duplicate")
	assert.True(t, rows[7].Skipped)
	assert.Equal(t, "missing buy_price", rows[7].Reason)
}

func TestParseCSVColumnOrder(t *testing.T) {
	p, _, err := ParseCSV(strings.NewReader("buy_price, ticker ,shares\n12.5,ibm,4\n"))
	require.NoError(t, err)
	assert.Equal(t, models.Position{Ticker: "IBM", Shares: 4, BuyPrice: 12.5}, p["IBM"])
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("ticker,shares\nAAPL,1\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "buy_price")

	_, _, err = ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.csv")
	require.NoError(t, os.WriteFile(path, []byte("ticker,shares,buy_price\nMSFT,1,300\n"), 0o644))

	p, rows, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Len(t, p, 1)
	assert.Len(t, rows, 1)

	_, _, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestBuildDashboard(t *testing.T) {
	p := models.Portfolio{
		"AAPL": {Ticker: "AAPL", Shares: 10, BuyPrice: 150},
		"MSFT": {Ticker: "MSFT", Shares: 5, BuyPrice: 300},
		"TSLA": {Ticker: "TSLA", Shares: 2, BuyPrice: 700},
	}
	prices := map[string]null.Float{
		"AAPL": null.FloatFrom(160),
		"MSFT": null.FloatFrom(310),
	}

	d, err := BuildDashboard(p, prices, nil, nil, DefaultMaxNews)
	require.NoError(t, err)

	assert.InDelta(t, 3150, d.TotalValue, 1e-9)
	require.Len(t, d.Positions, 3)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, []string{d.Positions[0].Ticker, d.Positions[1].Ticker, d.Positions[2].Ticker})

	aapl := d.Positions[0]
	assert.InDelta(t, 1600, aapl.PositionValue, 1e-9)
	assert.InDelta(t, 50.79, aapl.PctOfPortfolio, 1e-9)
	assert.InDelta(t, 100, aapl.UnrealizedPL.Float64, 1e-9)
	assert.InDelta(t, 150, aapl.PurchasePrice.Float64, 1e-9)
	assert.False(t, aapl.PriceUnknown)

	assert.InDelta(t, 49.21, d.Positions[1].PctOfPortfolio, 1e-9)

	tsla := d.Positions[2]
	assert.True(t, tsla.PriceUnknown)
	assert.False(t, tsla.Price.Valid)
	assert.False(t, tsla.UnrealizedPL.Valid)
	assert.Zero(t, tsla.PositionValue)
	assert.Zero(t, tsla.PctOfPortfolio)

	assert.NotNil(t, d.TopAlerts)
	assert.NotNil(t, d.RecentNews)
}

func TestBuildDashboardEmpty(t *testing.T) {
	d, err := BuildDashboard(models.Portfolio{}, nil, nil, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, d.TotalValue)

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"positions":[]`)
	assert.Contains(t, string(raw), `"top_alerts":[]`)
}

func TestBuildDashboardTrimsNewsAndAlerts(t *testing.T) {
	news := []models.NewsItem{
		{Headline: "Fed holds rates", Source: "wire", PublishedAt: "2024-05-01T10:00:00Z"},
		{Title: "Earnings beat", PublishedAt: "2024-05-02"},
		{Title: "Rumour", PublishedAt: "yesterday"},
	}
	for i := 0; i < 4; i++ {
		news = append(news, models.NewsItem{Title: fmt.Sprintf("filler %d", i)})
	}
	alerts := make([]models.VolatilityAlert, 12)
	for i := range alerts {
		alerts[i] = models.VolatilityAlert{Index: i}
	}

	d, err := BuildDashboard(nil, nil, news, alerts, 5)
	require.NoError(t, err)

	require.Len(t, d.RecentNews, 5)
	assert.Equal(t, "Fed holds rates", d.RecentNews[0].Title)
	assert.Equal(t, "2024-05-01T10:00:00Z", d.RecentNews[0].PublishedAt)
	assert.Equal(t, "2024-05-02", d.RecentNews[1].PublishedAt)
	assert.Equal(t, "yesterday", d.RecentNews[2].PublishedAt)
	assert.Len(t, d.TopAlerts, MaxAlerts)
}

func TestBuildDashboardRejectsNegativeMaxNews(t *testing.T) {
	_, err := BuildDashboard(nil, nil, nil, nil, -1)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestSummarize(t *testing.T) {
	s := Summarize(models.Portfolio{
		"AAPL": {Ticker: "AAPL", Shares: 10, BuyPrice: 150},
		"MSFT": {Ticker: "MSFT", Shares: 5, BuyPrice: 300},
	})
	assert.Equal(t, 2, s.Positions)
	assert.InDelta(t, 15, s.TotalShares, 1e-9)
	assert.InDelta(t, 3000, s.TotalCostBasis, 1e-9)
	assert.InDelta(t, 200, s.AverageBuyPrice.Float64, 1e-9)

	empty := Summarize(nil)
	assert.False(t, empty.AverageBuyPrice.Valid)
}
