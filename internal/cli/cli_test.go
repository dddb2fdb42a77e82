package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"StockLens/internal/domain/models"
	"StockLens/internal/usecase"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource map[string][]float64

func (f fixedSource) Name() string { return "fixed" }

func (f fixedSource) FetchBars(_ context.Context, ticker string, start, _ time.Time) ([]models.Bar, error) {
	closes, ok := f[ticker]
	if !ok {
		return nil, models.ErrNoData
	}
	out := make([]models.Bar, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return out, nil
}

type harness struct {
	analyzer  *usecase.Analyzer
	dashboard *usecase.Dashboard
	exporter  *usecase.Exporter
	dir       string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	src := fixedSource{"AAPL": {100, 102, 101, 105, 150}}
	dir := t.TempDir()
	return &harness{
		analyzer:  usecase.NewAnalyzer(src, usecase.DefaultAnalysisConfig(), nil, nil),
		dashboard: usecase.NewDashboard(src, usecase.DashboardConfig{}, nil, nil),
		exporter:  usecase.NewExporter(filepath.Join(dir, "reports"), filepath.Join(dir, "app_state.json"), nil),
		dir:       dir,
	}
}

func (h *harness) run(t *testing.T, input string, s *Session) string {
	t.Helper()
	var out bytes.Buffer
	r := NewREPL(strings.NewReader(input), &out, h.analyzer, h.dashboard, h.exporter, s)
	require.NoError(t, r.Run(context.Background()))
	return out.String()
}

func TestREPLAnalyzeExportAndPlot(t *testing.T) {
	h := newHarness(t)
	s := NewSession()
	out := h.run(t, "1\naapl\n2024-01-01\n2024-01-05\n2\ncsv\n4\n0\n", s)

	assert.Contains(t, out, "Ticker: AAPL")
	assert.Contains(t, out, "Latest Closing Price: $150.00")
	assert.Contains(t, out, "SMA-20: n/a")
	assert.Contains(t, out, "Anomalies Detected (>7% moves): 1")
	assert.Contains(t, out, "Price Trend Sparkline: ▁▁▁▁█")
	assert.Contains(t, out, "Exported to: ")
	assert.Contains(t, out, "Chart written to: ")

	ticker, p := s.Last()
	assert.Equal(t, "AAPL", ticker)
	require.NotNil(t, p)

	entries, err := os.ReadDir(filepath.Join(h.dir, "reports"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = os.Stat(filepath.Join(h.dir, "app_state.json"))
	assert.NoError(t, err, "state saved on quit")
}

func TestREPLRestoresLastPayload(t *testing.T) {
	h := newHarness(t)
	h.run(t, "1\nAAPL\n2024-01-01\n2024-01-05\n0\n", NewSession())

	s := NewSession()
	out := h.run(t, "4\n0\n", s)
	assert.Contains(t, out, "Chart written to: ")
	_, p := s.Last()
	require.NotNil(t, p)
	assert.Equal(t, "AAPL Price Chart", p.Title)
}

func TestREPLErrorsAndGuards(t *testing.T) {
	h := newHarness(t)
	out := h.run(t, "4\n2\n1\nMSFT\n2024-01-01\n2024-01-05\n1\nnot valid\n2024-01-01\n2024-01-05\n9\n3\n\n", nil)

	assert.Contains(t, out, "Run Option 1 first to load stock data.")
	assert.Contains(t, out, "No analysis available to export.")
	assert.Contains(t, out, "ERROR: No data found for MSFT between 2024-01-01 and 2024-01-05.")
	assert.Contains(t, out, "ERROR: Invalid ticker: not valid")
	assert.Contains(t, out, `Unknown option "9"`)
	assert.Contains(t, out, "Portfolio CSV not provided.")
	assert.True(t, strings.HasSuffix(out, "Bye.\n"), "input end quits")
}

func TestREPLDashboard(t *testing.T) {
	h := newHarness(t)
	csvPath := filepath.Join(h.dir, "portfolio.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("ticker,shares,buy_price\nAAPL,10,100\nNFLX,1,400\nbad!,1,1\n"), 0o644))

	out := h.run(t, "3\n"+csvPath+"\n0\n", nil)
	assert.Contains(t, out, "line 4 skipped")
	assert.Contains(t, out, "Total Portfolio Value: $1,500.00")
	assert.Contains(t, out, "AAPL: 10 shares → $1,500.00 (100%)")
	assert.Contains(t, out, "NFLX: 1 shares → price unknown")
	assert.Contains(t, out, "WARNING: price unavailable for NFLX")
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁▂▃▄▅▆▇█", Sparkline(models.Floats(1, 2, 3, 4, 5, 6, 7, 8)))
	assert.Equal(t, "▁▁▁", Sparkline(models.Floats(5, 5, 5)))
	assert.Equal(t, "▁ █", Sparkline([]null.Float{null.FloatFrom(1), {}, null.FloatFrom(2)}))
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "", Sparkline([]null.Float{{}}))
}
