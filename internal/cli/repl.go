package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"StockLens/internal/domain/models"
	"StockLens/internal/usecase"
	"StockLens/pkg/util"

	"github.com/guregu/null/v6"
)

const rule = "------------------------------------------------------------"

// REPL is the numbered-menu interactive front end.
type REPL struct {
	in        *bufio.Scanner
	out       io.Writer
	analyzer  *usecase.Analyzer
	dashboard *usecase.Dashboard
	exporter  *usecase.Exporter
	session   *Session
}

func NewREPL(in io.Reader, out io.Writer, analyzer *usecase.Analyzer, dashboard *usecase.Dashboard, exporter *usecase.Exporter, session *Session) *REPL {
	if session == nil {
		session = NewSession()
	}
	return &REPL{
		in:        bufio.NewScanner(in),
		out:       out,
		analyzer:  analyzer,
		dashboard: dashboard,
		exporter:  exporter,
		session:   session,
	}
}

// Run loops until the user quits, input ends or ctx is cancelled. The last
// analysis is restored from and saved to the exporter's state file.
func (r *REPL) Run(ctx context.Context) error {
	if st, err := r.exporter.LoadState(); err != nil {
		r.printf(" WARNING: %v\n", err)
	} else if st.LastPayload != nil {
		r.session.SetLast("", st.LastPayload)
	}

	header(r.out, "Stock Information Retrieval & Analysis Tool")
	for ctx.Err() == nil {
		r.printf("\nOptions:\n")
		r.printf("1) Get stock timeseries + indicators\n")
		r.printf("2) Export last analysis (json/csv)\n")
		r.printf("3) Build portfolio dashboard\n")
		r.printf("4) Plot last analysis (PNG)\n")
		r.printf("0) Quit\n")

		choice, ok := r.prompt("Choose: ")
		if !ok || choice == "0" {
			break
		}
		switch choice {
		case "1":
			r.timeseries(ctx)
		case "2":
			r.export()
		case "3":
			r.portfolioDashboard(ctx)
		case "4":
			r.plot()
		default:
			r.printf(" Unknown option %q\n", choice)
		}
	}

	if _, p := r.session.Last(); p != nil {
		if err := r.exporter.SaveState(usecase.AppState{LastPayload: p}); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	r.printf("Bye.\n")
	return nil
}

func (r *REPL) timeseries(ctx context.Context) {
	header(r.out, "Stock Timeseries + Indicator Analysis")
	ticker, _ := r.prompt("Enter ticker (e.g., AAPL, MSFT, TSLA): ")
	start, _ := r.prompt("Start date (YYYY-MM-DD): ")
	end, _ := r.prompt("End date (YYYY-MM-DD): ")

	res := r.analyzer.Timeseries(ctx, ticker, start, end)
	if !res.OK() {
		r.printf("\n ERROR: %s\n", res.Error)
		return
	}
	p := res.Payload
	sym := strings.ToUpper(strings.TrimSpace(ticker))
	r.session.SetLast(sym, p)

	cfg := r.analyzer.Config()
	prices := p.PriceData()
	last, _ := models.LastValid(prices)

	r.printf("\n%s\n", rule)
	r.printf(" Ticker: %s\n", sym)
	r.printf(" Latest Closing Price: %s\n", util.FormatCurrency(last))
	r.printf(" SMA-%d: %s\n", cfg.SMAWindow, lastOrNA(p.Indicators[fmt.Sprintf("SMA_%d", cfg.SMAWindow)]))
	r.printf(" RSI-%d: %s\n", cfg.RSIWindow, lastOrNA(p.Indicators[fmt.Sprintf("RSI_%d", cfg.RSIWindow)]))
	r.printf(" Anomalies Detected (>%g%% moves): %d\n", util.Round(cfg.AnomalyThreshold*100, 2), len(p.Anomalies))
	r.printf(" Price Trend Sparkline: %s\n", Sparkline(prices))
	for _, w := range p.Warnings {
		r.printf(" WARNING: %s\n", w)
	}
	r.printf("%s\n", rule)
}

func (r *REPL) export() {
	header(r.out, "Export Last Analysis")
	_, p := r.session.Last()
	if p == nil {
		r.printf(" No analysis available to export. Run Option 1 first.\n")
		return
	}
	format, _ := r.prompt("Format [json/csv] (default json): ")
	format = strings.ToLower(format)
	if format == "" {
		format = usecase.FormatJSON
	}
	if format != usecase.FormatJSON && format != usecase.FormatCSV {
		r.printf(" Unsupported format %q\n", format)
		return
	}
	path, err := r.exporter.Export(p, format)
	if err != nil {
		r.printf(" ERROR: %v\n", err)
		return
	}
	r.printf(" Exported to: %s\n", path)
}

func (r *REPL) portfolioDashboard(ctx context.Context) {
	header(r.out, "Portfolio Dashboard")
	if len(r.dashboard.Portfolio()) == 0 {
		path, _ := r.prompt("Portfolio CSV path (ticker,shares,buy_price): ")
		if path == "" {
			r.printf(" Portfolio CSV not provided.\n")
			return
		}
		rows, err := r.dashboard.LoadPortfolio(path)
		if err != nil {
			r.printf(" ERROR: %v\n", err)
			return
		}
		for _, row := range rows {
			if row.Skipped {
				r.printf(" line %d skipped: %s\n", row.Line, row.Reason)
			}
		}
	}

	s, err := r.dashboard.Build(ctx, nil, nil, nil, nil)
	if err != nil {
		r.printf(" ERROR: %v\n", err)
		return
	}
	r.printf("\nTotal Portfolio Value: %s\n", util.FormatCurrency(s.TotalValue))
	r.printf("\nPositions:\n")
	for _, pos := range s.Positions {
		if pos.PriceUnknown {
			r.printf(" • %s: %g shares → price unknown\n", pos.Ticker, pos.Shares)
			continue
		}
		r.printf(" • %s: %g shares → %s (%g%%)\n", pos.Ticker, pos.Shares, util.FormatCurrency(pos.PositionValue), pos.PctOfPortfolio)
	}
	for _, w := range s.Warnings {
		r.printf(" WARNING: %s\n", w)
	}
	if len(s.TopAlerts) > 0 {
		r.printf("\nAlerts:\n")
		for _, a := range s.TopAlerts {
			r.printf(" • %s #%d %s\n", a.Ticker, a.Index, a.Reason)
		}
	}
}

func (r *REPL) plot() {
	header(r.out, "Stock Chart")
	_, p := r.session.Last()
	if p == nil {
		r.printf(" Run Option 1 first to load stock data.\n")
		return
	}
	path, err := r.exporter.Export(p, usecase.FormatPNG)
	if err != nil {
		r.printf(" ERROR: %v\n", err)
		return
	}
	r.printf(" Chart written to: %s\n", path)
}

// prompt prints label and reads one trimmed line. ok is false at end of input.
func (r *REPL) prompt(label string) (string, bool) {
	r.printf("%s", label)
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func header(w io.Writer, title string) {
	line := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", line, title, line)
}

func lastOrNA(vs []null.Float) string {
	if v, ok := models.LastValid(vs); ok {
		return fmt.Sprintf("%.2f", v)
	}
	return "n/a"
}
