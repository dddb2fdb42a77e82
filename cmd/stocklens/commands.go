package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockLens/internal/cli"
	"StockLens/internal/di"
	"StockLens/internal/domain/models"
	"StockLens/internal/services/anomaly"
	"StockLens/internal/usecase"
	"StockLens/pkg/util"

	"github.com/spf13/cobra"
)

const defaultLookbackDays = 180

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive menu",
		RunE:  runREPL,
	}
}

func runREPL(cmd *cobra.Command, args []string) error {
	tk, cleanup, err := loadToolkit()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repl := cli.NewREPL(os.Stdin, cmd.OutOrStdout(), tk.Analyzer, tk.Dashboard, tk.Exporter, cli.NewSession())
	return repl.Run(ctx)
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "start date, YYYY-MM-DD (default 180 days ago)")
	cmd.Flags().String("end", "", "end date, YYYY-MM-DD (default today)")
}

func rangeFlags(cmd *cobra.Command) (string, string) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	now := time.Now().UTC()
	if end == "" {
		end = now.Format(util.DateLayout)
	}
	if start == "" {
		start = now.AddDate(0, 0, -defaultLookbackDays).Format(util.DateLayout)
	}
	return start, end
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <ticker>",
		Short: "Print the chart payload for a ticker as JSON",
		Example: `  stocklens analyze AAPL
  stocklens analyze MSFT --start 2024-01-01 --end 2024-06-30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, cleanup, err := loadToolkit()
			if err != nil {
				return err
			}
			defer cleanup()

			start, end := rangeFlags(cmd)
			res := tk.Analyzer.Timeseries(cmd.Context(), args[0], start, end)
			if err := printJSON(cmd, res); err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("analysis failed: %s", res.Error)
			}
			return nil
		},
	}
	addRangeFlags(cmd)
	return cmd
}

func zscoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zscore <ticker>",
		Short: "List rolling z-score volatility alerts for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, cleanup, err := loadToolkit()
			if err != nil {
				return err
			}
			defer cleanup()

			startS, endS := rangeFlags(cmd)
			start, err := util.ParseDate(startS)
			if err != nil {
				return fmt.Errorf("invalid start date: %s", startS)
			}
			end, err := util.ParseDate(endS)
			if err != nil {
				return fmt.Errorf("invalid end date: %s", endS)
			}
			window, _ := cmd.Flags().GetInt("window")
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			alerts, err := tk.Analyzer.VolatilityAlerts(cmd.Context(), args[0], start, end, anomaly.ZScoreOptions{
				Window:    window,
				Threshold: threshold,
			})
			if err != nil {
				return err
			}
			if alerts == nil {
				alerts = []models.VolatilityAlert{}
			}
			return printJSON(cmd, alerts)
		},
	}
	addRangeFlags(cmd)
	cmd.Flags().Int("window", 0, "rolling window (default from config)")
	cmd.Flags().Float64("threshold", 0, "absolute z-score threshold (default from config)")
	return cmd
}

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <ticker>",
		Short: "Render the price chart for a ticker to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, cleanup, err := loadToolkit()
			if err != nil {
				return err
			}
			defer cleanup()

			start, end := rangeFlags(cmd)
			res := tk.Analyzer.Timeseries(cmd.Context(), args[0], start, end)
			if !res.OK() {
				return fmt.Errorf("analysis failed: %s", res.Error)
			}
			format, _ := cmd.Flags().GetString("format")
			path, err := tk.Exporter.Export(res.Payload, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	addRangeFlags(cmd)
	cmd.Flags().String("format", usecase.FormatPNG, "output format: png, json or csv")
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Value a portfolio CSV at latest closing prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, cleanup, err := loadToolkit()
			if err != nil {
				return err
			}
			defer cleanup()

			if path, _ := cmd.Flags().GetString("portfolio"); path != "" {
				rows, err := tk.Dashboard.LoadPortfolio(path)
				if err != nil {
					return err
				}
				for _, row := range rows {
					if row.Skipped {
						fmt.Fprintf(cmd.ErrOrStderr(), "line %d skipped: %s\n", row.Line, row.Reason)
					}
				}
			}
			if len(tk.Dashboard.Portfolio()) == 0 {
				return fmt.Errorf("portfolio CSV not provided")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			s, err := tk.Dashboard.Build(ctx, nil, nil, nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
	cmd.Flags().StringP("portfolio", "p", "", "portfolio CSV (ticker,shares,buy_price)")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Scan the configured watchlist once and print new alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, cleanup, err := loadToolkit()
			if err != nil {
				return err
			}
			defer cleanup()

			alerts, err := tk.Watcher.RunOnce(cmd.Context())
			if err != nil && len(alerts) == 0 {
				return err
			}
			if alerts == nil {
				alerts = []models.VolatilityAlert{}
			}
			return printJSON(cmd, alerts)
		},
	}
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <ticker> [ticker...]",
		Short: "Copy daily bars from Yahoo into ClickHouse",
		Example: `  stocklens ingest AAPL MSFT --start 2020-01-01
  stocklens ingest BTC-USD --start 2024-01-01 --end 2024-12-31`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
				cfg.Logging.Output = "stderr"
			}
			ingestor, cleanup, err := di.InitializeIngestor(cfg)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			defer cleanup()

			startS, endS := rangeFlags(cmd)
			start, err := util.ParseDate(startS)
			if err != nil {
				return fmt.Errorf("invalid start date: %s", startS)
			}
			end, err := util.ParseDate(endS)
			if err != nil {
				return fmt.Errorf("invalid end date: %s", endS)
			}

			reports, ingestErr := ingestor.Ingest(cmd.Context(), args, start, end)
			if reports != nil {
				if err := printJSON(cmd, reports); err != nil {
					return err
				}
			}
			return ingestErr
		},
	}
	addRangeFlags(cmd)
	return cmd
}
