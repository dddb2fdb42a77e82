// stocklens - stock timeseries analysis, portfolio dashboard and volatility alerts
package main

import (
	"context"
	"fmt"
	"os"

	"StockLens/internal/di"
	"StockLens/pkg/config"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stocklens",
		Short: "Stock timeseries analysis and portfolio dashboard",
		Long: `stocklens fetches daily closing prices, computes SMA and RSI,
flags large moves, builds a portfolio dashboard and can watch a list
of tickers for z-score volatility alerts.

Run without a subcommand to start the interactive menu.`,
		SilenceUsage: true,
		RunE:         runREPL,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(replCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(zscoreCmd())
	rootCmd.AddCommand(plotCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(ingestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stocklens version %s\n", version)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the alert watcher when enabled)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, cleanup, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()
			return app.Run(context.Background())
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

// loadToolkit builds the usecases for a one-shot command. Log lines go to
// stderr so stdout stays parseable.
func loadToolkit() (*di.Toolkit, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	tk, cleanup, err := di.InitializeToolkit(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialization failed: %w", err)
	}
	return tk, cleanup, nil
}
