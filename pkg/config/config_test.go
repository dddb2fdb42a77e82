package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "yahoo", c.Source.Type)
	assert.Equal(t, 20, c.Analysis.SMAWindow)
	assert.Equal(t, 14, c.Analysis.RSIWindow)
	assert.InDelta(t, 0.07, c.Analysis.AnomalyThreshold, 1e-12)
	assert.Equal(t, "window", c.Analysis.SMADivisor)
	assert.Equal(t, 5, c.Dashboard.MaxNews)
}

func TestLoadOverlaysYAMLOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
environment: test
server:
  port: 9191
analysis:
  sma_window: 5
  sma_divisor: count
alerts:
  watchlist: [AAPL, MSFT]
`)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 9191, c.Server.Port)
	assert.Equal(t, 5, c.Analysis.SMAWindow)
	assert.Equal(t, "count", c.Analysis.SMADivisor)
	assert.Equal(t, 14, c.Analysis.RSIWindow)
	assert.Equal(t, 10*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, []string{"AAPL", "MSFT"}, c.Alerts.Watchlist)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(c *Config){
		"source":    func(c *Config) { c.Source.Type = "csv" },
		"sma":       func(c *Config) { c.Analysis.SMAWindow = 0 },
		"rsi":       func(c *Config) { c.Analysis.RSIWindow = 1 },
		"threshold": func(c *Config) { c.Analysis.AnomalyThreshold = 0 },
		"divisor":   func(c *Config) { c.Analysis.SMADivisor = "median" },
		"zscore":    func(c *Config) { c.Analysis.ZScore.Window = 1 },
		"news":      func(c *Config) { c.Dashboard.MaxNews = -1 },
		"kafka":     func(c *Config) { c.Alerts.Kafka.Enabled = true },
		"ch":        func(c *Config) { c.Source.Type = "clickhouse" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("WATCHLIST", "NVDA,AMD")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, 7070, c.Server.Port)
	assert.Equal(t, []string{"NVDA", "AMD"}, c.Alerts.Watchlist)
	assert.True(t, c.Alerts.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Alerts.Kafka.Brokers)
}
