package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"StockLens/pkg/util"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowRequest     time.Duration `yaml:"slow_request"`
		CORS            bool          `yaml:"cors"`
	} `yaml:"server"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled"`
		Burst        float64 `yaml:"burst"`
		RefillPerSec float64 `yaml:"refill_per_sec"`
	} `yaml:"ratelimit"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Source struct {
		Type string `yaml:"type"` // yahoo or clickhouse
	} `yaml:"source"`
	Yahoo struct {
		BaseURL           string        `yaml:"base_url"`
		Interval          string        `yaml:"interval"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Retry             struct {
			MaxRetries     int           `yaml:"max_retries"`
			InitialBackoff time.Duration `yaml:"initial_backoff"`
			MaxBackoff     time.Duration `yaml:"max_backoff"`
		} `yaml:"retry"`
		Breaker struct {
			MaxRequests uint32        `yaml:"max_requests"`
			Interval    time.Duration `yaml:"interval"`
			Timeout     time.Duration `yaml:"timeout"`
		} `yaml:"breaker"`
	} `yaml:"yahoo"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		InsertChunk      int           `yaml:"insert_chunk"`
	} `yaml:"clickhouse"`
	Cache struct {
		Enabled       bool          `yaml:"enabled"`
		TTL           time.Duration `yaml:"ttl"`
		MemoryMaxSize int           `yaml:"memory_max_size"`
		Redis         struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Analysis struct {
		SMAWindow        int           `yaml:"sma_window"`
		RSIWindow        int           `yaml:"rsi_window"`
		AnomalyThreshold float64       `yaml:"anomaly_threshold"`
		SMADivisor       string        `yaml:"sma_divisor"` // window or count
		Timeout          time.Duration `yaml:"timeout"`
		ZScore           struct {
			Window     int     `yaml:"window"`
			Threshold  float64 `yaml:"threshold"`
			MinNonNull int     `yaml:"min_non_null"`
		} `yaml:"zscore"`
	} `yaml:"analysis"`
	Dashboard struct {
		MaxNews      int    `yaml:"max_news"`
		PortfolioCSV string `yaml:"portfolio_csv"`
		HistoryDays  int    `yaml:"history_days"`
	} `yaml:"dashboard"`
	Alerts struct {
		Enabled      bool     `yaml:"enabled"`
		Schedule     string   `yaml:"schedule"`
		Watchlist    []string `yaml:"watchlist"`
		LookbackDays int      `yaml:"lookback_days"`
		Kafka        struct {
			Enabled      bool          `yaml:"enabled"`
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic"`
			Acks         string        `yaml:"acks"`
			Compression  string        `yaml:"compression"`
			MaxAttempts  int           `yaml:"max_attempts"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"kafka"`
	} `yaml:"alerts"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	State struct {
		Path string `yaml:"path"`
	} `yaml:"state"`
}

// Default returns the configuration used when no file is given. Values in a
// YAML file are layered on top of it.
func Default() *Config {
	var c Config
	c.Environment = "development"

	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.SlowRequest = 2 * time.Second
	c.Server.CORS = true

	c.RateLimit.Enabled = true
	c.RateLimit.Burst = 20
	c.RateLimit.RefillPerSec = 5

	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"

	c.Logging.Level = "info"
	c.Logging.Format = "console"
	c.Logging.Output = "stderr"

	c.Source.Type = "yahoo"

	c.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	c.Yahoo.Interval = "1d"
	c.Yahoo.Timeout = 15 * time.Second
	c.Yahoo.RequestsPerSecond = 2
	c.Yahoo.Retry.MaxRetries = 2
	c.Yahoo.Retry.InitialBackoff = 250 * time.Millisecond
	c.Yahoo.Retry.MaxBackoff = 3 * time.Second
	c.Yahoo.Breaker.MaxRequests = 3
	c.Yahoo.Breaker.Interval = time.Minute
	c.Yahoo.Breaker.Timeout = 30 * time.Second

	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "stocklens"
	c.ClickHouse.Table = "daily_bars"
	c.ClickHouse.User = "default"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 10 * time.Second

	c.Cache.Enabled = true
	c.Cache.TTL = 15 * time.Minute
	c.Cache.MemoryMaxSize = 512
	c.Cache.Redis.Host = "localhost"
	c.Cache.Redis.Port = 6379
	c.Cache.Redis.Prefix = "stocklens"

	c.Analysis.SMAWindow = 20
	c.Analysis.RSIWindow = 14
	c.Analysis.AnomalyThreshold = 0.07
	c.Analysis.SMADivisor = "window"
	c.Analysis.Timeout = 30 * time.Second
	c.Analysis.ZScore.Window = 20
	c.Analysis.ZScore.Threshold = 3.0

	c.Dashboard.MaxNews = 5
	c.Dashboard.HistoryDays = 14

	c.Alerts.Schedule = "@every 15m"
	c.Alerts.LookbackDays = 120
	c.Alerts.Kafka.Topic = "stocklens.alerts"
	c.Alerts.Kafka.Acks = "all"
	c.Alerts.Kafka.Compression = "gzip"
	c.Alerts.Kafka.MaxAttempts = 3
	c.Alerts.Kafka.WriteTimeout = 10 * time.Second

	c.Export.Dir = "data/analysis_reports"
	c.State.Path = "data/app_state.json"
	return &c
}

// Load reads and parses a YAML configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file in the working directory is read first when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STOCKLENS_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PRICE_SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		c.Yahoo.BaseURL = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Alerts.Kafka.Brokers = util.SplitList(v)
		c.Alerts.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Alerts.Kafka.Topic = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Alerts.Watchlist = util.SplitList(v)
	}
	if v := os.Getenv("PORTFOLIO_CSV"); v != "" {
		c.Dashboard.PortfolioCSV = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Source.Type != "yahoo" && c.Source.Type != "clickhouse" {
		return fmt.Errorf("source.type must be 'yahoo' or 'clickhouse', got '%s'", c.Source.Type)
	}
	if c.Source.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when source.type is clickhouse")
	}
	if c.Source.Type == "yahoo" && c.Yahoo.BaseURL == "" {
		return fmt.Errorf("yahoo.base_url is required")
	}
	if c.Analysis.SMAWindow < 1 {
		return fmt.Errorf("analysis.sma_window must be >= 1")
	}
	if c.Analysis.RSIWindow < 2 {
		return fmt.Errorf("analysis.rsi_window must be >= 2")
	}
	if c.Analysis.AnomalyThreshold <= 0 {
		return fmt.Errorf("analysis.anomaly_threshold must be positive")
	}
	if c.Analysis.SMADivisor != "window" && c.Analysis.SMADivisor != "count" {
		return fmt.Errorf("analysis.sma_divisor must be 'window' or 'count', got '%s'", c.Analysis.SMADivisor)
	}
	if c.Analysis.ZScore.Window < 2 {
		return fmt.Errorf("analysis.zscore.window must be >= 2")
	}
	if c.Analysis.ZScore.Threshold <= 0 {
		return fmt.Errorf("analysis.zscore.threshold must be positive")
	}
	if c.Dashboard.MaxNews < 0 {
		return fmt.Errorf("dashboard.max_news cannot be negative")
	}
	if c.Alerts.Enabled && c.Alerts.Schedule == "" {
		return fmt.Errorf("alerts.schedule is required when alerts are enabled")
	}
	if c.Alerts.Kafka.Enabled && len(c.Alerts.Kafka.Brokers) == 0 {
		return fmt.Errorf("alerts.kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
