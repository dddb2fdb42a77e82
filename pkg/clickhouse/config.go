package clickhouse

import (
	"fmt"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Config describes one ClickHouse pool. Zero fields take the default tag.
type Config struct {
	Host     string `validate:"required,hostname|ip"`
	Port     int    `default:"9000" validate:"min=1,max=65535"`
	Database string `default:"default" validate:"required"`
	User     string `default:"default"`
	Password string
	UseHTTP  bool

	MaxOpenConns    int           `default:"10" validate:"min=1"`
	MaxIdleConns    int           `default:"5" validate:"min=0"`
	ConnMaxLifetime time.Duration `default:"5m"`
	DialTimeout     time.Duration `default:"5s"`
	ReadTimeout     time.Duration `default:"10s"`
	// MaxExecTime is sent as the max_execution_time setting, in whole seconds.
	MaxExecTime time.Duration

	// InsertChunk caps rows per INSERT statement.
	InsertChunk int `default:"2000" validate:"min=1"`
}

var configValidator = validator.New()

func (c *Config) resolve() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("clickhouse defaults: %w", err)
	}
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("clickhouse config: %w", err)
	}
	return nil
}

func (c Config) addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
