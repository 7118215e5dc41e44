package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
)

// FixtureEnv names the environment variable that supplies a default fixture path
const FixtureEnv = "DEVENUM_FIXTURE"

// Config holds application configuration
type Config struct {
	LogLevel      string        `json:"log_level" default:"panic"`
	OutputFormat  string        `json:"output_format" default:"table"` // table, json
	Category      string        `json:"category" default:"video-input"`
	WatchInterval time.Duration `json:"watch_interval" default:"2s"`
	MaxDevices    int           `json:"max_devices" default:"0"` // 0: no bound
	FixturePath   string        `json:"fixture_path"`
}

// DefaultConfig returns default configuration values, with the fixture path
// taken from DEVENUM_FIXTURE when set
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.FixturePath = os.Getenv(FixtureEnv)
	return cfg
}

// Level parses LogLevel
func (c *Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.PanicLevel, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Validate reports the first invalid field
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.OutputFormat {
	case "table", "json":
	default:
		return fmt.Errorf("invalid output format %q (want table or json)", c.OutputFormat)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %s", c.WatchInterval)
	}
	if c.MaxDevices < 0 {
		return fmt.Errorf("max devices must not be negative, got %d", c.MaxDevices)
	}
	return nil
}

// NewLogger creates a configured logger instance. An unparsable level keeps
// the logger silent.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, _ := c.Level()
	logger.SetLevel(level)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
