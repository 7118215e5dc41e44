package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv(FixtureEnv, "")
	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "panic", cfg.LogLevel)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.Equal(t, "video-input", cfg.Category)
	assert.Equal(t, 2*time.Second, cfg.WatchInterval)
	assert.Zero(t, cfg.MaxDevices)
	assert.Empty(t, cfg.FixturePath)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfigFixtureFromEnv(t *testing.T) {
	t.Setenv(FixtureEnv, "/tmp/studio.yaml")
	assert.Equal(t, "/tmp/studio.yaml", DefaultConfig().FixturePath)
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     logrus.Level
	}{
		{name: "debug", logLevel: "debug", want: logrus.DebugLevel},
		{name: "info", logLevel: "info", want: logrus.InfoLevel},
		{name: "warn", logLevel: "warn", want: logrus.WarnLevel},
		{name: "error", logLevel: "error", want: logrus.ErrorLevel},
		{name: "invalid stays silent", logLevel: "loud", want: logrus.PanicLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}

			logger := cfg.NewLogger()

			require.NotNil(t, logger)
			assert.Equal(t, tt.want, logger.GetLevel())

			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			require.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "json output", mutate: func(c *Config) { c.OutputFormat = "json" }},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "chatty" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.OutputFormat = "csv" }, wantErr: "invalid output format"},
		{name: "zero interval", mutate: func(c *Config) { c.WatchInterval = 0 }, wantErr: "watch interval"},
		{name: "negative max", mutate: func(c *Config) { c.MaxDevices = -1 }, wantErr: "max devices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
