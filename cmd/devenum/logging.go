package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/devenum/pkg/config"
)

// loadConfig starts from the defaults (DEVENUM_FIXTURE included) and applies
// the persistent flags. --log-level takes precedence over --verbose; without
// either the level stays at the configured default, which keeps logging silent.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	} else if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = logrus.DebugLevel.String()
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}

	if path, _ := cmd.Flags().GetString("fixture"); path != "" {
		cfg.FixturePath = path
	}
	return cfg, nil
}

// configureLogger builds the logger cfg describes, writing to the command's stderr
func configureLogger(cmd *cobra.Command, cfg *config.Config) *logrus.Logger {
	logger := cfg.NewLogger()
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}
