package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/devenum/enumerator"
	"github.com/srg/devenum/internal/catdb"
	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/devicefactory"
	"github.com/srg/devenum/pkg/config"
)

// commandEnv is what every device command needs: configuration, a logger and
// an open backend.
type commandEnv struct {
	cfg     *config.Config
	logger  *logrus.Logger
	backend devicefactory.Backend
}

// newCommandEnv reads the persistent flags and opens the backend. cfgFn may
// adjust the configuration from command flags before it is validated.
func newCommandEnv(cmd *cobra.Command, cfgFn func(*config.Config)) (*commandEnv, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfgFn != nil {
		cfgFn(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := configureLogger(cmd, cfg)

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	backend, err := devicefactory.NewBackend(cfg.FixturePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open device backend: %w", err)
	}
	if cfg.FixturePath != "" {
		logger.WithField("fixture", cfg.FixturePath).Debug("Using fixture backend")
	}

	return &commandEnv{cfg: cfg, logger: logger, backend: backend}, nil
}

func (e *commandEnv) enumerator(opts ...enumerator.Option) *enumerator.Enumerator {
	return enumerator.NewEnumerator(e.backend.Registry, e.backend.Properties, e.logger, opts...)
}

// category resolves a command argument, falling back to the configured default
func (e *commandEnv) category(args []string) (device.Category, error) {
	name := e.cfg.Category
	if len(args) > 0 {
		name = args[0]
	}
	return catdb.Resolve(name)
}

// close reports handles the command failed to give back, when the backend can tell
func (e *commandEnv) close() {
	if e.backend.Outstanding == nil {
		return
	}
	log := e.logger.WithField("outstanding", e.backend.Outstanding())
	if e.backend.Outstanding() != 0 {
		log.Warn("Backend handles still held")
		return
	}
	log.Debug("All backend handles released")
}
