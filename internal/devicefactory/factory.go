package devicefactory

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/dshow"
	"github.com/srg/devenum/internal/fixture"
)

// Backend pairs the two native collaborators an enumeration needs
type Backend struct {
	Registry   device.Registry
	Properties device.PropertyStore

	// Outstanding counts handles handed out and not yet released. It is nil
	// when the backend cannot report it.
	Outstanding func() int64
}

// BackendFactory creates the backend for the current platform.
// This is a variable so that it can be overridden in tests.
var BackendFactory = func(logger *logrus.Logger) (Backend, error) {
	return Backend{
		Registry:   dshow.NewRegistry(logger),
		Properties: dshow.NewPropertyStore(logger),
	}, nil
}

// FromFixture creates a backend over a YAML fixture file instead of the native registry
func FromFixture(path string, logger *logrus.Logger) (Backend, *fixture.Registry, error) {
	reg, err := fixture.Load(path, logger)
	if err != nil {
		return Backend{}, nil, err
	}
	return Backend{Registry: reg, Properties: reg, Outstanding: reg.Outstanding}, reg, nil
}

// NewBackend returns a fixture backend when fixturePath is set and the
// BackendFactory backend otherwise.
func NewBackend(fixturePath string, logger *logrus.Logger) (Backend, error) {
	if fixturePath != "" {
		b, _, err := FromFixture(fixturePath, logger)
		return b, err
	}
	return BackendFactory(logger)
}
