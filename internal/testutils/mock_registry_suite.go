package testutils

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/devicefactory"
	"github.com/stretchr/testify/suite"
)

// MockRegistrySuite provides a reusable test suite backed by a MockRegistry.
// It swaps devicefactory.BackendFactory for the duration of each test so code
// that builds its own backend (CLI commands, inspector) sees the mock.
//
// Basic usage (default registry with two video devices):
//
//	type ListSuite struct {
//	    testutils.MockRegistrySuite
//	}
//
//	func TestListSuite(t *testing.T) {
//	    suite.Run(t, new(ListSuite))
//	}
//
// Custom registry:
//
//	func (s *ListSuite) SetupTest() {
//	    s.WithRegistry().
//	        WithCategory(testutils.AudioCategory).
//	        WithDevice("mic", "Microphone")
//
//	    s.MockRegistrySuite.SetupTest() // Call parent last to apply configuration
//	}
type MockRegistrySuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	OriginalBackendFactory func(*logrus.Logger) (devicefactory.Backend, error)

	RegistryBuilder *RegistryBuilder
	// Registry is the mock built for the current test
	Registry *MockRegistry
}

// SetupSuite saves the backend factory; it is restored via t.Cleanup.
func (s *MockRegistrySuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger

	s.OriginalBackendFactory = devicefactory.BackendFactory
	s.T().Cleanup(func() {
		devicefactory.BackendFactory = s.OriginalBackendFactory
		s.Logger.Debug("Backend factory restored via t.Cleanup")
	})

	s.Logger.Debug("Suite setup completed")
}

// SetupTest builds the configured registry and installs it as the backend.
func (s *MockRegistrySuite) SetupTest() {
	if s.RegistryBuilder == nil {
		s.RegistryBuilder = createDefaultRegistryBuilder()
	}

	s.UseRegistry(s.RegistryBuilder)
	s.Logger.Debug("Test setup completed - ready for execution")
}

// UseRegistry builds b and installs it as the backend for the rest of the test.
// The replaced registry must already have all its handles back.
func (s *MockRegistrySuite) UseRegistry(b *RegistryBuilder) *MockRegistry {
	if s.Registry != nil {
		s.Empty(s.Registry.Outstanding(), "handles not released before registry swap")
	}

	reg := b.Build()
	s.Registry = reg
	devicefactory.BackendFactory = func(*logrus.Logger) (devicefactory.Backend, error) {
		return devicefactory.Backend{
			Registry:    reg,
			Properties:  reg,
			Outstanding: func() int64 { return int64(len(reg.Outstanding())) },
		}, nil
	}
	return reg
}

// TearDownTest verifies that the test gave back every handle, then resets the builder.
func (s *MockRegistrySuite) TearDownTest() {
	if s.Registry != nil {
		s.Empty(s.Registry.Outstanding(), "handles not released exactly once")
	}

	devicefactory.BackendFactory = s.OriginalBackendFactory
	s.RegistryBuilder = nil
	s.Registry = nil
}

// WithRegistry returns the registry builder for fluent configuration in SetupTest.
func (s *MockRegistrySuite) WithRegistry() *RegistryBuilder {
	if s.RegistryBuilder == nil {
		s.RegistryBuilder = NewRegistryBuilder()
	}
	return s.RegistryBuilder
}

// createDefaultRegistryBuilder returns a registry with two named video devices
// and one unnamed one.
func createDefaultRegistryBuilder() *RegistryBuilder {
	return NewRegistryBuilder().
		WithCategory(VideoCategory).
		WithDevice("cam1", "Integrated Camera", WithProperty("DevicePath", `\\?\usb#vid_04f2&pid_b6dd`)).
		WithDevice("cam2", "OBS Virtual Camera", WithProperty("CLSID", "{A3FCE0F5-3493-419F-958A-ABA1250EC20B}")).
		WithDevice("cam3", "", WithoutName())
}
