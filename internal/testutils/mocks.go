package testutils

import (
	"github.com/srg/devenum/internal/device"
	"github.com/stretchr/testify/mock"
)

// MockPropertyStore is a testify mock of device.PropertyStore for tests that
// need call-level expectations rather than the builder-driven MockRegistry.
type MockPropertyStore struct {
	mock.Mock
}

func (m *MockPropertyStore) OpenPropertyView(h device.Handle) (device.PropertyView, error) {
	args := m.Called(h)
	view, _ := args.Get(0).(device.PropertyView)
	return view, args.Error(1)
}

// MockPropertyView is a testify mock of device.PropertyView
type MockPropertyView struct {
	mock.Mock
}

func (m *MockPropertyView) ReadString(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockPropertyView) Release() {
	m.Called()
}
