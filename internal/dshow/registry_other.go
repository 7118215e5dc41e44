//go:build !windows

package dshow

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/device"
)

// Registry reports EnumerationUnavailable for every category outside Windows
type Registry struct {
	logger *logrus.Logger
}

func NewRegistry(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{logger: logger}
}

// OpenCategory implements device.Registry
func (r *Registry) OpenCategory(category device.Category) (device.Session, error) {
	r.logger.WithField("os", runtime.GOOS).Debug("DirectShow registry is not available on this platform")
	return nil, &device.EnumerationError{
		Kind:     device.EnumerationUnavailable,
		Category: category.String(),
		Msg:      fmt.Sprintf("DirectShow device enumeration requires Windows, running on %s", runtime.GOOS),
	}
}

// PropertyStore reports PropertyUnavailable for every handle outside Windows
type PropertyStore struct{}

func NewPropertyStore(_ *logrus.Logger) *PropertyStore {
	return &PropertyStore{}
}

// OpenPropertyView implements device.PropertyStore
func (p *PropertyStore) OpenPropertyView(_ device.Handle) (device.PropertyView, error) {
	return nil, &device.PropertyError{Kind: device.PropertyUnavailable, Msg: "property bags require Windows"}
}
