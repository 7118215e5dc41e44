package enumerator

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/device"
)

// NameResolver reads display metadata from a device through the property store.
// It borrows handles and never changes their ownership.
type NameResolver struct {
	store  device.PropertyStore
	logger *logrus.Logger
}

// NewNameResolver creates a resolver over store
func NewNameResolver(store device.PropertyStore, logger *logrus.Logger) *NameResolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &NameResolver{store: store, logger: logger}
}

// Resolve returns the device's FriendlyName, or false when it cannot be read or is empty.
func (r *NameResolver) Resolve(h device.Handle) (string, bool) {
	return r.ReadString(h, device.FriendlyNameKey)
}

// ReadString reads one string property. It never panics outward: any failure,
// including a panicking collaborator, yields ("", false).
func (r *NameResolver) ReadString(h device.Handle, key string) (value string, ok bool) {
	value, err := r.readString(h, key)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Debug("Property unresolved")
		return "", false
	}
	return value, true
}

func (r *NameResolver) readString(h device.Handle, key string) (value string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value = ""
			err = &device.PropertyError{Kind: device.NameUnresolvable, Key: key, Msg: fmt.Sprintf("panic: %v", rec)}
		}
	}()

	if r.store == nil || h == nil {
		return "", &device.PropertyError{Kind: device.PropertyUnavailable, Key: key, Msg: "no property store or handle"}
	}

	view, err := r.store.OpenPropertyView(h)
	if err != nil {
		return "", &device.PropertyError{Kind: device.NameUnresolvable, Key: key, Err: err}
	}
	if view == nil {
		return "", &device.PropertyError{Kind: device.NameUnresolvable, Key: key, Msg: "nil property view"}
	}
	defer view.Release()

	value, err = view.ReadString(key)
	if err != nil {
		return "", &device.PropertyError{Kind: device.NameUnresolvable, Key: key, Err: err}
	}
	if value == "" {
		return "", &device.PropertyError{Kind: device.NameUnresolvable, Key: key, Msg: "empty value"}
	}
	return value, nil
}
