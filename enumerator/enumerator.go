package enumerator

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/device"
)

// Filter decides whether an enumerated device is kept
type Filter func(device.Info) bool

// Options configures an Enumerator
type Options struct {
	// Filter drops devices it rejects; rejected devices are released before
	// the walk continues. Nil keeps everything.
	Filter Filter
	// MaxDevices stops the walk once this many devices were kept. Zero means no bound.
	MaxDevices int
}

// Option is a functional option for configuring Options
type Option func(*Options)

// WithFilter sets the device filter
func WithFilter(f Filter) Option {
	return func(o *Options) {
		o.Filter = f
	}
}

// WithMaxDevices bounds the number of devices one walk returns
func WithMaxDevices(n int) Option {
	return func(o *Options) {
		o.MaxDevices = n
	}
}

// Enumerator walks registry categories and wraps each item as an owned Device.
// It holds no per-walk state, so concurrent calls for different categories are independent.
type Enumerator struct {
	registry device.Registry
	resolver *NameResolver
	logger   *logrus.Logger
	opts     Options
}

// NewEnumerator creates an enumerator over a registry and property store
func NewEnumerator(registry device.Registry, properties device.PropertyStore, logger *logrus.Logger, opts ...Option) *Enumerator {
	if logger == nil {
		logger = logrus.New()
	}

	e := &Enumerator{
		registry: registry,
		resolver: NewNameResolver(properties, logger),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e
}

// Resolver returns the name resolver used for each walked device
func (e *Enumerator) Resolver() *NameResolver {
	return e.resolver
}

// GetDevices returns the devices of a category in registry order and whether
// any were found. The result is never partial: on failure it is empty and no
// native resources remain held by this call. The caller owns the returned
// devices and should release them.
func (e *Enumerator) GetDevices(category device.Category) (device.Devices, bool) {
	devs, err := e.Enumerate(category)
	if err != nil {
		return nil, false
	}
	return devs, len(devs) > 0
}

// Enumerate performs the same walk as GetDevices and also reports the cause
// of an empty result. It returns nil for success and for an empty category,
// and an *device.EnumerationError of kind EnumerationUnavailable or PullFailed
// otherwise. Devices are always empty when the error is non-nil.
func (e *Enumerator) Enumerate(category device.Category) (devs device.Devices, err error) {
	log := e.logger.WithField("category", category.String())

	if e.registry == nil {
		err = &device.EnumerationError{Kind: device.EnumerationUnavailable, Category: category.String(), Msg: "no registry"}
		log.WithError(err).Warn("Device enumeration unavailable")
		return nil, err
	}

	session, err := e.openSession(category)
	switch {
	case errors.Is(err, device.ErrCategoryEmpty):
		log.Debug("Category has no devices")
		return nil, nil
	case err != nil:
		if !device.IsEnumerationKind(err, device.EnumerationUnavailable) {
			err = &device.EnumerationError{Kind: device.EnumerationUnavailable, Category: category.String(), Err: err}
		}
		log.WithError(err).Warn("Device enumeration unavailable")
		return nil, err
	case session == nil:
		log.Debug("Category has no devices")
		return nil, nil
	}

	// inFlight holds a pulled handle until it is wrapped into a Device;
	// pending holds a wrapped Device until it is kept or rejected.
	var (
		inFlight device.Handle
		pending  *device.Device
	)

	defer func() {
		if rec := recover(); rec != nil {
			err = &device.EnumerationError{Kind: device.PullFailed, Category: category.String(), Msg: fmt.Sprintf("panic: %v", rec)}
		}

		if pending != nil {
			pending.Release()
		}
		if inFlight != nil {
			inFlight.Release()
		}
		if err != nil {
			log.WithError(err).WithField("released", len(devs)).Warn("Device enumeration failed")
			devs.Release()
			devs = nil
		}
		session.Release()
	}()

	kept := 0
	for index := 0; ; index++ {
		if e.opts.MaxDevices > 0 && kept >= e.opts.MaxDevices {
			log.WithField("max_devices", e.opts.MaxDevices).Debug("Device limit reached")
			break
		}

		h, pullErr := session.Next()
		if errors.Is(pullErr, device.ErrEndOfSequence) {
			break
		}
		if pullErr != nil {
			if h != nil {
				h.Release()
			}
			if !device.IsEnumerationKind(pullErr, device.PullFailed) {
				pullErr = &device.EnumerationError{Kind: device.PullFailed, Category: category.String(), Err: pullErr}
			}
			return devs, pullErr
		}
		if h == nil {
			break
		}
		inFlight = h

		name, named := e.resolver.Resolve(h)
		if !named {
			log.WithField("index", index).Debug("Device name unresolved")
		}

		pending = device.NewDevice(h, category, index, name, named)
		inFlight = nil

		if e.opts.Filter != nil && !e.opts.Filter(pending.Info()) {
			log.WithField("index", index).Debug("Device rejected by filter")
			pending.Release()
			pending = nil
			continue
		}

		devs = append(devs, pending)
		pending = nil
		kept++
	}

	log.WithField("device_count", len(devs)).Debug("Device enumeration completed")
	return devs, nil
}

// openSession isolates a panicking registry so it degrades to EnumerationUnavailable
func (e *Enumerator) openSession(category device.Category) (session device.Session, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			session = nil
			err = fmt.Errorf("registry panic: %v", rec)
		}
	}()
	return e.registry.OpenCategory(category)
}
