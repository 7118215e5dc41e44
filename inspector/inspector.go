// Package inspector selects one device of a category and reads its properties.
package inspector

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/enumerator"
	"github.com/srg/devenum/internal/device"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultKeys are the property-bag values read when none are requested
var DefaultKeys = []string{device.FriendlyNameKey, "Description", "DevicePath", "CLSID", "WaveInID"}

// ProgressCallback is called when the inspection phase changes
type ProgressCallback func(phase string)

// InspectCallback processes the selected device and produces output of type R.
// The device is borrowed: it is released after the callback returns.
type InspectCallback[R any] func(dev *device.Device, resolver *enumerator.NameResolver) (R, error)

// Report is the result of inspecting one device
type Report struct {
	Device     device.Info                            `json:"device"`
	Properties *orderedmap.OrderedMap[string, string] `json:"properties"`
}

// InspectDevice enumerates category, selects one device with selector and runs
// callback with it. Every enumerated device, the selected one included, is
// released before InspectDevice returns.
//
// selector is an index ("2" or "#2") or a case-insensitive name; empty selects
// the first device.
func InspectDevice[R any](enum *enumerator.Enumerator, category device.Category, selector string, logger *logrus.Logger, progressCallback ProgressCallback, callback InspectCallback[R]) (R, error) {
	var zero R
	if logger == nil {
		logger = logrus.New()
	}
	if progressCallback == nil {
		progressCallback = func(string) {}
	}

	progressCallback("Enumerating")
	devs, err := enum.Enumerate(category)
	if err != nil {
		progressCallback("Failed")
		return zero, fmt.Errorf("failed to enumerate %s: %w", category, err)
	}
	defer devs.Release()

	dev, err := Select(devs, selector)
	if err != nil {
		progressCallback("Failed")
		return zero, err
	}

	logger.WithFields(logrus.Fields{
		"index": dev.Index(),
		"name":  dev.DisplayName(),
	}).Debug("Selected device")

	progressCallback("Reading properties")
	return callback(dev, enum.Resolver())
}

// Select finds the device matching selector without changing ownership
func Select(devs device.Devices, selector string) (*device.Device, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		if len(devs) == 0 {
			return nil, &device.NotFoundError{Resource: "device"}
		}
		return devs[0], nil
	}

	if index, err := strconv.Atoi(strings.TrimPrefix(selector, "#")); err == nil {
		for _, d := range devs {
			if d.Index() == index {
				return d, nil
			}
		}
		return nil, &device.NotFoundError{Resource: "device", Selector: selector}
	}

	for _, d := range devs {
		if name, ok := d.Name(); ok && strings.EqualFold(name, selector) {
			return d, nil
		}
	}
	return nil, &device.NotFoundError{Resource: "device", Selector: selector}
}

// ReadProperties reads keys from dev in order, skipping those that are absent
func ReadProperties(resolver *enumerator.NameResolver, dev *device.Device, keys []string) *orderedmap.OrderedMap[string, string] {
	props := orderedmap.New[string, string]()

	h, ok := dev.Handle()
	if !ok {
		return props
	}
	if len(keys) == 0 {
		keys = DefaultKeys
	}
	for _, key := range keys {
		if value, ok := resolver.ReadString(h, key); ok {
			props.Set(key, value)
		}
	}
	runtime.KeepAlive(dev)
	return props
}

// Inspect is InspectDevice with a callback that builds a Report
func Inspect(enum *enumerator.Enumerator, category device.Category, selector string, keys []string, logger *logrus.Logger, progressCallback ProgressCallback) (*Report, error) {
	return InspectDevice(enum, category, selector, logger, progressCallback, func(dev *device.Device, resolver *enumerator.NameResolver) (*Report, error) {
		report := &Report{
			Device:     dev.Info(),
			Properties: ReadProperties(resolver, dev, keys),
		}
		if path, ok := report.Properties.Get("DevicePath"); ok {
			report.Device.Path = path
		}
		return report, nil
	})
}
