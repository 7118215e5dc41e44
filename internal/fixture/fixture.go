// Package fixture implements a virtual device registry backed by a YAML file.
//
// A fixture stands in for the native registry and property store on machines
// without DirectShow, and lets demos and tests inject failures:
//
//	categories:
//	  video-input:
//	    devices:
//	      - name: Camera A
//	        properties: {DevicePath: "\\\\?\\usb#vid_046d"}
//	      - {}            # no FriendlyName
//	    fail_after: 2     # the third pull fails
//	  audio-input:
//	    unavailable: true
//
// Category keys are catdb aliases, display names or GUID text.
package fixture

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/catdb"
	"github.com/srg/devenum/internal/device"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// DeviceSpec is one fixture device. An empty Name means no FriendlyName property.
type DeviceSpec struct {
	Name       string            `yaml:"name,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// CategorySpec is the content of one fixture category
type CategorySpec struct {
	Devices []DeviceSpec `yaml:"devices,omitempty"`
	// FailAfter makes the pull following the first FailAfter devices fail
	FailAfter   *int `yaml:"fail_after,omitempty"`
	Unavailable bool `yaml:"unavailable,omitempty"`
}

type document struct {
	Unavailable bool      `yaml:"unavailable,omitempty"`
	Categories  yaml.Node `yaml:"categories"`
}

// Registry is a device.Registry and device.PropertyStore over fixture data.
// Every handle it hands out is counted until released.
type Registry struct {
	unavailable bool
	categories  *orderedmap.OrderedMap[device.Category, *CategorySpec]
	logger      *logrus.Logger

	outstanding atomic.Int64
	opened      atomic.Int64
}

// Load reads a fixture file
func Load(path string, logger *logrus.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	r, err := Parse(data, logger)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return r, nil
}

// Parse builds a registry from fixture YAML, keeping category order
func Parse(data []byte, logger *logrus.Logger) (*Registry, error) {
	if logger == nil {
		logger = logrus.New()
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid fixture YAML: %w", err)
	}

	r := &Registry{
		unavailable: doc.Unavailable,
		categories:  orderedmap.New[device.Category, *CategorySpec](),
		logger:      logger,
	}

	node := &doc.Categories
	if node.Kind == 0 {
		return r, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: categories must be a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		category, err := catdb.Resolve(key.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", key.Line, err)
		}
		if _, dup := r.categories.Get(category); dup {
			return nil, fmt.Errorf("line %d: category %q defined twice", key.Line, key.Value)
		}

		spec := &CategorySpec{}
		if err := value.Decode(spec); err != nil {
			return nil, fmt.Errorf("line %d: category %q: %w", value.Line, key.Value, err)
		}
		if spec.FailAfter != nil && *spec.FailAfter < 0 {
			return nil, fmt.Errorf("line %d: category %q: fail_after must not be negative", value.Line, key.Value)
		}
		r.categories.Set(category, spec)
	}

	return r, nil
}

// Categories returns the fixture categories in file order
func (r *Registry) Categories() []device.Category {
	out := make([]device.Category, 0, r.categories.Len())
	for pair := r.categories.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Outstanding is the number of handles handed out and not yet released
func (r *Registry) Outstanding() int64 {
	return r.outstanding.Load()
}

// Opened is the total number of handles ever handed out
func (r *Registry) Opened() int64 {
	return r.opened.Load()
}

func (r *Registry) track() *counted {
	r.opened.Add(1)
	r.outstanding.Add(1)
	return &counted{reg: r}
}

// OpenCategory implements device.Registry
func (r *Registry) OpenCategory(category device.Category) (device.Session, error) {
	spec, ok := r.categories.Get(category)
	switch {
	case r.unavailable || (ok && spec.Unavailable):
		return nil, &device.EnumerationError{Kind: device.EnumerationUnavailable, Category: category.String(), Msg: "fixture registry marked unavailable"}
	case !ok || (len(spec.Devices) == 0 && spec.FailAfter == nil):
		return nil, &device.EnumerationError{Kind: device.CategoryEmpty, Category: category.String()}
	}

	r.logger.WithFields(logrus.Fields{
		"category": category.String(),
		"devices":  len(spec.Devices),
	}).Debug("Opened fixture category")

	return &session{counted: r.track(), spec: spec, category: category}, nil
}

// OpenPropertyView implements device.PropertyStore
func (r *Registry) OpenPropertyView(h device.Handle) (device.PropertyView, error) {
	item, ok := h.(*itemHandle)
	if !ok || item.reg != r {
		return nil, &device.PropertyError{Kind: device.PropertyUnavailable, Msg: fmt.Sprintf("not a handle of this fixture: %T", h)}
	}
	if item.isReleased() {
		return nil, &device.PropertyError{Kind: device.PropertyUnavailable, Msg: "device handle already released"}
	}
	return &view{counted: r.track(), spec: item.spec}, nil
}

// counted is the release bookkeeping shared by every fixture handle
type counted struct {
	reg      *Registry
	once     sync.Once
	released atomic.Bool
}

func (c *counted) Release() {
	c.once.Do(func() {
		c.released.Store(true)
		c.reg.outstanding.Add(-1)
	})
}

func (c *counted) isReleased() bool {
	return c.released.Load()
}

type session struct {
	*counted
	spec     *CategorySpec
	category device.Category
	pos      int
}

func (s *session) Next() (device.Handle, error) {
	if s.isReleased() {
		return nil, &device.EnumerationError{Kind: device.PullFailed, Category: s.category.String(), Msg: "session already released"}
	}
	if s.spec.FailAfter != nil && s.pos >= *s.spec.FailAfter {
		return nil, &device.EnumerationError{
			Kind:     device.PullFailed,
			Category: s.category.String(),
			Msg:      fmt.Sprintf("injected failure after %d devices", *s.spec.FailAfter),
		}
	}
	if s.pos >= len(s.spec.Devices) {
		return nil, device.ErrEndOfSequence
	}

	item := &itemHandle{counted: s.reg.track(), spec: &s.spec.Devices[s.pos]}
	s.pos++
	return item, nil
}

type itemHandle struct {
	*counted
	spec *DeviceSpec
}

type view struct {
	*counted
	spec *DeviceSpec
}

func (v *view) ReadString(key string) (string, error) {
	if v.isReleased() {
		return "", &device.PropertyError{Kind: device.ReadFailed, Key: key, Msg: "property view already released"}
	}
	if key == device.FriendlyNameKey && v.spec.Name != "" {
		return v.spec.Name, nil
	}
	if value, ok := v.spec.Properties[key]; ok {
		return value, nil
	}
	return "", &device.PropertyError{Kind: device.ReadFailed, Key: key, Msg: "no such property"}
}
