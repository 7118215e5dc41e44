package testutils

import (
	"fmt"

	"github.com/srg/devenum/internal/device"
)

// RegistryBuilder builds MockRegistry instances for testing.
// It provides a fluent API: WithCategory selects the category that following
// WithDevice/FailPullAfter calls configure.
//
//	reg := testutils.NewRegistryBuilder().
//	    WithCategory(testutils.VideoCategory).
//	    WithDevice("h1", "Camera A").
//	    WithDevice("h2", "", testutils.WithoutName()).
//	    FailPullAfter(2).
//	    Build()
type RegistryBuilder struct {
	unavailable bool
	categories  map[device.Category]*mockCategory
	current     *mockCategory
	ids         map[string]bool
}

// DeviceOption configures one mock device
type DeviceOption func(*mockItem)

// Well-known categories for tests
var (
	VideoCategory = device.MustParseCategory("{860BB310-5D01-11D0-BD3B-00A0C911CE86}")
	AudioCategory = device.MustParseCategory("{33D9A762-90C8-11D0-BD43-00A0C911CE86}")
	EmptyCategory = device.MustParseCategory("{E0F158E1-CB04-11D0-BD4E-00A0C911CE86}")
)

// NewRegistryBuilder creates an empty builder; every category is CategoryEmpty until configured.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		categories: make(map[device.Category]*mockCategory),
		ids:        make(map[string]bool),
	}
}

// WithUnavailable makes every OpenCategory call report EnumerationUnavailable.
func (b *RegistryBuilder) WithUnavailable() *RegistryBuilder {
	b.unavailable = true
	return b
}

// WithCategory selects (creating if needed) the category to configure.
func (b *RegistryBuilder) WithCategory(category device.Category) *RegistryBuilder {
	cat, ok := b.categories[category]
	if !ok {
		cat = &mockCategory{failAfter: -1, panicAfter: -1, nilAfter: -1}
		b.categories[category] = cat
	}
	b.current = cat
	return b
}

// WithDevice appends a device with the given handle ID to the current category.
// A non-empty name is exposed as the FriendlyName property; an empty name is
// exposed as an empty FriendlyName value.
// Panics if no category was selected or the ID is reused, as this is test setup.
func (b *RegistryBuilder) WithDevice(id, name string, opts ...DeviceOption) *RegistryBuilder {
	if b.current == nil {
		panic("WithDevice: call WithCategory first")
	}
	if b.ids[id] {
		panic(fmt.Sprintf("WithDevice: duplicate handle ID %q", id))
	}
	b.ids[id] = true

	item := &mockItem{
		id:         id,
		properties: map[string]string{device.FriendlyNameKey: name},
		readFails:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(item)
	}
	b.current.items = append(b.current.items, item)
	return b
}

// WithDevices appends one named device per name, with IDs "<prefix>1", "<prefix>2", ...
func (b *RegistryBuilder) WithDevices(prefix string, names ...string) *RegistryBuilder {
	for i, name := range names {
		b.WithDevice(fmt.Sprintf("%s%d", prefix, i+1), name)
	}
	return b
}

// FailPullAfter makes pull k+1 of the current category report PullFailed.
func (b *RegistryBuilder) FailPullAfter(k int) *RegistryBuilder {
	if b.current == nil {
		panic("FailPullAfter: call WithCategory first")
	}
	b.current.failAfter = k
	return b
}

// PanicPullAfter makes pull k+1 of the current category panic.
func (b *RegistryBuilder) PanicPullAfter(k int) *RegistryBuilder {
	if b.current == nil {
		panic("PanicPullAfter: call WithCategory first")
	}
	b.current.panicAfter = k
	return b
}

// NilPullAfter makes pull k+1 of the current category return a nil handle without error.
func (b *RegistryBuilder) NilPullAfter(k int) *RegistryBuilder {
	if b.current == nil {
		panic("NilPullAfter: call WithCategory first")
	}
	b.current.nilAfter = k
	return b
}

// Build creates the MockRegistry. The builder can be built again for a fresh registry.
func (b *RegistryBuilder) Build() *MockRegistry {
	reg := &MockRegistry{
		unavailable: b.unavailable,
		categories:  make(map[device.Category]*mockCategory, len(b.categories)),
		log:         &ReleaseLog{},
		latest:      make(map[string]*MockHandle),
	}
	for c, cat := range b.categories {
		reg.categories[c] = cat
	}
	return reg
}

// WithoutName removes the FriendlyName property so reading it fails.
func WithoutName() DeviceOption {
	return func(item *mockItem) {
		delete(item.properties, device.FriendlyNameKey)
	}
}

// WithProperty sets an additional string property.
func WithProperty(key, value string) DeviceOption {
	return func(item *mockItem) {
		item.properties[key] = value
	}
}

// WithReadFailure makes reading key report ReadFailed even if it is set.
func WithReadFailure(key string) DeviceOption {
	return func(item *mockItem) {
		item.readFails[key] = true
	}
}

// WithViewUnavailable makes opening the property view fail.
func WithViewUnavailable() DeviceOption {
	return func(item *mockItem) {
		item.viewUnavailable = true
	}
}
