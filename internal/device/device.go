package device

import (
	"encoding/json"
	"runtime"
	"sync"
	"sync/atomic"
)

// Handle is a reference to a resource owned by a native subsystem.
// Release must tolerate being called more than once; callers in this module
// never rely on that and release each owned handle exactly once.
type Handle interface {
	Release()
}

// Registry opens category walks
type Registry interface {
	// OpenCategory returns ErrEnumerationUnavailable when the registry cannot be
	// activated and ErrCategoryEmpty when the category has no members.
	OpenCategory(category Category) (Session, error)
}

// Session is one open category walk. Only one Next call may be in flight.
type Session interface {
	Handle

	// Next returns the next item, ErrEndOfSequence when the walk is done,
	// or any other error when the walk failed. A nil handle with a nil
	// error is also treated as the end of the walk.
	Next() (Handle, error)
}

// PropertyStore opens metadata views on device handles
type PropertyStore interface {
	// OpenPropertyView borrows h; it never takes ownership of it.
	OpenPropertyView(h Handle) (PropertyView, error)
}

// PropertyView is a transient key/value view of one device
type PropertyView interface {
	Handle

	ReadString(key string) (string, error)
}

// FriendlyNameKey is the property holding a device's display name
const FriendlyNameKey = "FriendlyName"

// ownedHandle is the part of a Device that outlives it long enough for the
// lifetime cleanup to run. It must never point back at the Device.
type ownedHandle struct {
	h        Handle
	once     sync.Once
	released atomic.Bool
}

func (o *ownedHandle) release() {
	o.once.Do(func() {
		o.released.Store(true)
		o.h.Release()
	})
}

// Device is one enumerated device: a resolved display name plus exclusive
// ownership of its native handle. Name and identity are fixed at construction.
type Device struct {
	name     string
	named    bool
	index    int
	category Category

	owned   *ownedHandle
	cleanup runtime.Cleanup
}

// NewDevice wraps h, taking ownership of it. name is absent when named is false.
func NewDevice(h Handle, category Category, index int, name string, named bool) *Device {
	if name == "" {
		named = false
	}

	d := &Device{
		name:     name,
		named:    named,
		index:    index,
		category: category,
		owned:    &ownedHandle{h: h},
	}
	d.cleanup = runtime.AddCleanup(d, func(o *ownedHandle) { o.release() }, d.owned)
	return d
}

// Name returns the display name and whether one was resolved
func (d *Device) Name() (string, bool) {
	return d.name, d.named
}

// DisplayName returns the name, or an empty string when absent
func (d *Device) DisplayName() string {
	return d.name
}

// Index is the position in registry walk order
func (d *Device) Index() int {
	return d.index
}

func (d *Device) Category() Category {
	return d.category
}

// Handle borrows the native handle. It returns false once the device has been
// released; the handle must not be released or retained by the caller.
//
// The Device must stay reachable for as long as the handle is in use: once it
// is garbage, its cleanup releases the handle. Callers that stop touching the
// Device after this call keep it alive with runtime.KeepAlive(d) after the
// last use of the handle.
func (d *Device) Handle() (Handle, bool) {
	if d.owned.released.Load() {
		return nil, false
	}
	return d.owned.h, true
}

// Released reports whether the native handle has been given back
func (d *Device) Released() bool {
	return d.owned.released.Load()
}

// Release gives the native handle back. Subsequent calls are no-ops.
func (d *Device) Release() {
	d.cleanup.Stop()
	d.owned.release()
}

// Close releases the device; it exists so a Device can be used with defer and io.Closer.
func (d *Device) Close() error {
	d.Release()
	return nil
}

// Info returns a handle-free snapshot of the device
func (d *Device) Info() Info {
	return Info{
		Index:    d.index,
		Name:     d.name,
		Named:    d.named,
		Category: d.category,
	}
}

func (d *Device) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Info())
}

// Info is a snapshot of a device that holds no native resources
type Info struct {
	Index    int      `json:"index"`
	Name     string   `json:"-"`
	Named    bool     `json:"-"`
	Path     string   `json:"path,omitempty"`
	Category Category `json:"category"`
}

// DisplayName returns the name or the given fallback when absent
func (i Info) DisplayName(fallback string) string {
	if !i.Named {
		return fallback
	}
	return i.Name
}

func (i Info) MarshalJSON() ([]byte, error) {
	type alias Info
	var name *string
	if i.Named {
		name = &i.Name
	}
	return json.Marshal(struct {
		alias
		Name *string `json:"name"`
	}{alias: alias(i), Name: name})
}

// Devices is an ordered collection of owned devices
type Devices []*Device

// Release releases every device in the collection
func (ds Devices) Release() {
	for _, d := range ds {
		if d != nil {
			d.Release()
		}
	}
}

// Infos snapshots every device in order
func (ds Devices) Infos() []Info {
	infos := make([]Info, 0, len(ds))
	for _, d := range ds {
		infos = append(infos, d.Info())
	}
	return infos
}

// Names returns each device's display name, or an empty string when absent
func (ds Devices) Names() []string {
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, d.DisplayName())
	}
	return names
}
