package dshow

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/device"
	"golang.org/x/sys/windows"
)

var (
	mtaOnce sync.Once
	mtaErr  error
)

// ensureMTA keeps a process-wide multithreaded apartment alive so COM calls
// are valid from whichever OS thread a goroutine happens to run on.
func ensureMTA() error {
	mtaOnce.Do(func() {
		if err := procCoIncrementMTAUsage.Find(); err != nil {
			mtaErr = fmt.Errorf("CoIncrementMTAUsage unavailable: %w", err)
			return
		}
		var cookie uintptr
		if hr := coIncrementMTAUsage(&cookie); hr.failed() {
			mtaErr = fmt.Errorf("CoIncrementMTAUsage: %w", hr)
		}
	})
	return mtaErr
}

// comRef owns one reference to a COM object and releases it at most once
type comRef[T any] struct {
	ptr atomic.Pointer[T]
}

func newComRef[T any](obj *T) *comRef[T] {
	r := &comRef[T]{}
	r.ptr.Store(obj)
	return r
}

func (r *comRef[T]) get() *T {
	return r.ptr.Load()
}

func (r *comRef[T]) Release() {
	releaseObject(r.ptr.Swap(nil))
}

// Registry walks DirectShow device categories through the system device enumerator
type Registry struct {
	logger *logrus.Logger
}

func NewRegistry(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{logger: logger}
}

func unavailable(category device.Category, err error) error {
	return &device.EnumerationError{Kind: device.EnumerationUnavailable, Category: category.String(), Err: err}
}

// OpenCategory implements device.Registry
func (r *Registry) OpenCategory(category device.Category) (device.Session, error) {
	if err := ensureMTA(); err != nil {
		return nil, unavailable(category, err)
	}

	guid, err := windows.GUIDFromString(category.String())
	if err != nil {
		return nil, unavailable(category, err)
	}

	var obj unsafe.Pointer
	if hr := coCreateInstance(&clsidSystemDeviceEnum, 0, clsctxInprocServer, &iidICreateDevEnum, &obj); hr.failed() {
		return nil, unavailable(category, fmt.Errorf("CoCreateInstance(SystemDeviceEnum): %w", hr))
	}
	devEnum := (*iCreateDevEnum)(obj)

	enum, hr := devEnum.createClassEnumerator(&guid)
	switch {
	case hr.failed():
		releaseObject(devEnum)
		return nil, unavailable(category, fmt.Errorf("CreateClassEnumerator: %w", hr))
	case hr == sFalse || enum == nil:
		releaseObject(enum)
		releaseObject(devEnum)
		return nil, &device.EnumerationError{Kind: device.CategoryEmpty, Category: category.String()}
	}

	r.logger.WithField("category", category.String()).Debug("Opened class enumerator")
	return &session{
		devEnum: newComRef(devEnum),
		enum:    newComRef(enum),
	}, nil
}

// session holds the class enumerator and the device enumerator that produced it
type session struct {
	devEnum *comRef[iCreateDevEnum]
	enum    *comRef[iEnumMoniker]
}

// Next implements device.Session
func (s *session) Next() (device.Handle, error) {
	enum := s.enum.get()
	if enum == nil {
		return nil, &device.EnumerationError{Kind: device.PullFailed, Msg: "session already released"}
	}

	mon, hr := enum.next()
	switch {
	case hr.failed():
		releaseObject(mon)
		return nil, &device.EnumerationError{Kind: device.PullFailed, Err: fmt.Errorf("IEnumMoniker::Next: %w", hr)}
	case hr == sFalse || mon == nil:
		return nil, device.ErrEndOfSequence
	}
	return newComRef(mon), nil
}

// Release releases the class enumerator before the device enumerator
func (s *session) Release() {
	s.enum.Release()
	s.devEnum.Release()
}

// PropertyStore binds device monikers to their property bags
type PropertyStore struct {
	logger *logrus.Logger
}

func NewPropertyStore(logger *logrus.Logger) *PropertyStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &PropertyStore{logger: logger}
}

// OpenPropertyView implements device.PropertyStore
func (p *PropertyStore) OpenPropertyView(h device.Handle) (device.PropertyView, error) {
	ref, ok := h.(*comRef[iMoniker])
	if !ok {
		return nil, &device.PropertyError{Kind: device.PropertyUnavailable, Msg: fmt.Sprintf("not a DirectShow moniker: %T", h)}
	}
	mon := ref.get()
	if mon == nil {
		return nil, &device.PropertyError{Kind: device.PropertyUnavailable, Msg: "moniker already released"}
	}

	bag, hr := mon.bindToPropertyBag()
	if hr.failed() || bag == nil {
		releaseObject(bag)
		return nil, &device.PropertyError{Kind: device.PropertyUnavailable, Err: fmt.Errorf("IMoniker::BindToStorage: %w", hr)}
	}
	return &propertyView{bag: newComRef(bag)}, nil
}

type propertyView struct {
	bag *comRef[iPropertyBag]
}

// ReadString implements device.PropertyView; only VT_BSTR values are accepted
func (v *propertyView) ReadString(key string) (string, error) {
	bag := v.bag.get()
	if bag == nil {
		return "", &device.PropertyError{Kind: device.ReadFailed, Key: key, Msg: "property view already released"}
	}

	name, err := windows.UTF16PtrFromString(key)
	if err != nil {
		return "", &device.PropertyError{Kind: device.ReadFailed, Key: key, Err: err}
	}

	var val variant
	hr := bag.read(name, &val)
	defer variantClear(&val)

	switch {
	case hr.failed():
		return "", &device.PropertyError{Kind: device.ReadFailed, Key: key, Err: fmt.Errorf("IPropertyBag::Read: %w", hr)}
	case val.vt != vtBSTR:
		return "", &device.PropertyError{Kind: device.ReadFailed, Key: key, Msg: fmt.Sprintf("not a string (VARTYPE %d)", val.vt)}
	}
	return val.bstr(), nil
}

func (v *propertyView) Release() {
	v.bag.Release()
}
