package dshow

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

type hresult int32

const (
	sOK    hresult = 0
	sFalse hresult = 1

	clsctxInprocServer = 0x1

	vtEmpty = 0
	vtBSTR  = 8
)

func (hr hresult) failed() bool {
	return hr < 0
}

func (hr hresult) Error() string {
	return fmt.Sprintf("HRESULT 0x%08X", uint32(hr))
}

// Well-known COM identities used by the system device enumerator
var (
	clsidSystemDeviceEnum = windows.GUID{Data1: 0x62BE5D10, Data2: 0x60EB, Data3: 0x11D0, Data4: [8]byte{0xBD, 0x3B, 0x00, 0xA0, 0xC9, 0x11, 0xCE, 0x86}}
	iidICreateDevEnum     = windows.GUID{Data1: 0x29840822, Data2: 0x5B84, Data3: 0x11D0, Data4: [8]byte{0xBD, 0x3B, 0x00, 0xA0, 0xC9, 0x11, 0xCE, 0x86}}
	iidIPropertyBag       = windows.GUID{Data1: 0x55272A00, Data2: 0x42CB, Data3: 0x11CE, Data4: [8]byte{0x81, 0x35, 0x00, 0xAA, 0x00, 0x4B, 0xB8, 0x51}}
)

type iUnknownVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
}

type iUnknown struct {
	vtbl *iUnknownVtbl
}

func (u *iUnknown) release() {
	syscall.SyscallN(u.vtbl.Release, uintptr(unsafe.Pointer(u)))
}

// releaseObject releases any COM interface pointer through its IUnknown slots
func releaseObject[T any](obj *T) {
	if obj != nil {
		(*iUnknown)(unsafe.Pointer(obj)).release()
	}
}

type iCreateDevEnumVtbl struct {
	iUnknownVtbl
	CreateClassEnumerator uintptr
}

type iCreateDevEnum struct {
	vtbl *iCreateDevEnumVtbl
}

func (d *iCreateDevEnum) createClassEnumerator(category *windows.GUID) (*iEnumMoniker, hresult) {
	var enum *iEnumMoniker
	r0, _, _ := syscall.SyscallN(d.vtbl.CreateClassEnumerator,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(category)),
		uintptr(unsafe.Pointer(&enum)),
		0)
	return enum, hresult(r0)
}

type iEnumMonikerVtbl struct {
	iUnknownVtbl
	Next  uintptr
	Skip  uintptr
	Reset uintptr
	Clone uintptr
}

type iEnumMoniker struct {
	vtbl *iEnumMonikerVtbl
}

func (e *iEnumMoniker) next() (*iMoniker, hresult) {
	var (
		mon     *iMoniker
		fetched uint32
	)
	r0, _, _ := syscall.SyscallN(e.vtbl.Next,
		uintptr(unsafe.Pointer(e)),
		1,
		uintptr(unsafe.Pointer(&mon)),
		uintptr(unsafe.Pointer(&fetched)))
	if fetched == 0 {
		mon = nil
	}
	return mon, hresult(r0)
}

type iMonikerVtbl struct {
	iUnknownVtbl
	GetClassID          uintptr
	IsDirty             uintptr
	Load                uintptr
	Save                uintptr
	GetSizeMax          uintptr
	BindToObject        uintptr
	BindToStorage       uintptr
	Reduce              uintptr
	ComposeWith         uintptr
	Enum                uintptr
	IsEqual             uintptr
	Hash                uintptr
	IsRunning           uintptr
	GetTimeOfLastChange uintptr
	Inverse             uintptr
	CommonPrefixWith    uintptr
	RelativePathTo      uintptr
	GetDisplayName      uintptr
	ParseDisplayName    uintptr
	IsSystemMoniker     uintptr
}

type iMoniker struct {
	vtbl *iMonikerVtbl
}

func (m *iMoniker) bindToPropertyBag() (*iPropertyBag, hresult) {
	var bag *iPropertyBag
	r0, _, _ := syscall.SyscallN(m.vtbl.BindToStorage,
		uintptr(unsafe.Pointer(m)),
		0, // no bind context
		0, // no moniker to the left
		uintptr(unsafe.Pointer(&iidIPropertyBag)),
		uintptr(unsafe.Pointer(&bag)))
	return bag, hresult(r0)
}

type iPropertyBagVtbl struct {
	iUnknownVtbl
	Read  uintptr
	Write uintptr
}

type iPropertyBag struct {
	vtbl *iPropertyBagVtbl
}

func (b *iPropertyBag) read(name *uint16, v *variant) hresult {
	r0, _, _ := syscall.SyscallN(b.vtbl.Read,
		uintptr(unsafe.Pointer(b)),
		uintptr(unsafe.Pointer(name)),
		uintptr(unsafe.Pointer(v)),
		0) // no error log
	return hresult(r0)
}

// variant mirrors the VARIANT layout: a type tag, three reserved words and a
// union at least two pointers wide.
type variant struct {
	vt       uint16
	reserved [3]uint16
	val      uintptr
	_        uintptr
}

// bstr returns the string payload of a VT_BSTR variant
func (v *variant) bstr() string {
	p := *(**uint16)(unsafe.Pointer(&v.val))
	if p == nil {
		return ""
	}
	return windows.UTF16PtrToString(p)
}
