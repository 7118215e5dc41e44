//go:build windows

package dshow

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go mksyscall_windows.go

// coIncrementMTAUsage is looked up with Find before use; it is missing before Windows 8.
//sys coIncrementMTAUsage(cookie *uintptr) (hr hresult) = ole32.CoIncrementMTAUsage
//sys coCreateInstance(clsid *windows.GUID, unkOuter uintptr, clsctx uint32, iid *windows.GUID, ppv *unsafe.Pointer) (hr hresult) = ole32.CoCreateInstance
//sys variantClear(v *variant) (hr hresult) = oleaut32.VariantClear
