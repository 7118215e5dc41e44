// Package dshow is the native backend of the device registry: DirectShow's
// system device enumerator and the per-device property bag.
//
// On Windows the registry walks ICreateDevEnum class enumerators and reads
// IPropertyBag values through IMoniker::BindToStorage. On every other
// platform both collaborators report that enumeration is unavailable.
package dshow
