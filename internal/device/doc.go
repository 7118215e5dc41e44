// Package device defines the device records produced by category enumeration
// and the boundaries of the native collaborators behind them.
//
// This package provides:
//   - Device, an owning wrapper around exactly one native handle
//   - Registry and Session, the category walk collaborator
//   - PropertyStore and PropertyView, the per-device metadata collaborator
//   - Typed enumeration and property errors with kind-based matching
//
// A Device releases its handle exactly once: either through Release/Close or,
// if the owner never does so, when the Device becomes unreachable.
package device
