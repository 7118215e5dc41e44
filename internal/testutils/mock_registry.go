package testutils

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/srg/devenum/internal/device"
)

// ReleaseLog records the order in which mock handles were released.
// It is shared by every handle a MockRegistry issues.
type ReleaseLog struct {
	mu    sync.Mutex
	order []string
}

func (l *ReleaseLog) record(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, id)
}

// Order returns handle IDs in release order
func (l *ReleaseLog) Order() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

// Len returns the total number of release calls observed
func (l *ReleaseLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// MockHandle is a release-counting native handle
type MockHandle struct {
	ID       string
	log      *ReleaseLog
	releases atomic.Int32
}

func (h *MockHandle) Release() {
	h.releases.Add(1)
	if h.log != nil {
		h.log.record(h.ID)
	}
}

// ReleaseCount returns how many times Release was called
func (h *MockHandle) ReleaseCount() int {
	return int(h.releases.Load())
}

func (h *MockHandle) String() string {
	return h.ID
}

// mockItem describes one device a mock category yields
type mockItem struct {
	id              string
	properties      map[string]string
	viewUnavailable bool
	readFails       map[string]bool
}

// mockCategory describes one category's walk behavior
type mockCategory struct {
	items      []*mockItem
	failAfter  int // -1: never
	panicAfter int // -1: never
	nilAfter   int // -1: never
}

// MockRegistry implements device.Registry and device.PropertyStore over
// builder-configured categories and records every handle it hands out.
type MockRegistry struct {
	mu          sync.Mutex
	unavailable bool
	categories  map[device.Category]*mockCategory

	log      *ReleaseLog
	issued   []*MockHandle          // device handles in pull order
	latest   map[string]*MockHandle // most recent device handle by item ID
	sessions []*MockSession
	views    []*MockView
	opens    int
}

// OpenCategory implements device.Registry
func (r *MockRegistry) OpenCategory(category device.Category) (device.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.opens++
	if r.unavailable {
		return nil, &device.EnumerationError{Kind: device.EnumerationUnavailable, Category: category.String(), Msg: "mock registry unavailable"}
	}

	cat, ok := r.categories[category]
	if !ok || (len(cat.items) == 0 && cat.failAfter < 0 && cat.panicAfter < 0) {
		return nil, &device.EnumerationError{Kind: device.CategoryEmpty, Category: category.String()}
	}

	s := &MockSession{
		MockHandle: &MockHandle{ID: fmt.Sprintf("session:%d", len(r.sessions)), log: r.log},
		registry:   r,
		category:   cat,
	}
	r.sessions = append(r.sessions, s)
	return s, nil
}

func (r *MockRegistry) issue(item *mockItem) *MockHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := &MockHandle{ID: item.id, log: r.log}
	r.issued = append(r.issued, h)
	r.latest[item.id] = h
	return h
}

func (r *MockRegistry) lookup(h device.Handle) (*mockItem, bool) {
	mh, ok := h.(*MockHandle)
	if !ok {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cat := range r.categories {
		for _, item := range cat.items {
			if item.id == mh.ID {
				return item, true
			}
		}
	}
	return nil, false
}

// OpenPropertyView implements device.PropertyStore
func (r *MockRegistry) OpenPropertyView(h device.Handle) (device.PropertyView, error) {
	item, ok := r.lookup(h)
	if !ok {
		return nil, &device.PropertyError{Kind: device.PropertyUnavailable, Msg: fmt.Sprintf("unknown handle %v", h)}
	}
	if item.viewUnavailable {
		return nil, &device.PropertyError{Kind: device.PropertyUnavailable, Msg: "mock view unavailable"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	v := &MockView{
		MockHandle: &MockHandle{ID: "view:" + item.id, log: r.log},
		item:       item,
	}
	r.views = append(r.views, v)
	return v, nil
}

// Log returns the shared release log
func (r *MockRegistry) Log() *ReleaseLog {
	return r.log
}

// Handle returns the latest device handle issued for an item ID, or nil if never pulled
func (r *MockRegistry) Handle(id string) *MockHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest[id]
}

// Handles returns all issued device handles in pull order
func (r *MockRegistry) Handles() []*MockHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*MockHandle(nil), r.issued...)
}

// Sessions returns every session opened so far
func (r *MockRegistry) Sessions() []*MockSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*MockSession(nil), r.sessions...)
}

// Views returns every property view opened so far
func (r *MockRegistry) Views() []*MockView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*MockView(nil), r.views...)
}

// Opens returns the number of OpenCategory calls
func (r *MockRegistry) Opens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

// Outstanding returns the IDs of issued handles (devices, sessions, views) not released exactly once
func (r *MockRegistry) Outstanding() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, h := range r.issued {
		if h.ReleaseCount() != 1 {
			ids = append(ids, h.ID)
		}
	}
	for _, s := range r.sessions {
		if s.ReleaseCount() != 1 {
			ids = append(ids, s.ID)
		}
	}
	for _, v := range r.views {
		if v.ReleaseCount() != 1 {
			ids = append(ids, v.ID)
		}
	}
	return ids
}

// MockSession is a release-counting category walk
type MockSession struct {
	*MockHandle

	registry *MockRegistry
	category *mockCategory
	pulls    int
}

// Next implements device.Session
func (s *MockSession) Next() (device.Handle, error) {
	pull := s.pulls
	s.pulls++

	if s.category.panicAfter >= 0 && pull == s.category.panicAfter {
		panic("mock session panic")
	}
	if s.category.failAfter >= 0 && pull == s.category.failAfter {
		return nil, &device.EnumerationError{Kind: device.PullFailed, Msg: fmt.Sprintf("mock pull %d failed", pull+1)}
	}
	if s.category.nilAfter >= 0 && pull == s.category.nilAfter {
		return nil, nil
	}
	if pull >= len(s.category.items) {
		return nil, device.ErrEndOfSequence
	}

	return s.registry.issue(s.category.items[pull]), nil
}

// Pulls returns the number of Next calls
func (s *MockSession) Pulls() int {
	return s.pulls
}

// MockView is a release-counting property view
type MockView struct {
	*MockHandle

	item *mockItem
}

// ReadString implements device.PropertyView
func (v *MockView) ReadString(key string) (string, error) {
	if v.item.readFails[key] {
		return "", &device.PropertyError{Kind: device.ReadFailed, Key: key, Msg: "mock read failure"}
	}
	value, ok := v.item.properties[key]
	if !ok {
		return "", &device.PropertyError{Kind: device.ReadFailed, Key: key, Msg: "no such property"}
	}
	return value, nil
}
