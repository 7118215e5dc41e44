// Package ringchan provides a bounded, overwrite-oldest channel.
package ringchan

import (
	"sync"
	"sync/atomic"
)

// RingChannel is a bounded channel-like buffer with overwrite-oldest semantics.
// Producers never block: when the buffer is full the oldest element is dropped.
//
//	rc := ringchan.New[monitor.Event](64)
//	rc.Send(ev)               // never blocks
//	for ev := range rc.C() {  // plain channel for readers
//	    ...
//	}
//
// Send after Close is a no-op that reports false.
type RingChannel[T any] struct {
	mu      sync.Mutex // serializes producers so drop-then-send cannot block
	ch      chan T
	closed  bool
	metrics Metrics
}

// New creates a RingChannel with the given capacity.
func New[T any](capacity int) *RingChannel[T] {
	if capacity <= 0 {
		panic("ringchan: capacity must be > 0")
	}
	return &RingChannel[T]{ch: make(chan T, capacity)}
}

// C returns the underlying receive-only channel. Reads through it are not
// counted in the Processed metric.
func (rc *RingChannel[T]) C() <-chan T {
	return rc.ch
}

// Send inserts v, discarding the oldest element if the buffer is full.
// It reports whether v was accepted, which is false only after Close.
func (rc *RingChannel[T]) Send(v T) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.closed {
		return false
	}
	for {
		select {
		case rc.ch <- v:
			rc.metrics.Written.Add(1)
			return true
		default:
		}
		select {
		case <-rc.ch:
			rc.metrics.Overwritten.Add(1)
		default:
			// a reader emptied a slot between the two selects
		}
	}
}

// TrySend inserts v only if there is room.
func (rc *RingChannel[T]) TrySend(v T) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.closed {
		return false
	}
	select {
	case rc.ch <- v:
		rc.metrics.Written.Add(1)
		return true
	default:
		return false
	}
}

// TryReceive attempts a non-blocking receive.
func (rc *RingChannel[T]) TryReceive() (v T, ok bool) {
	select {
	case v, ok = <-rc.ch:
		if ok {
			rc.metrics.Processed.Add(1)
		}
		return v, ok
	default:
		var zero T
		return zero, false
	}
}

// Drain returns every buffered element without blocking.
func (rc *RingChannel[T]) Drain() []T {
	var out []T
	for {
		v, ok := rc.TryReceive()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func (rc *RingChannel[T]) Len() int {
	return len(rc.ch)
}

func (rc *RingChannel[T]) Cap() int {
	return cap(rc.ch)
}

// Close closes the underlying channel; buffered elements stay readable.
// Closing twice is a no-op.
func (rc *RingChannel[T]) Close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.closed {
		rc.closed = true
		close(rc.ch)
	}
}

// Stats returns a snapshot of the counters.
func (rc *RingChannel[T]) Stats() Stats {
	return Stats{
		Processed:   rc.metrics.Processed.Load(),
		Written:     rc.metrics.Written.Load(),
		Overwritten: rc.metrics.Overwritten.Load(),
	}
}

// Metrics are the live counters of a RingChannel
type Metrics struct {
	Processed   atomic.Int64
	Written     atomic.Int64
	Overwritten atomic.Int64
}

// Stats is a point-in-time copy of Metrics
type Stats struct {
	Processed   int64
	Written     int64
	Overwritten int64
}
