// Package monitor watches a device category for arrivals and removals by
// re-enumerating it on an interval.
//
// Each poll is an ordinary enumeration: devices are wrapped, snapshotted into
// handle-free device.Info values and released before the poll returns, so a
// running monitor holds no native resources between polls.
package monitor

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/hedzr/go-ringbuf/v2/mpmc"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/enumerator"
	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/groutine"
	"github.com/srg/devenum/internal/ringchan"
)

// DevicePathKey is the property that identifies a device across polls when present
const DevicePathKey = "DevicePath"

// EventType marks whether a device appeared or disappeared
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event is one change observed between two polls
type Event struct {
	Type   EventType   `json:"type"`
	Key    string      `json:"key"`
	Device device.Info `json:"device"`
	At     time.Time   `json:"at"`
}

// Options configures a Monitor
type Options struct {
	Interval    time.Duration `default:"2s"`
	EventBuffer int           `default:"64"`
	HistorySize uint32        `default:"128"`
}

// DefaultOptions returns Options with every default applied
func DefaultOptions() *Options {
	opts := &Options{}
	defaults.SetDefaults(opts)
	return opts
}

// Monitor diffs successive enumerations of a category
type Monitor struct {
	enum     *enumerator.Enumerator
	resolver *enumerator.NameResolver
	logger   *logrus.Logger
	opts     Options

	mu      sync.Mutex // one poll at a time
	known   *hashmap.Map[string, device.Info]
	events  *ringchan.RingChannel[Event]
	history mpmc.RichOverlappedRingBuffer[Event]
	now     func() time.Time
}

// New creates a monitor. Zero option fields take their defaults.
func New(enum *enumerator.Enumerator, logger *logrus.Logger, opts *Options) *Monitor {
	if logger == nil {
		logger = logrus.New()
	}

	o := DefaultOptions()
	if opts != nil {
		if opts.Interval > 0 {
			o.Interval = opts.Interval
		}
		if opts.EventBuffer > 0 {
			o.EventBuffer = opts.EventBuffer
		}
		if opts.HistorySize > 0 {
			o.HistorySize = opts.HistorySize
		}
	}

	return &Monitor{
		enum:     enum,
		resolver: enum.Resolver(),
		logger:   logger,
		opts:     *o,
		known:    hashmap.New[string, device.Info](),
		events:   ringchan.New[Event](o.EventBuffer),
		history:  mpmc.NewOverlappedRingBuffer[Event](o.HistorySize),
		now:      time.Now,
	}
}

// Options returns the effective options
func (m *Monitor) Options() Options {
	return m.opts
}

// Events returns the event stream. Under backpressure the oldest events are dropped.
func (m *Monitor) Events() <-chan Event {
	return m.events.C()
}

// Poll enumerates category once and returns the changes since the previous poll.
// A failed enumeration changes nothing: the known set is kept and the error returned.
func (m *Monitor) Poll(category device.Category) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	devs, err := m.enum.Enumerate(category)
	if err != nil {
		return nil, fmt.Errorf("poll %s: %w", category, err)
	}
	current := m.snapshot(devs)
	devs.Release()

	now := m.now()
	var changes []Event

	for _, key := range sortedKeys(current) {
		if _, seen := m.known.Get(key); !seen {
			changes = append(changes, Event{Type: EventAdded, Key: key, Device: current[key], At: now})
		}
	}

	var removed []Event
	m.known.Range(func(key string, info device.Info) bool {
		if _, still := current[key]; !still {
			removed = append(removed, Event{Type: EventRemoved, Key: key, Device: info, At: now})
		}
		return true
	})
	sort.Slice(removed, func(i, j int) bool { return removed[i].Device.Index < removed[j].Device.Index })
	changes = append(changes, removed...)

	for _, ev := range removed {
		m.known.Del(ev.Key)
	}
	// refresh every entry: indices shift when earlier devices leave
	for key, info := range current {
		m.known.Set(key, info)
	}
	for _, ev := range changes {
		m.record(ev)
	}

	return changes, nil
}

// snapshot keys each device by its DevicePath, or by name and occurrence when it has none
func (m *Monitor) snapshot(devs device.Devices) map[string]device.Info {
	current := make(map[string]device.Info, len(devs))
	occurrences := make(map[string]int)

	for _, d := range devs {
		info := d.Info()
		if h, ok := d.Handle(); ok {
			if path, ok := m.resolver.ReadString(h, DevicePathKey); ok {
				info.Path = path
			}
			runtime.KeepAlive(d)
		}

		key := info.Path
		if key == "" {
			base := info.DisplayName("<unnamed>")
			occurrences[base]++
			key = fmt.Sprintf("%s#%d", base, occurrences[base])
		}
		current[key] = info
	}
	return current
}

func (m *Monitor) record(ev Event) {
	m.logger.WithFields(logrus.Fields{
		"event":  ev.Type,
		"key":    ev.Key,
		"device": ev.Device.DisplayName("<unnamed>"),
	}).Info("Device change")

	m.events.Send(ev)
	if overwrites, err := m.history.EnqueueM(ev); err != nil {
		m.logger.WithError(err).Warn("Failed to record event history")
	} else if overwrites > 0 {
		m.logger.WithField("overwritten", overwrites).Debug("Event history full, oldest dropped")
	}
}

// Run polls category every Interval until ctx is done. Poll failures are
// logged and the next tick retries.
func (m *Monitor) Run(ctx context.Context, category device.Category) {
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		if _, err := m.Poll(category); err != nil {
			m.logger.WithError(err).Warn("Device poll failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Start runs Run in a named goroutine and returns a channel closed when it stops
func (m *Monitor) Start(ctx context.Context, category device.Category) <-chan struct{} {
	return groutine.Go(ctx, "monitor-poll", func(ctx context.Context) {
		m.Run(ctx, category)
	})
}

// Snapshot returns the currently known devices ordered by index
func (m *Monitor) Snapshot() []device.Info {
	var infos []device.Info
	m.known.Range(func(_ string, info device.Info) bool {
		infos = append(infos, info)
		return true
	})
	sort.Slice(infos, func(i, j int) bool { return infos[i].Index < infos[j].Index })
	return infos
}

// History returns the retained events, oldest first
func (m *Monitor) History() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []Event
	for !m.history.IsEmpty() {
		ev, err := m.history.Dequeue()
		if err != nil {
			break
		}
		events = append(events, ev)
	}
	for _, ev := range events {
		_, _ = m.history.EnqueueM(ev)
	}
	return events
}

// Close ends the event stream
func (m *Monitor) Close() {
	m.events.Close()
}

func sortedKeys(current map[string]device.Info) []string {
	keys := make([]string, 0, len(current))
	for k := range current {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return current[keys[i]].Index < current[keys[j]].Index })
	return keys
}
