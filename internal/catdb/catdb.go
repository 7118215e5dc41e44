// Package catdb names the well-known DirectShow device categories.
//
// Categories are looked up by GUID for display, and resolved from the short
// aliases the CLI accepts ("video-input"), from their display names, or from
// raw GUID text.
package catdb

import (
	"fmt"
	"strings"

	"github.com/srg/devenum/internal/device"
)

// Entry describes one known category
type Entry struct {
	Category device.Category
	Name     string
	Alias    string
}

var entries = []Entry{
	{device.MustParseCategory("{860BB310-5D01-11D0-BD3B-00A0C911CE86}"), "Video Capture Sources", "video-input"},
	{device.MustParseCategory("{33D9A762-90C8-11D0-BD43-00A0C911CE86}"), "Audio Capture Sources", "audio-input"},
	{device.MustParseCategory("{E0F158E1-CB04-11D0-BD4E-00A0C911CE86}"), "Audio Renderers", "audio-renderer"},
	{device.MustParseCategory("{33D9A760-90C8-11D0-BD43-00A0C911CE86}"), "Video Compressors", "video-compressor"},
	{device.MustParseCategory("{33D9A761-90C8-11D0-BD43-00A0C911CE86}"), "Audio Compressors", "audio-compressor"},
	{device.MustParseCategory("{083863F1-70DE-11D0-BD40-00A0C911CE86}"), "DirectShow Filters", "legacy-filter"},
	{device.MustParseCategory("{4EFE2452-168A-11D1-BC76-00C04FB9453B}"), "MIDI Renderers", "midi-renderer"},
	{device.MustParseCategory("{DA4E3DA0-D07D-11D0-BD50-00A0C911CE86}"), "ActiveMovie Filter Categories", "activemovie"},
	{device.MustParseCategory("{CC7BFB46-F175-11D1-A392-00E0291F3959}"), "Device Control Filters", "device-control"},
	{device.MustParseCategory("{CC7BFB41-F175-11D1-A392-00E0291F3959}"), "External Renderers", "transmit"},
	{device.MustParseCategory("{65E8773D-8F56-11D0-A3B9-00A0C9223196}"), "WDM Streaming Capture Devices", "ks-capture"},
	{device.MustParseCategory("{A799A801-A46D-11D0-A18C-00A02401DCD4}"), "WDM Streaming Crossbar Devices", "crossbar"},
	{device.MustParseCategory("{A799A800-A46D-11D0-A18C-00A02401DCD4}"), "WDM Streaming TV Tuner Devices", "tv-tuner"},
	{device.MustParseCategory("{A799A802-A46D-11D0-A18C-00A02401DCD4}"), "WDM Streaming TV Audio Devices", "tv-audio"},
	{device.MustParseCategory("{71985F48-1CA1-11D3-9CC8-00C04F7971E0}"), "BDA Network Tuners", "bda-network-tuner"},
	{device.MustParseCategory("{2721AE20-7E70-11D0-A5D6-28DB04C10000}"), "DVD Hardware Decoders", "dvd-hw-decoder"},
}

// COM identities used to reach the categories above
var (
	SystemDeviceEnum = device.MustParseCategory("{62BE5D10-60EB-11D0-BD3B-00A0C911CE86}")
	ICreateDevEnum   = device.MustParseCategory("{29840822-5B84-11D0-BD3B-00A0C911CE86}")
	IPropertyBag     = device.MustParseCategory("{55272A00-42CB-11CE-8135-00AA004BB851}")
)

// Default is the category used when none is given
var Default = entries[0]

var (
	byCategory = make(map[device.Category]Entry, len(entries))
	byKey      = make(map[string]Entry, 2*len(entries))
)

func init() {
	for _, e := range entries {
		byCategory[e.Category] = e
		byKey[normalize(e.Alias)] = e
		byKey[normalize(e.Name)] = e
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Lookup returns the entry for a category GUID
func Lookup(c device.Category) (Entry, bool) {
	e, ok := byCategory[c]
	return e, ok
}

// Name returns the display name of c, or its GUID text when unknown
func Name(c device.Category) string {
	if e, ok := byCategory[c]; ok {
		return e.Name
	}
	return c.String()
}

// Resolve accepts an alias, a display name (case-insensitive) or GUID text.
// Unknown GUIDs are returned as-is: the registry decides whether they exist.
func Resolve(s string) (device.Category, error) {
	key := normalize(s)
	if key == "" {
		return device.Category{}, fmt.Errorf("category cannot be empty")
	}
	if e, ok := byKey[key]; ok {
		return e.Category, nil
	}

	c, err := device.ParseCategory(s)
	if err != nil {
		return device.Category{}, &device.NotFoundError{Resource: "category", Selector: s}
	}
	return c, nil
}

// All returns every known category in a stable order
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
