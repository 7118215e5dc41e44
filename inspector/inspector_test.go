package inspector

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/srg/devenum/enumerator"
	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type InspectorSuite struct {
	testutils.MockRegistrySuite

	enum *enumerator.Enumerator
}

func (s *InspectorSuite) SetupTest() {
	s.MockRegistrySuite.SetupTest()
	s.enum = enumerator.NewEnumerator(s.Registry, s.Registry, s.Logger)
}

func (s *InspectorSuite) TestSelectByIndexAndName() {
	for selector, want := range map[string]string{
		"":                    "Integrated Camera",
		"1":                   "OBS Virtual Camera",
		"#1":                  "OBS Virtual Camera",
		"obs virtual camera":  "OBS Virtual Camera",
		" Integrated Camera ": "Integrated Camera",
	} {
		report, err := Inspect(s.enum, testutils.VideoCategory, selector, nil, s.Logger, nil)
		s.Require().NoError(err, selector)
		s.Equal(want, report.Device.Name, selector)
	}
}

func (s *InspectorSuite) TestReportProperties() {
	var phases []string
	report, err := Inspect(s.enum, testutils.VideoCategory, "0", nil, s.Logger, func(phase string) {
		phases = append(phases, phase)
	})
	s.Require().NoError(err)

	s.Equal([]string{"Enumerating", "Reading properties"}, phases)
	s.Equal(`\\?\usb#vid_04f2&pid_b6dd`, report.Device.Path)

	var keys []string
	for pair := report.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	s.Equal([]string{"FriendlyName", "DevicePath"}, keys, "absent keys are skipped, order follows DefaultKeys")

	testutils.NewJSONAsserter(s.T()).Assert(testutils.MustJSON(report), `{
		"device": {"index": 0, "name": "Integrated Camera", "path": "<<PRESENCE>>"},
		"properties": {"FriendlyName": "Integrated Camera", "DevicePath": "\\\\?\\usb#vid_04f2&pid_b6dd"}
	}`)
}

func (s *InspectorSuite) TestCustomKeys() {
	report, err := Inspect(s.enum, testutils.VideoCategory, "1", []string{"CLSID", "FriendlyName", "Nope"}, s.Logger, nil)
	s.Require().NoError(err)

	s.Equal(2, report.Properties.Len())
	s.Equal("CLSID", report.Properties.Oldest().Key)
}

func (s *InspectorSuite) TestNotFound() {
	for _, selector := range []string{"7", "#-1", "Webcam"} {
		_, err := Inspect(s.enum, testutils.VideoCategory, selector, nil, s.Logger, nil)
		var nf *device.NotFoundError
		s.Require().True(errors.As(err, &nf), selector)
		s.Equal(selector, nf.Selector)
	}

	_, err := Inspect(s.enum, testutils.AudioCategory, "", nil, s.Logger, nil)
	var nf *device.NotFoundError
	s.True(errors.As(err, &nf), "empty category has no first device")
}

func (s *InspectorSuite) TestUnnamedDeviceSelectedByIndex() {
	report, err := Inspect(s.enum, testutils.VideoCategory, "2", nil, s.Logger, nil)
	s.Require().NoError(err)
	s.False(report.Device.Named)
	s.Equal(0, report.Properties.Len())
}

func (s *InspectorSuite) TestCallbackErrorStillReleases() {
	boom := errors.New("boom")
	_, err := InspectDevice(s.enum, testutils.VideoCategory, "1", s.Logger, nil, func(dev *device.Device, _ *enumerator.NameResolver) (int, error) {
		s.False(dev.Released(), "device is live inside the callback")
		return 0, boom
	})
	s.ErrorIs(err, boom)
	// TearDownTest asserts nothing is outstanding
}

func TestInspectorSuite(t *testing.T) {
	suite.Run(t, new(InspectorSuite))
}

func TestInspectUnavailable(t *testing.T) {
	reg := testutils.NewRegistryBuilder().WithUnavailable().Build()
	enum := enumerator.NewEnumerator(reg, reg, nil)

	var phases []string
	_, err := Inspect(enum, testutils.VideoCategory, "", nil, nil, func(p string) { phases = append(phases, p) })
	assert.ErrorIs(t, err, device.ErrEnumerationUnavailable)
	assert.Equal(t, []string{"Enumerating", "Failed"}, phases)
}

func TestReadPropertiesOnReleasedDevice(t *testing.T) {
	h := &testutils.MockHandle{ID: "h"}
	d := device.NewDevice(h, testutils.VideoCategory, 0, "Cam", true)
	d.Release()

	props := ReadProperties(enumerator.NewNameResolver(nil, nil), d, nil)
	require.NotNil(t, props)
	assert.Zero(t, props.Len())
}

// collectingStore forces a collection before every view it opens and records
// whether the borrowed handle was already released by then.
type collectingStore struct {
	handle          *testutils.MockHandle
	releasedOnReads int
}

type staticView struct{}

func (staticView) Release() {}

func (staticView) ReadString(key string) (string, error) {
	return key + " value", nil
}

func (c *collectingStore) OpenPropertyView(device.Handle) (device.PropertyView, error) {
	for range 3 {
		runtime.GC()
		time.Sleep(time.Millisecond)
	}
	if c.handle.ReleaseCount() > 0 {
		c.releasedOnReads++
	}
	return staticView{}, nil
}

func TestReadPropertiesKeepsDeviceAliveDuringReads(t *testing.T) {
	h := &testutils.MockHandle{ID: "cam"}
	store := &collectingStore{handle: h}
	resolver := enumerator.NewNameResolver(store, nil)

	// the device is only reachable through ReadProperties
	props := ReadProperties(resolver, device.NewDevice(h, testutils.VideoCategory, 0, "Cam", true), []string{"A", "B", "C"})

	assert.Equal(t, 3, props.Len())
	assert.Zero(t, store.releasedOnReads, "handle was released while its properties were being read")
}
