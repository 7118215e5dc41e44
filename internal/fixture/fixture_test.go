package fixture

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/srg/devenum/internal/catdb"
	"github.com/srg/devenum/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	video    = device.MustParseCategory("{860BB310-5D01-11D0-BD3B-00A0C911CE86}")
	audio    = device.MustParseCategory("{33D9A762-90C8-11D0-BD43-00A0C911CE86}")
	renderer = device.MustParseCategory("{E0F158E1-CB04-11D0-BD4E-00A0C911CE86}")
	midi     = device.MustParseCategory("{4EFE2452-168A-11D1-BC76-00C04FB9453B}")
)

func loadStudio(t *testing.T) *Registry {
	t.Helper()
	r, err := Load("testdata/studio.yaml", logrus.New())
	require.NoError(t, err)
	return r
}

func drain(t *testing.T, s device.Session) ([]device.Handle, error) {
	t.Helper()
	var handles []device.Handle
	for {
		h, err := s.Next()
		if err != nil {
			return handles, err
		}
		handles = append(handles, h)
	}
}

func TestLoadKeepsCategoryOrder(t *testing.T) {
	r := loadStudio(t)
	assert.Equal(t, []device.Category{video, audio, renderer, midi}, r.Categories())
}

func TestWalkAndProperties(t *testing.T) {
	r := loadStudio(t)

	s, err := r.OpenCategory(video)
	require.NoError(t, err)

	handles, err := drain(t, s)
	require.ErrorIs(t, err, device.ErrEndOfSequence)
	require.Len(t, handles, 3)
	assert.EqualValues(t, 4, r.Outstanding(), "session plus three items")

	v, err := r.OpenPropertyView(handles[0])
	require.NoError(t, err)
	name, err := v.ReadString(device.FriendlyNameKey)
	require.NoError(t, err)
	assert.Equal(t, "Integrated Camera", name)
	path, err := v.ReadString("DevicePath")
	require.NoError(t, err)
	assert.Contains(t, path, `usb#vid_04f2`)
	v.Release()

	v, err = r.OpenPropertyView(handles[2])
	require.NoError(t, err)
	_, err = v.ReadString(device.FriendlyNameKey)
	assert.ErrorIs(t, err, device.ErrReadFailed)
	v.Release()

	for _, h := range handles {
		h.Release()
		h.Release()
	}
	s.Release()
	s.Release()

	assert.Zero(t, r.Outstanding())
	assert.EqualValues(t, 6, r.Opened())
}

func TestInjectedFailures(t *testing.T) {
	r := loadStudio(t)

	s, err := r.OpenCategory(renderer)
	require.NoError(t, err)
	handles, err := drain(t, s)
	assert.ErrorIs(t, err, device.ErrPullFailed)
	assert.Len(t, handles, 1)

	_, err = r.OpenCategory(midi)
	assert.ErrorIs(t, err, device.ErrEnumerationUnavailable)

	_, err = r.OpenCategory(catdb.SystemDeviceEnum)
	assert.ErrorIs(t, err, device.ErrCategoryEmpty)
}

func TestViewOnForeignOrReleasedHandle(t *testing.T) {
	r := loadStudio(t)
	other := loadStudio(t)

	s, err := r.OpenCategory(audio)
	require.NoError(t, err)
	defer s.Release()
	h, err := s.Next()
	require.NoError(t, err)

	_, err = other.OpenPropertyView(h)
	assert.ErrorIs(t, err, device.ErrPropertyUnavailable)

	h.Release()
	_, err = r.OpenPropertyView(h)
	assert.ErrorIs(t, err, device.ErrPropertyUnavailable)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "empty document", yaml: ""},
		{name: "GUID key", yaml: "categories:\n  \"{860BB310-5D01-11D0-BD3B-00A0C911CE86}\":\n    devices: [{name: A}]\n"},
		{name: "unknown alias", yaml: "categories:\n  webcams: {}\n", wantErr: `category "webcams" not found`},
		{name: "duplicate category", yaml: "categories:\n  video-input: {}\n  Video Capture Sources: {}\n", wantErr: "defined twice"},
		{name: "negative fail_after", yaml: "categories:\n  video-input:\n    fail_after: -1\n", wantErr: "must not be negative"},
		{name: "categories not a mapping", yaml: "categories: [a, b]\n", wantErr: "must be a mapping"},
		{name: "malformed YAML", yaml: "categories: {\n", wantErr: "invalid fixture YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), nil)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGloballyUnavailable(t *testing.T) {
	r, err := Parse([]byte("unavailable: true\ncategories:\n  video-input:\n    devices: [{name: A}]\n"), nil)
	require.NoError(t, err)

	_, err = r.OpenCategory(video)
	assert.ErrorIs(t, err, device.ErrEnumerationUnavailable)
}

func TestFailAfterZeroWithoutDevices(t *testing.T) {
	r, err := Parse([]byte("categories:\n  video-input:\n    fail_after: 0\n"), nil)
	require.NoError(t, err)

	s, err := r.OpenCategory(video)
	require.NoError(t, err)
	defer s.Release()

	_, err = s.Next()
	assert.ErrorIs(t, err, device.ErrPullFailed)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml", nil)
	assert.ErrorContains(t, err, "failed to read fixture")
}
