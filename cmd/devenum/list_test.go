package main

import (
	"testing"

	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/script"
	"github.com/srg/devenum/internal/testutils"
	"github.com/stretchr/testify/suite"
)

const studioFixture = "../../internal/fixture/testdata/studio.yaml"

type ListCommandSuite struct {
	CommandTestSuite
}

func TestListCommandSuite(t *testing.T) {
	suite.Run(t, new(ListCommandSuite))
}

func (s *ListCommandSuite) TestTableListsDefaultCategory() {
	out, err := s.ExecuteCommand("list")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(out, `
INDEX  NAME                CATEGORY
0      Integrated Camera   Video Capture Sources
1      OBS Virtual Camera  Video Capture Sources
2      <unnamed>           Video Capture Sources
`)
	s.Len(s.Registry.Sessions(), 1, "one walk per list")
}

func (s *ListCommandSuite) TestJSONKeepsUnnamedDevicesWithNullName() {
	out, err := s.ExecuteCommand("list", "video-input", "--format", "json")
	s.Require().NoError(err)

	testutils.NewJSONAsserter(s.T()).Assert(out, `[
		{"index": 0, "name": "Integrated Camera", "path": "\\\\?\\usb#vid_04f2&pid_b6dd", "category": "{860BB310-5D01-11D0-BD3B-00A0C911CE86}"},
		{"index": 1, "name": "OBS Virtual Camera", "category": "{860BB310-5D01-11D0-BD3B-00A0C911CE86}"},
		{"index": 2, "name": null, "category": "{860BB310-5D01-11D0-BD3B-00A0C911CE86}"}
	]`)
}

func (s *ListCommandSuite) TestCategoryAcceptsNameAndGUID() {
	for _, arg := range []string{"Video Capture Sources", "{860bb310-5d01-11d0-bd3b-00a0c911ce86}", "860BB310-5D01-11D0-BD3B-00A0C911CE86"} {
		out, err := s.ExecuteCommand("list", arg)
		s.Require().NoError(err, arg)
		s.Contains(out, "OBS Virtual Camera", arg)
	}
}

func (s *ListCommandSuite) TestEmptyCategory() {
	out, err := s.ExecuteCommand("list", "audio-renderer")
	s.Require().NoError(err)
	testutils.NewTextAsserter(s.T()).Assert(out, "No devices found")

	out, err = s.ExecuteCommand("list", "audio-renderer", "--format", "json")
	s.Require().NoError(err)
	testutils.NewJSONAsserter(s.T()).Assert(out, `[]`)
}

func (s *ListCommandSuite) TestUnavailableRegistryIsNotAnError() {
	s.UseRegistry(testutils.NewRegistryBuilder().WithUnavailable())

	out, stderr, err := s.ExecuteCommandContext(s.T().Context(), "list")
	s.Require().NoError(err)
	testutils.NewTextAsserter(s.T()).Assert(out, "No devices found")
	s.Contains(stderr, "warning: device enumeration is unavailable")
}

func (s *ListCommandSuite) TestPullFailureReleasesEverything() {
	s.UseRegistry(testutils.NewRegistryBuilder().
		WithCategory(testutils.VideoCategory).
		WithDevices("cam", "A", "B", "C").
		FailPullAfter(2))

	out, stderr, err := s.ExecuteCommandContext(s.T().Context(), "list")
	s.Require().NoError(err)
	testutils.NewTextAsserter(s.T()).Assert(out, "No devices found")
	s.Contains(stderr, "failed part way")
	s.Empty(s.Registry.Outstanding())
}

func (s *ListCommandSuite) TestMaxBoundsTheWalk() {
	out, err := s.ExecuteCommand("list", "--max", "1")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(out, `
INDEX  NAME               CATEGORY
0      Integrated Camera  Video Capture Sources
`)
}

func (s *ListCommandSuite) TestScriptFiltersDevices() {
	path := s.Helper.WriteTempFile("named.lua", `
function accept(d)
  if not d.named then
    print("skipping #" .. d.index)
    return false
  end
  return true
end
`)

	out, stderr, err := s.ExecuteCommandContext(s.T().Context(), "list", "--script", path)
	s.Require().NoError(err)
	s.NotContains(out, "<unnamed>")
	s.Contains(out, "OBS Virtual Camera")
	s.Contains(stderr, "skipping #2")
}

func (s *ListCommandSuite) TestScriptErrors() {
	path := s.Helper.WriteTempFile("broken.lua", "function accept(d) return d.named")

	_, err := s.ExecuteCommand("list", "--script", path)
	s.Require().Error(err)
	var luaErr *script.LuaError
	s.Require().ErrorAs(err, &luaErr)
	s.Equal("syntax", luaErr.Type)
	s.Contains(FormatUserError(err), "filter script: Lua syntax error")
}

func (s *ListCommandSuite) TestUnknownCategory() {
	_, err := s.ExecuteCommand("list", "webcams")
	s.Require().Error(err)

	var nf *device.NotFoundError
	s.Require().ErrorAs(err, &nf)
	s.Equal(`unknown category "webcams"; run 'devenum categories' to see the known ones`, FormatUserError(err))
	s.Zero(s.Registry.Opens(), "nothing enumerated for a bad category")
}

func (s *ListCommandSuite) TestInvalidFlags() {
	_, err := s.ExecuteCommand("list", "--format", "yaml")
	s.ErrorContains(err, `invalid output format "yaml"`)

	_, err = s.ExecuteCommand("list", "--max", "-1")
	s.ErrorContains(err, "max devices must not be negative")

	_, err = s.ExecuteCommand("list", "--log-level", "loud")
	s.ErrorContains(err, `invalid log level "loud"`)
}

func (s *ListCommandSuite) TestFixtureBackend() {
	out, err := s.ExecuteCommand("--fixture", studioFixture, "list", "audio-input")
	s.Require().NoError(err)

	testutils.NewTextAsserter(s.T()).Assert(out, `
INDEX  NAME                              CATEGORY
0      Microphone Array (Realtek Audio)  Audio Capture Sources
1      Line In (Realtek Audio)           Audio Capture Sources
`)
	s.Zero(s.Registry.Opens(), "mock backend bypassed")
}

func (s *ListCommandSuite) TestFixtureFromEnvironment() {
	s.T().Setenv("DEVENUM_FIXTURE", studioFixture)

	out, stderr, err := s.ExecuteCommandContext(s.T().Context(), "list", "audio-renderer")
	s.Require().NoError(err)
	testutils.NewTextAsserter(s.T()).Assert(out, "No devices found")
	s.Contains(stderr, "failed part way")
}

func (s *ListCommandSuite) TestBuiltinScripts() {
	out, err := s.ExecuteCommand("list", "--script", "builtin:no_virtual")
	s.Require().NoError(err)
	s.Contains(out, "Integrated Camera")
	s.NotContains(out, "OBS Virtual Camera")
	s.Contains(out, "<unnamed>", "unnamed devices are not judged by name")

	out, err = s.ExecuteCommand("list", "--script", "builtin:named")
	s.Require().NoError(err)
	s.NotContains(out, "<unnamed>")

	_, err = s.ExecuteCommand("list", "--script", "builtin:physical")
	s.ErrorContains(err, `no builtin script "physical"`)
}
