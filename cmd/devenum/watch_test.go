package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/srg/devenum/monitor"
	"github.com/stretchr/testify/suite"
)

type WatchCommandSuite struct {
	CommandTestSuite
}

func TestWatchCommandSuite(t *testing.T) {
	suite.Run(t, new(WatchCommandSuite))
}

func (s *WatchCommandSuite) watch(timeout time.Duration, args ...string) (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, stderr, err := s.ExecuteCommandContext(ctx, append([]string{"watch"}, args...)...)
	s.Require().NoError(err, "cancellation ends the watch cleanly")
	return out, stderr
}

func (s *WatchCommandSuite) TestFirstPollReportsEveryDeviceOnce() {
	out, stderr := s.watch(300*time.Millisecond, "--interval", "20ms")

	s.Contains(out, "Watching Video Capture Sources every 20ms")
	s.Equal(3, strings.Count(out, "+ added"), out)
	s.Regexp(`\d\d:\d\d:\d\d \+ added   #0 Integrated Camera\n`, out)
	s.Contains(out, "#2 <unnamed>")
	s.NotContains(out, "removed")
	s.NotContains(stderr, "Interrupted", "a cancelled parent context is not an interrupt")
	s.Greater(s.Registry.Opens(), 1, "watch keeps polling")
}

func (s *WatchCommandSuite) TestJSONStream() {
	out, _ := s.watch(200*time.Millisecond, "audio-input", "--interval", "20ms", "--format", "json")
	s.Empty(out, "nothing to report for an empty category")

	out, _ = s.watch(200*time.Millisecond, "--interval", "20ms", "--format", "json")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	s.Require().Len(lines, 3)

	var ev monitor.Event
	s.Require().NoError(json.Unmarshal([]byte(lines[0]), &ev))
	s.Equal(monitor.EventAdded, ev.Type)
	s.Equal(`\\?\usb#vid_04f2&pid_b6dd`, ev.Key, "devices with a DevicePath are keyed by it")
	s.Equal(0, ev.Device.Index)
}

func (s *WatchCommandSuite) TestRejectsNonPositiveInterval() {
	_, err := s.ExecuteCommand("watch", "--interval", "0s")
	s.ErrorContains(err, "watch interval must be positive")
	s.Zero(s.Registry.Opens())
}
