package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/script"
	"github.com/srg/devenum/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unknown category",
			err:  fmt.Errorf("wrapped: %w", &device.NotFoundError{Resource: "category", Selector: "webcams"}),
			want: `unknown category "webcams"; run 'devenum categories' to see the known ones`,
		},
		{
			name: "no selector on empty category",
			err:  &device.NotFoundError{Resource: "device"},
			want: "no devices found",
		},
		{
			name: "lua error",
			err:  &script.LuaError{Type: "runtime", Message: "boom", Line: 3, Source: "f.lua"},
			want: "filter script: Lua runtime error (in f.lua, line 3): boom",
		},
		{
			name: "pull failure",
			err:  &device.EnumerationError{Kind: device.PullFailed, Msg: "HRESULT 0x80004005"},
			want: "device enumeration failed part way; no devices were kept (pull_failed: HRESULT 0x80004005)",
		},
		{
			name: "anything else",
			err:  errors.New("plain"),
			want: "plain",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUserError(tt.err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(config.FixtureEnv, "")
	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "x"}
		cmd.Flags().String("log-level", "", "")
		cmd.Flags().Bool("verbose", false, "")
		cmd.Flags().String("fixture", "", "")
		require.NoError(t, cmd.Flags().Parse(args))
		return cmd
	}

	tests := []struct {
		name    string
		args    []string
		want    logrus.Level
		wantErr string
	}{
		{name: "silent by default", want: logrus.PanicLevel},
		{name: "verbose", args: []string{"--verbose"}, want: logrus.DebugLevel},
		{name: "log level takes precedence", args: []string{"--verbose", "--log-level", "warn"}, want: logrus.WarnLevel},
		{name: "any logrus level", args: []string{"--log-level", "trace"}, want: logrus.TraceLevel},
		{name: "invalid level", args: []string{"--log-level", "loud"}, wantErr: `invalid log level "loud"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCmd(tt.args...)
			cfg, err := loadConfig(cmd)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.String(), cfg.LogLevel)

			var stderr bytes.Buffer
			cmd.SetErr(&stderr)
			logger := configureLogger(cmd, cfg)
			assert.Equal(t, tt.want, logger.GetLevel())
			logger.Error("boom")
			if tt.want >= logrus.ErrorLevel {
				assert.Contains(t, stderr.String(), "boom", "logs go to the command's stderr")
			}
		})
	}
}

func TestLoadConfigFixture(t *testing.T) {
	t.Setenv(config.FixtureEnv, "from-env.yaml")
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("fixture", "", "")

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "from-env.yaml", cfg.FixturePath)

	require.NoError(t, cmd.Flags().Parse([]string{"--fixture", "flag.yaml"}))
	cfg, err = loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "flag.yaml", cfg.FixturePath)
}
