package main

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srg/devenum/internal/testutils"
	"github.com/srg/devenum/pkg/config"
)

// CommandTestSuite extends MockRegistrySuite with command testing utilities.
// All cmd/devenum test suites should embed this instead of MockRegistrySuite.
type CommandTestSuite struct {
	testutils.MockRegistrySuite
}

// SetupTest clears state a previous command run left in the shared cobra tree.
func (s *CommandTestSuite) SetupTest() {
	s.T().Setenv(config.FixtureEnv, "")
	resetFlags(rootCmd)
	s.MockRegistrySuite.SetupTest()
}

// resetFlags restores every flag of cmd and its subcommands to its default
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// CaptureStdout executes fn while capturing stdout, returns captured output.
// Stdout is restored even if fn panics.
func (s *CommandTestSuite) CaptureStdout(fn func()) string {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	s.Require().NoError(err, "pipe creation MUST succeed")
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	fn()

	w.Close()
	out, _ := io.ReadAll(r)
	return string(out)
}

// ExecuteCommand runs the root command with args, returns stdout and error.
func (s *CommandTestSuite) ExecuteCommand(args ...string) (string, error) {
	stdout, _, err := s.ExecuteCommandContext(context.Background(), args...)
	return stdout, err
}

// ExecuteCommandContext runs the root command under ctx and returns stdout and
// stderr separately.
func (s *CommandTestSuite) ExecuteCommandContext(ctx context.Context, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	setContext(rootCmd, ctx)

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// setContext overrides the context cobra keeps on every command after the first run
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}
