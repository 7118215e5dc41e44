package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/devenum/inspector"
	"github.com/srg/devenum/internal/catdb"
	"github.com/srg/devenum/pkg/config"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <category> [selector]",
	Short: "Show the property bag of one device",
	Long: `Enumerates a category, selects one device and reads its property bag.

The selector is a device index ("2" or "#2") or its friendly name, compared
case-insensitively. Without a selector the first device is inspected. Every
enumerated device is released before the command returns.`,
	Example: `  devenum inspect video-input 0
  devenum inspect audio-input "Microphone Array (Realtek Audio)" --format json
  devenum inspect video-input --keys FriendlyName,DevicePath`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInspect,
}

var (
	inspectFormat string
	inspectKeys   string
)

func init() {
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", config.DefaultConfig().OutputFormat, "Output format (table, json)")
	inspectCmd.Flags().StringVarP(&inspectKeys, "keys", "k", strings.Join(inspector.DefaultKeys, ","), "Comma-separated property names to read")
}

func runInspect(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, func(cfg *config.Config) {
		cfg.OutputFormat = inspectFormat
	})
	if err != nil {
		return err
	}
	defer env.close()

	category, err := env.category(args[:1])
	if err != nil {
		return err
	}
	selector := ""
	if len(args) > 1 {
		selector = args[1]
	}

	var keys []string
	for _, k := range strings.Split(inspectKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}

	progressOut := cmd.ErrOrStderr()
	if !isTerminal(progressOut) {
		progressOut = io.Discard
	}
	progress := NewProgressPrinter(progressOut, fmt.Sprintf("Inspecting %s", catdb.Name(category)), "Enumerating", "Failed", "Reading properties")
	progress.Start()
	defer progress.Stop()

	report, err := inspector.Inspect(env.enumerator(), category, selector, keys, env.logger, progress.Callback())
	if err != nil {
		return err
	}
	progress.Stop()

	out := cmd.OutOrStdout()
	if env.cfg.OutputFormat == "json" {
		return writeJSON(out, report)
	}

	colored := isTerminal(out)
	heading := painter(colored, color.Bold)
	name := report.Device.DisplayName(unnamedLabel)
	fmt.Fprintf(out, "%s\n", heading.Sprintf("Device #%d: %s", report.Device.Index, name))
	fmt.Fprintf(out, "Category: %s %s\n\n", catdb.Name(report.Device.Category), report.Device.Category)

	if report.Properties.Len() == 0 {
		fmt.Fprintln(out, "No properties readable")
		return nil
	}
	rows := make([][]cell, 0, report.Properties.Len())
	for pair := report.Properties.Oldest(); pair != nil; pair = pair.Next() {
		rows = append(rows, []cell{plain(pair.Key), plain(pair.Value)})
	}
	return writeTable(out, colored, []string{"PROPERTY", "VALUE"}, rows)
}
