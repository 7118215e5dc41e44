package main

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/devenum"
	"github.com/srg/devenum/enumerator"
	"github.com/srg/devenum/internal/catdb"
	"github.com/srg/devenum/internal/device"
	"github.com/srg/devenum/internal/script"
	"github.com/srg/devenum/monitor"
	"github.com/srg/devenum/pkg/config"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "List the devices of a category",
	Long: `Enumerates one DirectShow device category and prints every device with its
friendly name, in registry order. Devices without a readable name are listed
as <unnamed>.

The category defaults to video-input. A category that cannot be enumerated is
reported as empty; the command still succeeds.

With --script, a Lua file defining accept(device) decides which devices are
listed. The device table has the fields index, name (nil when unnamed),
named and category. Embedded filters are selected with builtin:<name>
(builtin:named, builtin:no_virtual).`,
	Example: `  devenum list
  devenum list audio-input --format json
  devenum list --script my_filter.lua
  devenum list --script builtin:no_virtual`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var (
	listFormat string
	listScript string
	listMax    int
)

func init() {
	defaults := config.DefaultConfig()
	listCmd.Flags().StringVarP(&listFormat, "format", "f", defaults.OutputFormat, "Output format (table, json)")
	listCmd.Flags().StringVarP(&listScript, "script", "s", "", "Lua file with an accept(device) function, or builtin:<name>")
	listCmd.Flags().IntVarP(&listMax, "max", "n", defaults.MaxDevices, "Maximum number of devices to list (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, func(cfg *config.Config) {
		cfg.OutputFormat = listFormat
		cfg.MaxDevices = listMax
	})
	if err != nil {
		return err
	}
	defer env.close()

	category, err := env.category(args)
	if err != nil {
		return err
	}

	opts := []enumerator.Option{enumerator.WithMaxDevices(env.cfg.MaxDevices)}
	if listScript != "" {
		filter := script.NewFilter(env.logger)
		defer filter.Close()
		if err := loadFilter(filter, listScript); err != nil {
			return err
		}
		defer func() {
			for _, rec := range filter.Output() {
				fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimRight(rec.Content, "\n"))
			}
		}()
		opts = append(opts, enumerator.WithFilter(filter.Predicate()))
	}

	enum := env.enumerator(opts...)
	devs, err := enum.Enumerate(category)
	defer devs.Release()
	if err != nil {
		env.logger.WithError(err).WithField("category", catdb.Name(category)).Warn("Listing as empty")
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", FormatUserError(err))
	}

	infos := describeDevices(enum.Resolver(), devs)
	if env.cfg.OutputFormat == "json" {
		if infos == nil {
			infos = []device.Info{}
		}
		return writeJSON(cmd.OutOrStdout(), infos)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No devices found")
		return nil
	}
	return renderDeviceTable(out, infos)
}

// loadFilter loads a script file, or an embedded one named with the builtin: prefix
func loadFilter(filter *script.Filter, ref string) error {
	name, ok := strings.CutPrefix(ref, devenum.BuiltinPrefix)
	if !ok {
		return filter.LoadFile(ref)
	}
	src, err := devenum.BuiltinScript(name)
	if err != nil {
		return err
	}
	return filter.Load(src, ref)
}

// describeDevices snapshots devs with their DevicePath filled in when readable
func describeDevices(resolver *enumerator.NameResolver, devs device.Devices) []device.Info {
	var infos []device.Info
	for _, d := range devs {
		info := d.Info()
		if h, ok := d.Handle(); ok {
			if path, ok := resolver.ReadString(h, monitor.DevicePathKey); ok {
				info.Path = path
			}
			runtime.KeepAlive(d)
		}
		infos = append(infos, info)
	}
	return infos
}

func renderDeviceTable(out io.Writer, infos []device.Info) error {
	colored := isTerminal(out)
	unnamed := painter(colored, color.FgHiBlack, color.Italic)

	rows := make([][]cell, 0, len(infos))
	for _, info := range infos {
		name := plain(info.Name)
		if !info.Named {
			name = cell{text: unnamedLabel, paint: unnamed}
		}
		rows = append(rows, []cell{plain(strconv.Itoa(info.Index)), name, plain(catdb.Name(info.Category))})
	}
	return writeTable(out, colored, []string{"INDEX", "NAME", "CATEGORY"}, rows)
}
