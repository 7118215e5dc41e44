package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/devenum/internal/catdb"
	"github.com/srg/devenum/monitor"
	"github.com/srg/devenum/pkg/config"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [category]",
	Short: "Watch a category for device arrivals and removals",
	Long: `Re-enumerates a category on an interval and prints a line for each device
that appeared or disappeared since the previous poll. The first poll reports
every present device as added. Devices are matched across polls by their
DevicePath, or by name when they have none.

Runs until interrupted with Ctrl+C.`,
	Example: `  devenum watch
  devenum watch audio-input --interval 500ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

var (
	watchInterval time.Duration
	watchFormat   string
)

func init() {
	defaults := config.DefaultConfig()
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", defaults.WatchInterval, "Time between polls")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", defaults.OutputFormat, "Output format (table, json)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := newCommandEnv(cmd, func(cfg *config.Config) {
		cfg.WatchInterval = watchInterval
		cfg.OutputFormat = watchFormat
	})
	if err != nil {
		return err
	}
	defer env.close()

	category, err := env.category(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(env.enumerator(), env.logger, &monitor.Options{Interval: env.cfg.WatchInterval})
	defer mon.Close()

	out := cmd.OutOrStdout()
	if env.cfg.OutputFormat == "table" {
		fmt.Fprintf(out, "Watching %s every %s (Ctrl+C to stop)\n", catdb.Name(category), env.cfg.WatchInterval)
	}

	done := mon.Start(ctx, category)
	emit := eventPrinter(out, env.cfg.OutputFormat)
	for {
		select {
		case ev := <-mon.Events():
			if err := emit(ev); err != nil {
				return err
			}
		case <-done:
			// the last poll may have queued events after ctx ended
			for {
				select {
				case ev := <-mon.Events():
					if err := emit(ev); err != nil {
						return err
					}
				default:
					env.logger.WithField("events", len(mon.History())).Debug("Watch stopped")
					if ctx.Err() != nil && cmd.Context().Err() == nil {
						fmt.Fprintln(cmd.ErrOrStderr(), "\nInterrupted, stopping watch")
					}
					return nil
				}
			}
		}
	}
}

func eventPrinter(out io.Writer, format string) func(monitor.Event) error {
	if format == "json" {
		return func(ev monitor.Event) error {
			return writeCompactJSON(out, ev)
		}
	}

	colored := isTerminal(out)
	added := painter(colored, color.FgGreen)
	removed := painter(colored, color.FgRed)
	return func(ev monitor.Event) error {
		mark := added.Sprint("+")
		if ev.Type == monitor.EventRemoved {
			mark = removed.Sprint("-")
		}
		_, err := fmt.Fprintf(out, "%s %s %-7s #%d %s\n",
			ev.At.Format(time.TimeOnly), mark, ev.Type, ev.Device.Index, ev.Device.DisplayName(unnamedLabel))
		return err
	}
}
