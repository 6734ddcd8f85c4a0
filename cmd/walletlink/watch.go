package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/fixture"
	"github.com/neboloop/walletlink/internal/monitor"
)

// WatchCmd creates the watch command: the connect check on a schedule.
func WatchCmd() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the connect check on a cron schedule",
		Long: `Run the connect check repeatedly on a six-field cron schedule (with seconds)
and log every result with a pass count over recent runs. A run still going when
the next is due makes that one be skipped.

Examples:
  walletlink watch                              # watch.schedule from config
  walletlink watch --schedule "0 */5 * * * *"   # every five minutes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if schedule == "" {
				schedule = Config.Watch.Schedule
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer browser.StopDriver()
			return watch(ctx, cmd, schedule)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "cron schedule with seconds (default: watch.schedule)")

	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, schedule string) error {
	cfg := Config
	m := monitor.New(func(ctx context.Context) error {
		c, err := fixture.Bootstrap(ctx, fixture.Options{Config: cfg})
		if err != nil {
			return err
		}
		return c.Close()
	}, monitor.Options{
		History: cfg.Watch.History,
		// Bootstrap enforces its own bound; this covers teardown as well.
		Timeout: cfg.Timeouts.Bootstrap + time.Minute,
		Logger:  slog.Default(),
	})

	if err := m.Schedule(schedule); err != nil {
		return err
	}
	m.Start(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s on %q, next run at %s. Ctrl+C to stop.\n",
		cfg.Site.URL, schedule, m.Next().Format(time.RFC3339))

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Bootstrap)
	defer cancel()
	m.Stop(stopCtx)

	failed := 0
	history := m.History()
	for _, r := range history {
		if !r.OK() {
			failed++
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %d recent runs, %d failed\n", len(history), failed)
	return nil
}
