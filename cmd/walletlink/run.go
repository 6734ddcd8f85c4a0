package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/fixture"
)

// RunCmd creates the run command: one connect check.
func RunCmd() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Restore the wallet and connect it to the site once",
		Long: `Launch a fresh profile, restore the wallet, connect it to the site and verify
the site shows it as connected.

Exits non-zero on failure, naming the stage that broke: launch, onboarding or
connection.

Examples:
  walletlink run                     # chromium, config defaults
  walletlink run -e firefox          # firefox with tonKeeper/firefox/tonkeeper.xpi
  walletlink run --keep              # leave the browser open until Ctrl+C`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer browser.StopDriver()
			return runOnce(ctx, cmd, keep)
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "keep the connected browser open until interrupted")

	return cmd
}

func runOnce(ctx context.Context, cmd *cobra.Command, keep bool) error {
	out := cmd.OutOrStdout()

	c, err := fixture.Bootstrap(ctx, fixture.Options{Config: Config})
	if err != nil {
		fmt.Fprintf(out, "FAIL (%s): %v\n", stageName(err), err)
		return err
	}
	defer c.Close()

	fmt.Fprintf(out, "OK %s connected at %s\n", Config.Engine(), c.Page.URL())
	if keep {
		fmt.Fprintln(out, "Press Ctrl+C to close the browser.")
		select {
		case <-ctx.Done():
		case <-c.Session.Done():
		}
	}
	return nil
}

func stageName(err error) string {
	if stage := browser.StageOf(err); stage != "" {
		return string(stage)
	}
	return "unknown stage"
}
