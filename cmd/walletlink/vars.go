package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neboloop/walletlink/internal/config"
	"github.com/neboloop/walletlink/internal/logging"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile  string
	engine   string
	headless bool
	verbose  bool
	quiet    bool
)

// Config holds the configuration loaded before any subcommand runs.
var Config config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "walletlink",
		Short: "walletlink - wallet connect checks",
		Long: `walletlink launches a browser with the Tonkeeper extension, restores a wallet
from a seed phrase and connects it to the trading site, verifying the site shows
the wallet as connected.

The seed phrase comes from the PHRASES environment variable (a JSON array of 24
words, also read from .env) or from the OS keychain ('walletlink secret set').`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./walletlink.yaml)")
	rootCmd.PersistentFlags().StringVarP(&engine, "engine", "e", "", "browser engine: chromium, chrome, edge or firefox")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "run the browser headless")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable logging")

	rootCmd.AddCommand(RunCmd())
	rootCmd.AddCommand(WatchCmd())
	rootCmd.AddCommand(CleanCmd())
	rootCmd.AddCommand(InitCmd())
	rootCmd.AddCommand(SecretCmd())

	return rootCmd
}

// loadConfig reads the configuration. Flags act through the WALLETLINK_* overrides
// so defaults derived from the engine, like the extension location, follow them.
func loadConfig(cmd *cobra.Command) error {
	if engine != "" {
		if err := os.Setenv("WALLETLINK_ENGINE", engine); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("headless") {
		if err := os.Setenv("WALLETLINK_HEADLESS", strconv.FormatBool(headless)); err != nil {
			return err
		}
	}

	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if verbose {
		c.Log.Level = "debug"
	}

	if _, err := logging.Setup(c.Log.Level, c.Log.Format, cmd.ErrOrStderr()); err != nil {
		return fmt.Errorf("log setup: %w", err)
	}
	if quiet {
		logging.Disable()
	} else {
		logging.Enable()
	}
	Config = c
	return nil
}
