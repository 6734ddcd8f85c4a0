package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neboloop/walletlink/internal/defaults"
)

// InitCmd creates the init command, writing the default configuration.
func InitCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default walletlink.yaml",
		Long: `Write the default walletlink.yaml into the working directory (or
WALLETLINK_DATA_DIR). An existing file is kept unless --reset is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := defaults.EnsureDataDir()
			if err != nil {
				return err
			}
			if reset {
				if err := defaults.Reset(dir); err != nil {
					return err
				}
			}
			names, err := defaults.ListDefaults()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Defaults in %s\n", dir)
			for _, name := range names {
				fmt.Fprintf(out, "  %s\n", filepath.Join(dir, name))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "overwrite an existing configuration with the defaults")

	return cmd
}
