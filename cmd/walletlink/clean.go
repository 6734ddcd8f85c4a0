package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neboloop/walletlink/internal/fixture"
)

// CleanCmd creates the clean command, removing every session profile.
func CleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove all session profiles",
		Long: `Remove the profile root (default ./user-data) with every session profile left
behind by interrupted runs. Safe to run when nothing is there.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := Config.Browser.ProfileRoot
			if err := fixture.Sweep(root); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", root)
			return nil
		},
	}
}
