package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neboloop/walletlink/internal/wallet"
)

// SecretCmd creates the secret command for the keychain-held seed phrase.
func SecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage the seed phrase in the OS keychain",
		Long: `Store or remove the seed phrase used when PHRASES is not set.

Examples:
  walletlink secret set < phrase.txt     # 24 words, space separated or a JSON array
  walletlink secret delete`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Read a seed phrase from stdin and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			phrase, err := readPhrase(string(data))
			if err != nil {
				return err
			}
			if err := wallet.StoreSeedPhrase(phrase); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", phrase)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored seed phrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wallet.DeleteSeedPhrase(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed seed phrase")
			return nil
		},
	})

	return cmd
}

// readPhrase accepts the PHRASES JSON form or plain whitespace-separated words.
func readPhrase(raw string) (wallet.SeedPhrase, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		return wallet.ParseSeedPhrase(raw)
	}
	phrase := wallet.SeedPhrase(strings.Fields(raw))
	if err := phrase.Validate(); err != nil {
		return nil, err
	}
	return phrase, nil
}
