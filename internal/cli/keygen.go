package cli

import (
	"fmt"

	"quickbidz-storefront/internal/tokenstore"

	"github.com/spf13/cobra"
)

var generateKeyCmd = &cobra.Command{
	Use:   "generate-key",
	Short: "Print a random ENCRYPTION_KEY for the session cookie",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := tokenstore.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), secret)
		return err
	},
}
