// Package cli is the storefront command line: serve runs the web server,
// generate-key prints a fresh cookie encryption key.
package cli

import (
	"quickbidz-storefront/utils"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFiles   []string
	configFile string
	logLevel   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "QuickBidz storefront",
	Long: `The QuickBidz storefront serves the auction pages and the /api
pass-through to the auction backend. Sessions live in an encrypted cookie;
the backend remains the authority on every account and auction.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logLevel == "" {
			return nil
		}
		return utils.SetLevel(logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (default ./storefront.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateKeyCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		utils.Fatal("storefront exited with error", map[string]any{"error": err.Error()})
	}
}
