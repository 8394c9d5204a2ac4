package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/poolworks/swapd/internal/version"
)

var (
	// Global flags
	configFile string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "swapd",
	Short: "swapd - constant-product liquidity pool daemon",
	Long: `swapd runs a single constant-product liquidity pool for a configured
asset pair. It exposes the pool over HTTP JSON-RPC and a WebSocket stream:
deposits, withdrawals, swaps, fee claims, quotes and pool inspection.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}
