package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Mediator-style request dispatch engine with HTTP execution",
	Long: `Relay dispatches typed requests to registered handlers through an
onion-style middleware pipeline: logging, metrics, caching, and an
offline queue that replays requests when connectivity returns.
HTTP-backed requests are described declaratively and executed against
configuration-resolved base URIs.

Tooling:
  relay validate  # Validate configuration
  relay send      # Execute a named direct request
  relay version   # Print version information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "relay.yaml", "config file path")
}
