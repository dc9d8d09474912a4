package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/relay/adapters/sqlite"
	"github.com/artpar/relay/config"
)

const (
	checkMark = "✓"
	crossMark = "✗"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the relay configuration file.

Checks:
  - YAML syntax is valid
  - Endpoint URIs are absolute and direct requests well-formed
  - Store databases are writable (optional)

Examples:
  relay validate
  relay validate --config /etc/relay/config.yaml`,
	RunE: runValidate,
}

var validateCheckStores bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckStores, "check-stores", false, "check that sqlite stores are writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	fmt.Printf("  %s Endpoints configured: %d\n", checkMark, len(cfg.Mediator.HTTP.Endpoints))
	fmt.Printf("  %s Direct requests: %d\n", checkMark, len(cfg.Mediator.HTTP.Direct.Requests))
	fmt.Printf("  %s Timeout: %s\n", checkMark, cfg.Mediator.HTTP.Timeout)
	fmt.Printf("  %s Cache store: %s (ttl %s)\n", checkMark, cfg.Cache.Store, cfg.Cache.TTL)
	if cfg.Offline.Enabled {
		fmt.Printf("  %s Offline queue: %s\n", checkMark, cfg.Offline.Store)
	}

	if validateCheckStores {
		if err := checkStoreWritable(cfg.Cache.Store, cfg.Cache.DSN); err != nil {
			fmt.Printf("  %s Cache store writable\n", crossMark)
			return err
		}
		fmt.Printf("  %s Cache store writable\n", checkMark)
		if cfg.Offline.Enabled {
			if err := checkStoreWritable(cfg.Offline.Store, cfg.Offline.DSN); err != nil {
				fmt.Printf("  %s Offline store writable\n", crossMark)
				return err
			}
			fmt.Printf("  %s Offline store writable\n", checkMark)
		}
	}

	fmt.Println("\nConfiguration is valid.")
	return nil
}

func checkStoreWritable(store, dsn string) error {
	if store != "sqlite" {
		return nil
	}
	db, err := sqlite.Open(dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", dsn, err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return nil
}
