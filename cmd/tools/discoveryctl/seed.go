// cmd/tools/discoveryctl/seed.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"product-discovery/internal/bootstrap"
	"product-discovery/internal/common/config"
	"product-discovery/internal/common/database"
)

var seedDriver string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the catalog schema or index and load the demo catalog",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDriver, "driver", "", "catalog driver to seed (sqlite, postgres, elasticsearch); defaults to config")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if seedDriver != "" {
		cfg.Catalog.Driver = seedDriver
	}
	// only the catalog is needed
	cfg.Catalog.SeedOnStart = true
	cfg.Catalog.CacheEnabled = false
	cfg.Memory.Backend = config.MemoryBackendInProcess
	cfg.LLM.Enabled = false

	zapLog, log := newLogger()
	defer zapLog.Sync() //nolint:errcheck

	res, err := bootstrap.Open(ctx, cfg, zapLog, log)
	if err != nil {
		return fmt.Errorf("seed %s catalog: %w", cfg.Catalog.Driver, err)
	}
	defer res.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %s catalog: %d businesses, %d products\n",
		cfg.Catalog.Driver, len(database.DemoBusinesses()), len(database.DemoProducts()))
	return nil
}
