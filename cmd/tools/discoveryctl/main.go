// cmd/tools/discoveryctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"product-discovery/internal/common/config"
	"product-discovery/internal/common/logger"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "discoveryctl",
	Short: "Operate the product discovery assistant from the command line",
	Long: `discoveryctl seeds the catalog, asks the assistant questions without the
HTTP server and validates vocabulary policy files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults to configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline activity to stderr")
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadFromFile(cfgFile)
	}
	return config.Load()
}

func newLogger() (*zap.Logger, logger.Logger) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	zapLog := logger.NewWithOutput(level, "console", "stderr")
	return zapLog, logger.NewZapAdapter(zapLog)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
