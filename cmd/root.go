package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openbucharest/medmap-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "medmap",
	Short: "Bucharest family-medicine map pipeline",
	Long:  "Parses the government list of family-medicine offices, geocodes each address via Nominatim, and writes the map dataset. Run with no arguments to build with configured defaults.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	// Invoking the tool bare is the common maintainer path: build everything
	// with configured defaults.
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBuild(cmd, buildOptions{})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
