package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openbucharest/medmap-cli/pkg/geocode"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache and run statistics",
	Long:  "Displays geocode cache contents, addresses still missing coordinates, and recent runs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cache, err := geocode.OpenCache(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer cache.Close() //nolint:errcheck

		stats, err := cache.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Cache: %d addresses (%d resolved, %d without coordinates)\n",
			stats.Entries, stats.Matched, stats.Misses)

		if stats.Misses > 0 {
			missed, err := cache.MissedQueries(ctx, 20)
			if err != nil {
				return err
			}
			fmt.Println("\nAddresses without coordinates:")
			for _, q := range missed {
				fmt.Printf("  %s\n", q)
			}
			if stats.Misses > len(missed) {
				fmt.Printf("  ... and %d more\n", stats.Misses-len(missed))
			}
		}

		runs, err := cache.RecentRuns(ctx, 5)
		if err != nil {
			return err
		}
		if len(runs) > 0 {
			fmt.Println("\nRecent runs:")
			for _, r := range runs {
				fmt.Printf("  %s  rows=%d geocoded=%d cache_hits=%d misses=%d written=%d\n",
					r.StartedAt.Format("2006-01-02 15:04"),
					r.RowsRead, r.Geocoded, r.CacheHits, r.Misses, r.Written)
			}
		}

		return nil
	},
}
