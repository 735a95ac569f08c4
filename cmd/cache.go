package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/openbucharest/medmap-cli/pkg/geocode"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the geocode cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cache entries matching a string",
	Long:  "Deletes cache entries whose address contains the given string, so they are geocoded again on the next run. Use after fixing addresses in the source file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		match, _ := cmd.Flags().GetString("match")
		missesOnly, _ := cmd.Flags().GetBool("misses-only")
		if match == "" {
			return eris.New("cache clear: --match is required")
		}

		cache, err := geocode.OpenCache(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer cache.Close() //nolint:errcheck

		n, err := cache.Clear(ctx, match, missesOnly)
		if err != nil {
			return err
		}

		fmt.Printf("Removed %d cache entr(ies) matching %q\n", n, match)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().String("match", "", "substring of the normalized address (required)")
	cacheClearCmd.Flags().Bool("misses-only", false, "only drop entries without coordinates")
	cacheCmd.AddCommand(cacheClearCmd)
}
