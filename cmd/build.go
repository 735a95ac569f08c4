package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openbucharest/medmap-cli/internal/normalize"
	"github.com/openbucharest/medmap-cli/internal/output"
	"github.com/openbucharest/medmap-cli/internal/pipeline"
	"github.com/openbucharest/medmap-cli/internal/source"
	"github.com/openbucharest/medmap-cli/pkg/geocode"
)

type buildOptions struct {
	input       string
	out         string
	limit       int
	skipGeocode bool
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the full pipeline",
	Long:  "Reads the source list, normalizes and geocodes every address, and writes the map dataset.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var opts buildOptions
		opts.input, _ = cmd.Flags().GetString("input")
		opts.out, _ = cmd.Flags().GetString("output")
		opts.limit, _ = cmd.Flags().GetInt("limit")
		opts.skipGeocode, _ = cmd.Flags().GetBool("skip-geocode")
		return runBuild(cmd, opts)
	},
}

func init() {
	buildCmd.Flags().String("input", "", "source file path (overrides config)")
	buildCmd.Flags().String("output", "", "artifact path (overrides config)")
	buildCmd.Flags().Int("limit", 0, "process only the first N rows")
	buildCmd.Flags().Bool("skip-geocode", false, "resolve from cache only, no provider requests")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runBuild(cmd *cobra.Command, opts buildOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputPath := cfg.Source.Path
	if opts.input != "" {
		inputPath = opts.input
	}
	outputPath := cfg.Output.Path
	if opts.out != "" {
		outputPath = opts.out
	}

	log := zap.L().With(zap.String("command", "build"))

	norm, err := buildNormalizer()
	if err != nil {
		return err
	}

	var delim rune
	if cfg.Source.Delimiter != "" {
		delim = rune(cfg.Source.Delimiter[0])
	}
	table, err := source.Read(inputPath, source.Options{
		SheetName: cfg.Source.Sheet,
		Delimiter: delim,
	})
	if err != nil {
		return err
	}

	var cache *geocode.Cache
	if cfg.Cache.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o755); err != nil {
			return eris.Wrap(err, "build: create cache directory")
		}
		cache, err = geocode.OpenCache(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer cache.Close() //nolint:errcheck
	}

	var provider geocode.Provider = geocode.NoopProvider{}
	if !opts.skipGeocode {
		provider = geocode.NewNominatim(
			geocode.WithBaseURL(cfg.Geocoder.BaseURL),
			geocode.WithUserAgent(cfg.Geocoder.UserAgent),
			geocode.WithRateLimit(cfg.Geocoder.RatePerSec),
			geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Geocoder.TimeoutSecs) * time.Second}),
		)
	}

	p := pipeline.New(norm, geocode.NewCachedProvider(provider, cache), pipeline.Options{
		TitleColumn:       cfg.Source.TitleColumn,
		AddressColumn:     cfg.Source.AddressColumn,
		LabelDescriptions: cfg.Source.LabelDescriptions,
		KeepUnresolved:    cfg.Output.KeepUnresolved,
		Limit:             opts.limit,
	})

	log.Info("starting build",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Int("rows", len(table.Rows)),
		zap.Bool("skip_geocode", opts.skipGeocode),
	)

	dataset, summary, err := p.Run(ctx, table)
	if err != nil {
		return err
	}

	if err := output.Write(outputPath, dataset); err != nil {
		return err
	}

	summary.Input = inputPath
	summary.Output = outputPath
	if cache != nil {
		if err := cache.RecordRun(ctx, summary); err != nil {
			log.Warn("failed to journal run", zap.Error(err))
		}
	}

	fmt.Printf("Processed %d rows: %d geocoded (%d from cache), %d without coordinates, %d written to %s\n",
		summary.RowsRead, summary.Geocoded, summary.CacheHits, summary.Misses, summary.Written, outputPath)
	return nil
}

func buildNormalizer() (*normalize.Normalizer, error) {
	if cfg.Normalizer.RulesPath == "" {
		return normalize.Default(), nil
	}
	rules, err := normalize.LoadRules(cfg.Normalizer.RulesPath)
	if err != nil {
		return nil, err
	}
	return normalize.New(rules)
}
