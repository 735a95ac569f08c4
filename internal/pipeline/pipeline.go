// Package pipeline runs the single linear pass over the source table:
// normalize each address, geocode it, and assemble the output dataset.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openbucharest/medmap-cli/internal/model"
	"github.com/openbucharest/medmap-cli/internal/normalize"
	"github.com/openbucharest/medmap-cli/internal/source"
	"github.com/openbucharest/medmap-cli/pkg/geocode"
)

// Geocoder is the narrow lookup contract the pipeline needs.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*geocode.Result, error)
}

// Options configures a pipeline run.
type Options struct {
	TitleColumn   string // header name of the title column
	AddressColumn string // header name of the address column

	// LabelDescriptions prefixes each description line with its column
	// header ("Telefon: 021...") instead of emitting the bare value.
	LabelDescriptions bool

	// KeepUnresolved keeps records whose lookup missed, with sentinel
	// coordinates (0, 0). The default omits them, matching the dataset
	// this tool replaces.
	KeepUnresolved bool

	// Limit stops after N rows when > 0. Used for dry runs against the
	// live provider.
	Limit int
}

// Pipeline geocodes a parsed source table into the output dataset.
type Pipeline struct {
	norm     *normalize.Normalizer
	geocoder Geocoder
	opts     Options
	log      *zap.Logger
}

// New creates a Pipeline.
func New(norm *normalize.Normalizer, geocoder Geocoder, opts Options) *Pipeline {
	return &Pipeline{
		norm:     norm,
		geocoder: geocoder,
		opts:     opts,
		log:      zap.L().Named("pipeline"),
	}
}

// Run processes every row of the table in file order, one geocode request in
// flight at a time. It aborts on context cancellation; per-address lookup
// misses never abort the run.
func (p *Pipeline) Run(ctx context.Context, table *source.Table) (model.Dataset, model.RunSummary, error) {
	summary := model.RunSummary{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	titleIdx, err := table.ColumnIndex(p.opts.TitleColumn)
	if err != nil {
		return nil, summary, err
	}
	addrIdx, err := table.ColumnIndex(p.opts.AddressColumn)
	if err != nil {
		return nil, summary, err
	}

	dataset := make(model.Dataset, 0, len(table.Rows))
	for _, row := range table.Rows {
		if ctx.Err() != nil {
			return nil, summary, eris.Wrap(ctx.Err(), "pipeline: cancelled")
		}
		if p.opts.Limit > 0 && summary.RowsRead >= p.opts.Limit {
			break
		}
		summary.RowsRead++

		query := p.norm.Normalize(row.Cells[addrIdx])
		result, err := p.geocoder.Geocode(ctx, query)
		if err != nil {
			return nil, summary, eris.Wrapf(err, "pipeline: geocode row %d", row.Line)
		}

		switch {
		case result.Matched && result.CacheHit:
			summary.Geocoded++
			summary.CacheHits++
		case result.Matched:
			summary.Geocoded++
		default:
			summary.Misses++
			p.log.Warn("address not geocoded",
				zap.Int("row", row.Line),
				zap.String("query", query),
			)
		}

		record := Assemble(table.Header, row, titleIdx, p.opts.LabelDescriptions, result)
		if !result.Matched && !p.opts.KeepUnresolved {
			continue
		}
		dataset = append(dataset, record)

		p.log.Debug("row processed",
			zap.Int("row", row.Line),
			zap.String("query", query),
			zap.Bool("matched", result.Matched),
			zap.Bool("cache_hit", result.CacheHit),
		)
	}

	summary.Written = len(dataset)
	summary.FinishedAt = time.Now().UTC()
	return dataset, summary, nil
}
