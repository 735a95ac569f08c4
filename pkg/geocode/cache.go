package geocode

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/openbucharest/medmap-cli/internal/model"
)

// Cache is a local SQLite store of lookup results keyed by the normalized
// address. Negative results are cached too, so a re-run does not re-query
// addresses the provider already failed to match; `cache clear` drops them
// when the maintainer has fixed the source.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the cache database at path and runs the
// migration.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: open cache %s", path)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "geocode: exec %s", pragma)
		}
	}
	if _, err := db.Exec(cacheMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "geocode: migrate cache")
	}
	return &Cache{db: db}, nil
}

const cacheMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	address_hash TEXT PRIMARY KEY,
	query        TEXT NOT NULL,
	latitude     REAL NOT NULL DEFAULT 0,
	longitude    REAL NOT NULL DEFAULT 0,
	matched      INTEGER NOT NULL DEFAULT 0,
	source       TEXT NOT NULL DEFAULT '',
	cached_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input       TEXT NOT NULL,
	output      TEXT NOT NULL,
	rows_read   INTEGER NOT NULL,
	geocoded    INTEGER NOT NULL,
	cache_hits  INTEGER NOT NULL,
	misses      INTEGER NOT NULL,
	written     INTEGER NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_query ON geocode_cache(query);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// cacheKey returns SHA-256 hex of the normalized query.
func cacheKey(query string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("%x", h)
}

// Lookup returns the cached result for query, or nil when absent.
func (c *Cache) Lookup(ctx context.Context, query string) (*Result, error) {
	var r Result
	var matched int
	err := c.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, matched, source FROM geocode_cache WHERE address_hash = ?`,
		cacheKey(query),
	).Scan(&r.Latitude, &r.Longitude, &matched, &r.Source)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "geocode: cache lookup")
	}
	r.Matched = matched != 0
	r.CacheHit = true
	return &r, nil
}

// Store upserts a result (match or clean no-match) for query.
func (c *Cache) Store(ctx context.Context, query string, r *Result) error {
	matched := 0
	if r.Matched {
		matched = 1
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO geocode_cache (address_hash, query, latitude, longitude, matched, source, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (address_hash) DO UPDATE SET
			query = excluded.query,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			matched = excluded.matched,
			source = excluded.source,
			cached_at = excluded.cached_at`,
		cacheKey(query), query, r.Latitude, r.Longitude, matched, r.Source,
	)
	return eris.Wrap(err, "geocode: cache store")
}

// Clear deletes cache entries whose query contains match (case-insensitive).
// With missesOnly, only unmatched entries are dropped. Returns rows deleted.
func (c *Cache) Clear(ctx context.Context, match string, missesOnly bool) (int64, error) {
	q := `DELETE FROM geocode_cache WHERE instr(lower(query), lower(?)) > 0`
	if missesOnly {
		q += ` AND matched = 0`
	}
	res, err := c.db.ExecContext(ctx, q, match)
	if err != nil {
		return 0, eris.Wrap(err, "geocode: cache clear")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "geocode: cache clear rows affected")
	}
	return n, nil
}

// Stats summarizes cache contents.
type Stats struct {
	Entries int
	Matched int
	Misses  int
}

// Stats counts cached entries by outcome.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(matched), 0) FROM geocode_cache`,
	).Scan(&s.Entries, &s.Matched)
	if err != nil {
		return Stats{}, eris.Wrap(err, "geocode: cache stats")
	}
	s.Misses = s.Entries - s.Matched
	return s, nil
}

// MissedQueries returns the cached queries that failed to match, oldest first,
// for the status report.
func (c *Cache) MissedQueries(ctx context.Context, limit int) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT query FROM geocode_cache WHERE matched = 0 ORDER BY cached_at LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: cache missed queries")
	}
	defer rows.Close() //nolint:errcheck

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, eris.Wrap(err, "geocode: scan missed query")
		}
		queries = append(queries, q)
	}
	return queries, eris.Wrap(rows.Err(), "geocode: iterate missed queries")
}

// RecordRun journals a completed pipeline run.
func (c *Cache) RecordRun(ctx context.Context, s model.RunSummary) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (id, input, output, rows_read, geocoded, cache_hits, misses, written, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Input, s.Output, s.RowsRead, s.Geocoded, s.CacheHits, s.Misses, s.Written,
		s.StartedAt.UTC(), s.FinishedAt.UTC(),
	)
	return eris.Wrap(err, "geocode: record run")
}

// RecentRuns returns the most recent run summaries, newest first.
func (c *Cache) RecentRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, input, output, rows_read, geocoded, cache_hits, misses, written, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: recent runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.RunSummary
	for rows.Next() {
		var s model.RunSummary
		if err := rows.Scan(&s.ID, &s.Input, &s.Output, &s.RowsRead, &s.Geocoded, &s.CacheHits,
			&s.Misses, &s.Written, &s.StartedAt, &s.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "geocode: scan run")
		}
		runs = append(runs, s)
	}
	return runs, eris.Wrap(rows.Err(), "geocode: iterate runs")
}

// CachedProvider wraps a Provider with the cache. Results, including clean
// no-matches, are cached; transport errors are downgraded to a miss but not
// cached, so a flaky network does not poison re-runs.
type CachedProvider struct {
	provider Provider
	cache    *Cache
}

// NewCachedProvider wraps provider with cache. A nil cache passes lookups
// straight through.
func NewCachedProvider(provider Provider, cache *Cache) *CachedProvider {
	return &CachedProvider{provider: provider, cache: cache}
}

// Name implements Provider.
func (p *CachedProvider) Name() string { return p.provider.Name() }

// Geocode implements Provider. It never returns an error: lookup failures
// degrade to an unmatched result per the adapter contract.
func (p *CachedProvider) Geocode(ctx context.Context, query string) (*Result, error) {
	if p.cache != nil {
		cached, err := p.cache.Lookup(ctx, query)
		if err != nil {
			zap.L().Warn("geocode cache lookup failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	r, err := p.provider.Geocode(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "geocode: cancelled")
		}
		zap.L().Warn("geocode lookup failed",
			zap.String("provider", p.provider.Name()),
			zap.String("query", query),
			zap.Error(err),
		)
		return &Result{Matched: false, Source: p.provider.Name()}, nil
	}

	// Cache-only runs use NoopProvider; its misses say nothing about the
	// address and must not overwrite real cache entries.
	if _, noop := p.provider.(NoopProvider); p.cache != nil && !noop {
		if err := p.cache.Store(ctx, query, r); err != nil {
			zap.L().Warn("geocode cache store failed", zap.Error(err))
		}
	}
	return r, nil
}
