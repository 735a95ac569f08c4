// Package geocode resolves free-text addresses to coordinates via the
// Nominatim search API, with an optional local SQLite lookup cache.
package geocode

import "context"

// Result holds the lookup output for one address. An unmatched result is not
// an error: the record proceeds with sentinel coordinates.
type Result struct {
	Latitude  float64
	Longitude float64
	Source    string // "nominatim", "cache", "none"
	Matched   bool
	CacheHit  bool
}

// Provider is a single geocoding backend.
type Provider interface {
	Name() string

	// Geocode resolves a single query. A clean no-match returns
	// Result{Matched: false} with a nil error; transport and provider
	// errors are returned as errors so callers can decide whether the
	// outcome is cacheable.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// NoopProvider never matches. It backs cache-only runs.
type NoopProvider struct{}

// Name implements Provider.
func (NoopProvider) Name() string { return "none" }

// Geocode implements Provider.
func (NoopProvider) Geocode(_ context.Context, _ string) (*Result, error) {
	return &Result{Matched: false, Source: "none"}, nil
}
