// Package model defines the data shapes shared across the pipeline.
package model

import "time"

// RawRow is one entry from the source file before normalization. Cells are in
// source column order; Line is the 1-based row number for error reporting.
type RawRow struct {
	Line  int
	Cells []string
}

// ProviderRecord is one map entry in the output artifact. Field names, types,
// and order are the contract downstream map consumers rely on.
type ProviderRecord struct {
	Title       string   `json:"title"`
	Description []string `json:"description"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
}

// Resolved reports whether the record carries real coordinates. Unresolved
// records hold the sentinel (0, 0).
func (r ProviderRecord) Resolved() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

// Dataset is the ordered sequence of records written to the artifact.
// Insertion order matches source file row order; no deduplication.
type Dataset []ProviderRecord

// RunSummary describes one pipeline run for the journal and the end-of-run
// report.
type RunSummary struct {
	ID         string    `json:"id"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	RowsRead   int       `json:"rows_read"`
	Geocoded   int       `json:"geocoded"`
	CacheHits  int       `json:"cache_hits"`
	Misses     int       `json:"misses"`
	Written    int       `json:"written"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
