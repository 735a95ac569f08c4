// Package source reads the cleaned provider list from XLSX or CSV files.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/openbucharest/medmap-cli/internal/model"
)

// Options configures the source reader.
type Options struct {
	SheetName string // XLSX only; default is the first sheet
	Delimiter rune   // CSV only; default ','
}

// Table holds the parsed source file: the header row plus every data row in
// file order.
type Table struct {
	Header []string
	Rows   []model.RawRow
}

// ColumnIndex resolves a header name to its cell index. The match is
// case-insensitive and ignores surrounding whitespace.
func (t *Table) ColumnIndex(name string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.Header {
		if strings.ToLower(strings.TrimSpace(h)) == want {
			return i, nil
		}
	}
	return 0, eris.Errorf("source: column %q not found in header %v", name, t.Header)
}

// ParseError reports a structurally malformed source row. It is fatal: the
// maintainer fixes the source file and re-runs.
type ParseError struct {
	Line int
	Want int
	Got  int
	Row  []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("source: row %d has %d columns, expected %d: %v", e.Line, e.Got, e.Want, e.Row)
}

// Read parses the file at path, choosing the parser by extension. The first
// non-empty row is the header; every following row must match its column
// count or the run aborts with a ParseError.
func Read(path string, opts Options) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, opts)
	case ".csv":
		return ReadCSVFile(path, opts)
	default:
		return nil, eris.Errorf("source: unsupported file type %q", filepath.Ext(path))
	}
}

// buildTable assembles a Table from raw rows, enforcing the column-count
// invariant. Rows whose cells are all empty are skipped (XLSX exports often
// carry trailing blank rows). Line numbering is 1-based including the header.
func buildTable(rows [][]string) (*Table, error) {
	t := &Table{}
	for i, cells := range rows {
		line := i + 1
		if allEmpty(cells) {
			continue
		}
		if t.Header == nil {
			t.Header = cells
			continue
		}
		if len(cells) != len(t.Header) {
			return nil, &ParseError{Line: line, Want: len(t.Header), Got: len(cells), Row: cells}
		}
		t.Rows = append(t.Rows, model.RawRow{Line: line, Cells: cells})
	}
	if t.Header == nil {
		return nil, eris.New("source: file has no header row")
	}
	return t, nil
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
