package pipeline

import (
	"strings"

	"github.com/openbucharest/medmap-cli/internal/model"
	"github.com/openbucharest/medmap-cli/internal/normalize"
	"github.com/openbucharest/medmap-cli/pkg/geocode"
)

// Assemble builds a ProviderRecord from a source row and its lookup result.
// Pure: no side effects, and it never invents coordinates; an unmatched
// result yields the sentinel (0, 0). Title and description text is
// diacritic-folded the same way addresses are.
func Assemble(header []string, row model.RawRow, titleIdx int, label bool, result *geocode.Result) model.ProviderRecord {
	record := model.ProviderRecord{
		Title:       normalize.Fold(strings.TrimSpace(row.Cells[titleIdx])),
		Description: describe(header, row.Cells, titleIdx, label),
	}
	if result != nil && result.Matched {
		record.Latitude = result.Latitude
		record.Longitude = result.Longitude
	}
	return record
}

// describe turns every non-title cell into a description line, in column
// order. Empty cells are skipped.
func describe(header, cells []string, titleIdx int, label bool) []string {
	lines := make([]string, 0, len(cells)-1)
	for i, cell := range cells {
		if i == titleIdx {
			continue
		}
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		line := normalize.Fold(cell)
		if label && i < len(header) {
			line = normalize.Fold(strings.TrimSpace(header[i])) + ": " + line
		}
		lines = append(lines, line)
	}
	return lines
}
