// Package normalize turns free-text source addresses into single-line
// geocoding queries. The cleanup is heuristic and specific to the current
// source format; the rules live in a Rules document so a format change is a
// data change.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer rewrites raw addresses into canonical geocoding queries.
// Normalize is idempotent: normalizing its own output yields the same string.
type Normalizer struct {
	rules Rules

	glued     *regexp.Regexp
	streets   []streetRewrite
	numMarker *regexp.Regexp
	secMarker *regexp.Regexp

	streetSeg *regexp.Regexp
	numberSeg *regexp.Regexp
	sectorSeg *regexp.Regexp

	multiSpace *regexp.Regexp
}

type streetRewrite struct {
	re        *regexp.Regexp
	canonical string
}

// New compiles a Normalizer from the given ruleset.
func New(rules Rules) (*Normalizer, error) {
	if rules.CitySuffix == "" {
		return nil, eris.New("normalize: rules missing city_suffix")
	}
	if rules.Number.Canonical == "" || rules.Sector.Canonical == "" {
		return nil, eris.New("normalize: rules missing number or sector marker")
	}

	n := &Normalizer{
		rules:      rules,
		multiSpace: regexp.MustCompile(`\s{2,}`),
	}

	var canonicals []string
	for _, st := range rules.StreetTypes {
		if st.Canonical == "" {
			return nil, eris.New("normalize: street type with empty canonical")
		}
		canonicals = append(canonicals, regexp.QuoteMeta(st.Canonical))
		forms := append([]string{st.Canonical}, st.Abbreviations...)
		n.streets = append(n.streets, streetRewrite{
			re:        regexp.MustCompile(`(?i)\b(?:` + alternation(forms) + `)\.?\s+`),
			canonical: st.Canonical,
		})
	}

	if len(rules.GluedMarkers) > 0 {
		n.glued = regexp.MustCompile(`(?i)(?:` + alternation(rules.GluedMarkers) + `)\b`)
	}

	numForms := append([]string{rules.Number.Canonical}, rules.Number.Variants...)
	n.numMarker = regexp.MustCompile(`(?i)\b(?:` + alternation(numForms) + `)\.?\s*`)

	secForms := append([]string{rules.Sector.Canonical}, rules.Sector.Variants...)
	n.secMarker = regexp.MustCompile(`(?i)\b(?:` + alternation(secForms) + `)\.?\s*(\d+)`)

	n.streetSeg = regexp.MustCompile(`^(?:` + strings.Join(canonicals, "|") + `)\s+\S`)
	n.numberSeg = regexp.MustCompile(`^` + regexp.QuoteMeta(rules.Number.Canonical) + `\s+(.+)$`)
	n.sectorSeg = regexp.MustCompile(`^` + regexp.QuoteMeta(rules.Sector.Canonical) + `\s+\d+$`)

	return n, nil
}

// Default returns a Normalizer for the built-in ruleset.
func Default() *Normalizer {
	n, err := New(DefaultRules())
	if err != nil {
		panic(err) // built-in rules are valid
	}
	return n
}

// Normalize cleans a raw address into a single-line geocoding query:
// diacritics folded, street types expanded, the street number and sector
// pulled into their own comma segments, and the city suffix appended.
func (n *Normalizer) Normalize(addr string) string {
	s := Fold(addr)

	// Split marker words the source glued onto the street name.
	if n.glued != nil {
		s = n.glued.ReplaceAllString(s, ", $0")
	}

	for _, st := range n.streets {
		s = st.re.ReplaceAllString(s, st.canonical+" ")
	}
	s = n.numMarker.ReplaceAllString(s, n.rules.Number.Canonical+" ")
	s = n.secMarker.ReplaceAllString(s, n.rules.Sector.Canonical+" $1")

	segs := splitSegments(n.multiSpace.ReplaceAllString(s, " "))

	street, number, sector := "", "", ""
	var rest []string
	for _, seg := range segs {
		switch {
		case street == "" && n.streetSeg.MatchString(seg):
			street = seg
		case number == "" && isBareNumber(seg):
			number = seg
		case number == "" && n.numberSeg.MatchString(seg):
			number = n.numberSeg.FindStringSubmatch(seg)[1]
		case sector == "" && n.sectorSeg.MatchString(seg):
			sector = seg
		case strings.EqualFold(seg, n.rules.CitySuffix):
			// re-appended below
		default:
			rest = append(rest, seg)
		}
	}

	var out []string
	if street != "" {
		out = append(out, street)
		if number != "" {
			out = append(out, number)
		}
		if sector != "" {
			out = append(out, sector)
		}
	} else {
		// No recognizable street type: keep the cleaned text so the query
		// still has a chance of matching.
		out = append(out, rest...)
		if number != "" {
			out = append(out, n.rules.Number.Canonical+" "+number)
		}
		if sector != "" {
			out = append(out, sector)
		}
	}
	out = append(out, n.rules.CitySuffix)

	return strings.Join(out, ", ")
}

// Fold strips diacritics, mapping Romanian letters to their ASCII base forms
// the same way for titles, descriptions, and addresses.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// splitSegments splits on commas, trims each segment, and drops empties.
func splitSegments(s string) []string {
	parts := strings.Split(s, ",")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// isBareNumber matches street numbers like "5", "12A", "3-5".
func isBareNumber(seg string) bool {
	if seg == "" || !unicode.IsDigit(rune(seg[0])) {
		return false
	}
	for _, r := range seg {
		if !unicode.IsDigit(r) && !unicode.IsLetter(r) && r != '-' {
			return false
		}
	}
	return true
}

// alternation builds a regex alternation, longest form first so "Strada"
// wins over "Str".
func alternation(forms []string) string {
	quoted := make([]string, 0, len(forms))
	for _, f := range forms {
		if f != "" {
			quoted = append(quoted, regexp.QuoteMeta(f))
		}
	}
	sort.Slice(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}
