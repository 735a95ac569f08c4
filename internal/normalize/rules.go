package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules is the source-specific cleanup ruleset. It is data, not code: when
// the government list changes format, the ruleset changes, the normalizer
// does not.
type Rules struct {
	// CitySuffix is appended to every normalized address that does not
	// already end with it, to disambiguate the geocoding query.
	CitySuffix string `yaml:"city_suffix"`

	// StreetTypes maps the canonical street-type word to the abbreviations
	// seen in the source.
	StreetTypes []StreetType `yaml:"street_types"`

	// Number describes the street-number marker and its variants.
	Number Marker `yaml:"number"`

	// Sector describes the administrative-sector marker and its variants.
	Sector Marker `yaml:"sector"`

	// GluedMarkers are marker words the source sometimes glues straight onto
	// the street name ("Testnr 5"); a comma is inserted before them.
	GluedMarkers []string `yaml:"glued_markers"`
}

// StreetType is one canonical street-type word plus its source abbreviations.
type StreetType struct {
	Canonical     string   `yaml:"canonical"`
	Abbreviations []string `yaml:"abbreviations"`
}

// Marker is a canonical marker word plus its source variants.
type Marker struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// DefaultRules returns the ruleset for the current Bucharest family-medicine
// list format.
func DefaultRules() Rules {
	return Rules{
		CitySuffix: "Bucuresti",
		StreetTypes: []StreetType{
			{Canonical: "Strada", Abbreviations: []string{"Str", "Stra"}},
			{Canonical: "Bulevardul", Abbreviations: []string{"Bulevard", "Bd", "Bld", "B-dul"}},
			{Canonical: "Soseaua", Abbreviations: []string{"Sos"}},
			{Canonical: "Calea", Abbreviations: []string{"Cal"}},
			{Canonical: "Piata", Abbreviations: []string{"Pta"}},
			{Canonical: "Aleea", Abbreviations: []string{"Al"}},
			{Canonical: "Intrarea", Abbreviations: []string{"Intarea", "Intr", "Int"}},
			{Canonical: "Splaiul", Abbreviations: []string{"Spl"}},
			{Canonical: "Drumul", Abbreviations: []string{}},
		},
		Number: Marker{Canonical: "Numarul", Variants: []string{"Nr"}},
		Sector: Marker{Canonical: "Sector", Variants: []string{"Sect"}},
		GluedMarkers: []string{"nr"},
	}
}

// LoadRules reads a ruleset from a YAML file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrapf(err, "normalize: read rules %s", path)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, eris.Wrapf(err, "normalize: parse rules %s", path)
	}
	if r.CitySuffix == "" {
		return Rules{}, eris.Errorf("normalize: rules %s missing city_suffix", path)
	}
	return r, nil
}
