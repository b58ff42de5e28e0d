// Package timber holds the wood species catalogue used to turn solved beam
// volumes into masses for dataset metadata.
package timber

import (
	"fmt"
	"sort"
	"strings"
)

// Species identifies a structural softwood or hardwood.
type Species string

const (
	Spruce Species = "SPRUCE"
	Fir    Species = "FIR"
	Oak    Species = "OAK"
	Pine   Species = "PINE"

	// Default is used when no species is configured.
	Default = Spruce
)

// Properties describes a species. Density is in kg/m³ at 12% moisture.
type Properties struct {
	Name          string
	Density       float64
	StrengthClass string // EN 338
}

var catalogue = map[Species]Properties{
	Spruce: {Name: "Norway Spruce (Fichte)", Density: 450, StrengthClass: "C24"},
	Fir:    {Name: "Silver Fir (Tanne)", Density: 460, StrengthClass: "C24"},
	Oak:    {Name: "European Oak (Eiche)", Density: 690, StrengthClass: "D40"},
	Pine:   {Name: "Scots Pine (Kiefer)", Density: 520, StrengthClass: "C24"},
}

// Lookup returns the properties of a species.
func Lookup(s Species) (Properties, bool) {
	p, ok := catalogue[s]
	return p, ok
}

// Parse resolves a species by its identifier, case-insensitively.
func Parse(name string) (Species, error) {
	s := Species(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := catalogue[s]; !ok {
		return "", fmt.Errorf("unknown wood species %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
	return s, nil
}

// Names lists all species identifiers in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for s := range catalogue {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}

// Mass returns the mass in kg of the given volume in m³.
// Unknown species fall back to the default density.
func Mass(s Species, volume float64) float64 {
	p, ok := catalogue[s]
	if !ok {
		p = catalogue[Default]
	}
	return p.Density * volume
}
