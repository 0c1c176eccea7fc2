// Package terms builds the ordered list of query-string variants for a
// search spec, most specific first.
package terms

import (
	"strings"

	"adscout/listingworker/internal/listing"
)

// Expand returns the deduplicated search terms for a spec, ordered from most
// to least specific: "brand model", then with the qualifier appended, then
// the sub-qualifier, then both, then brand alone, then model alone.
func Expand(spec listing.SearchSpec) []string {
	brand := strings.TrimSpace(spec.Brand)
	model := strings.TrimSpace(spec.Model)
	qualifier := strings.TrimSpace(spec.Qualifier)
	sub := strings.TrimSpace(spec.SubQualifier)

	base := strings.TrimSpace(brand + " " + model)

	seen := make(map[string]bool)
	var out []string
	add := func(term string) {
		term = strings.Join(strings.Fields(term), " ")
		if term == "" || seen[term] {
			return
		}
		seen[term] = true
		out = append(out, term)
	}

	add(base)
	if qualifier != "" {
		add(base + " " + qualifier)
	}
	if sub != "" {
		add(base + " " + sub)
	}
	if qualifier != "" && sub != "" {
		add(base + " " + qualifier + " " + sub)
	}
	add(brand)
	add(model)

	return out
}
