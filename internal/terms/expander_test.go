package terms

import (
	"testing"

	"adscout/listingworker/internal/listing"

	"github.com/stretchr/testify/assert"
)

func TestExpandFullSpec(t *testing.T) {
	spec := listing.SearchSpec{
		Brand:        "Honda",
		Model:        "Civic",
		Qualifier:    "Si",
		SubQualifier: "coupe",
	}

	got := Expand(spec)

	assert.Equal(t, []string{
		"Honda Civic",
		"Honda Civic Si",
		"Honda Civic coupe",
		"Honda Civic Si coupe",
		"Honda",
		"Civic",
	}, got)
}

func TestExpandWithoutQualifiers(t *testing.T) {
	spec := listing.SearchSpec{Brand: "Fender", Model: "Stratocaster"}

	got := Expand(spec)

	assert.Equal(t, []string{
		"Fender Stratocaster",
		"Fender",
		"Stratocaster",
	}, got)
}

func TestExpandDeduplicates(t *testing.T) {
	// Model repeated in the qualifier must not produce a duplicate term.
	spec := listing.SearchSpec{
		Brand:     "Weber",
		Model:     "Genesis",
		Qualifier: "Genesis",
	}

	got := Expand(spec)

	seen := make(map[string]int)
	for _, term := range got {
		seen[term]++
	}
	for term, count := range seen {
		assert.Equal(t, 1, count, "duplicate term %q", term)
	}
	assert.Equal(t, "Weber Genesis", got[0])
}

func TestExpandCollapsesWhitespace(t *testing.T) {
	spec := listing.SearchSpec{
		Brand: "  DeWalt ",
		Model: " DCD791   ",
	}

	got := Expand(spec)

	assert.Equal(t, "DeWalt DCD791", got[0])
	assert.Contains(t, got, "DeWalt")
	assert.Contains(t, got, "DCD791")
}

func TestExpandBrandOnly(t *testing.T) {
	spec := listing.SearchSpec{Brand: "Thule"}

	got := Expand(spec)

	assert.Equal(t, []string{"Thule"}, got)
}

func TestExpandEmptySpec(t *testing.T) {
	got := Expand(listing.SearchSpec{})

	assert.Empty(t, got)
}
