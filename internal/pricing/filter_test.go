package pricing

import (
	"testing"

	"adscout/listingworker/internal/listing"

	"github.com/stretchr/testify/assert"
)

func TestMaxPrice(t *testing.T) {
	assert.Equal(t, int64(22500), MaxPrice(15000, 1.5))
	assert.Equal(t, int64(15000), MaxPrice(15000, 1.0))
	assert.Equal(t, int64(500), MaxPrice(1000, 0.5))
	// Rounds half away from zero
	assert.Equal(t, int64(13), MaxPrice(10, 1.25))
}

func TestFilterKeepsWithinBand(t *testing.T) {
	candidates := []listing.Candidate{
		{Title: "at the threshold", Price: 15000},
		{Title: "inside the band", Price: 20000},
		{Title: "exactly at the bound", Price: 22500},
		{Title: "just above the bound", Price: 22501},
	}

	kept := Filter(candidates, 15000, 1.5)

	assert.Len(t, kept, 3)
	for _, c := range kept {
		assert.LessOrEqual(t, c.Price, int64(22500))
	}
}

func TestFilterDropsUnpriced(t *testing.T) {
	candidates := []listing.Candidate{
		{Title: "no price extracted", Price: 0},
		{Title: "priced", Price: 100},
	}

	kept := Filter(candidates, 1000, 1.0)

	assert.Len(t, kept, 1)
	assert.Equal(t, "priced", kept[0].Title)
}

func TestFilterEmptyInput(t *testing.T) {
	assert.Empty(t, Filter(nil, 1000, 1.5))
	assert.Empty(t, Filter([]listing.Candidate{}, 1000, 1.5))
}
