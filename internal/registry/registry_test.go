package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustScoreSuccess(t *testing.T) {
	assert.InDelta(t, 0.6, AdjustScore(0.5, true), 0.0001)
	// Clamped at the ceiling
	assert.InDelta(t, 1.0, AdjustScore(0.95, true), 0.0001)
	assert.InDelta(t, 1.0, AdjustScore(1.0, true), 0.0001)
}

func TestAdjustScoreFailure(t *testing.T) {
	assert.InDelta(t, 0.45, AdjustScore(0.5, false), 0.0001)
	// Clamped at the floor
	assert.InDelta(t, 0.1, AdjustScore(0.12, false), 0.0001)
	assert.InDelta(t, 0.1, AdjustScore(0.1, false), 0.0001)
}

func TestAdjustScoreConverges(t *testing.T) {
	// Repeated successes converge to 1.0
	score := 0.5
	for i := 0; i < 20; i++ {
		score = AdjustScore(score, true)
	}
	assert.InDelta(t, 1.0, score, 0.0001)

	// Repeated failures converge to the floor, never below
	for i := 0; i < 50; i++ {
		score = AdjustScore(score, false)
	}
	assert.InDelta(t, 0.1, score, 0.0001)
}

func TestTier1Sources(t *testing.T) {
	sources := Tier1Sources()
	assert.Len(t, sources, 4)

	names := make(map[string]Tier1Source)
	for _, s := range sources {
		names[s.Name] = s
	}
	assert.Contains(t, names, "Craigslist")
	assert.Contains(t, names, "eBay")
	assert.Contains(t, names, "OfferUp")
	assert.Contains(t, names, "Facebook Marketplace")

	// The heavily policed marketplaces get the longer cool-down
	assert.False(t, names["Craigslist"].Aggressive)
	assert.False(t, names["eBay"].Aggressive)
	assert.True(t, names["OfferUp"].Aggressive)
	assert.True(t, names["Facebook Marketplace"].Aggressive)
}

func TestSearchFor(t *testing.T) {
	s := Tier1Source{
		Name:      "eBay",
		SearchURL: "https://www.ebay.com/sch/i.html?_nkw=%s",
	}

	assert.Equal(t,
		"https://www.ebay.com/sch/i.html?_nkw=Honda+Civic+Si",
		s.SearchFor("Honda Civic Si"),
	)
	assert.Equal(t,
		"https://www.ebay.com/sch/i.html?_nkw=caf%C3%A9+racer",
		s.SearchFor("café racer"),
	)
}
