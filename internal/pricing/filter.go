// Package pricing applies the search spec's price band to extracted
// candidates.
package pricing

import (
	"math"

	"adscout/listingworker/internal/listing"
)

// MaxPrice computes the band's upper bound, round(threshold × multiplier).
func MaxPrice(threshold int64, multiplier float64) int64 {
	return int64(math.Round(float64(threshold) * multiplier))
}

// Filter returns the candidates priced within (0, round(threshold ×
// multiplier)]. Candidates falling outside the band are a data-quality
// drop, not an error.
func Filter(candidates []listing.Candidate, threshold int64, multiplier float64) []listing.Candidate {
	max := MaxPrice(threshold, multiplier)

	var kept []listing.Candidate
	for _, c := range candidates {
		if c.Price > 0 && c.Price <= max {
			kept = append(kept, c)
		}
	}
	return kept
}
