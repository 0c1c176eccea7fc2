package extract

import (
	"math"
	"strings"
)

// significantWords returns the search term's words longer than two
// characters, lowercased.
func significantWords(term string) []string {
	var words []string
	for _, w := range strings.Fields(term) {
		if len(w) > 2 {
			words = append(words, strings.ToLower(w))
		}
	}
	return words
}

// Relevant reports whether a candidate title matches the search term. At
// least ceil(n × 0.5) of the term's significant words must appear as
// case-insensitive substrings of the title. A coarse precision gate:
// false negatives are acceptable, false positives are not.
func Relevant(term, title string) bool {
	words := significantWords(term)
	if len(words) == 0 {
		return true
	}

	required := int(math.Ceil(float64(len(words)) * 0.5))
	lowerTitle := strings.ToLower(title)

	matched := 0
	for _, w := range words {
		if strings.Contains(lowerTitle, w) {
			matched++
		}
	}
	return matched >= required
}
