// Package extract converts raw marketplace responses into candidate
// listings using a cascade of pattern strategies in fixed priority order.
package extract

import "adscout/listingworker/internal/listing"

// SourceRef identifies the marketplace a response came from.
type SourceRef struct {
	Name string
	URL  string
	Tier int
	// Family selects the site-specific block selectors; empty falls back
	// to the generic container guesses.
	Family string
}

// Context carries the per-extraction inputs shared by all strategies.
type Context struct {
	Source SourceRef
	// Term is the search term this response was retrieved for; the
	// relevance gate checks candidate titles against it.
	Term string
	// MaxCandidates caps the number of candidates returned per source.
	MaxCandidates int
}

// Strategy extracts candidates from a raw response. Strategies are pure:
// same input, same output, no I/O.
type Strategy interface {
	Name() string
	Extract(rawText string, ectx Context) []listing.Candidate
}
