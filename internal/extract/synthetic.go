package extract

import (
	"fmt"
	"net/url"

	"adscout/listingworker/internal/listing"
)

// deepLinkTargets are the large marketplaces a synthetic candidate can
// point into when a page yields nothing extractable.
var deepLinkTargets = []struct {
	name     string
	template string
}{
	{"eBay", "https://www.ebay.com/sch/i.html?_nkw=%s"},
	{"Craigslist", "https://www.craigslist.org/search/sss?query=%s"},
	{"Facebook Marketplace", "https://www.facebook.com/marketplace/search/?query=%s"},
}

// SyntheticFallbackStrategy emits deep-link search URLs into well-known
// marketplaces as clearly tagged placeholder candidates. Last in the
// cascade and config-gated: it only runs when every real strategy came up
// empty, and never by default.
type SyntheticFallbackStrategy struct{}

func (s *SyntheticFallbackStrategy) Name() string { return "synthetic-fallback" }

func (s *SyntheticFallbackStrategy) Extract(rawText string, ectx Context) []listing.Candidate {
	var out []listing.Candidate
	for _, target := range deepLinkTargets {
		if len(out) == ectx.MaxCandidates {
			break
		}
		out = append(out, listing.Candidate{
			Title:      fmt.Sprintf("%s search on %s", ectx.Term, target.name),
			URL:        fmt.Sprintf(target.template, url.QueryEscape(ectx.Term)),
			SourceName: ectx.Source.Name,
			Tier:       ectx.Source.Tier,
			Synthetic:  true,
		})
	}
	return out
}
