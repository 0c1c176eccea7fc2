package registry

import (
	"fmt"
	"net/url"
)

// Tier1Source is one of the fixed major marketplaces. Tier-1 sources are
// not registry rows: they are always searched on the primary run,
// unconditionally.
type Tier1Source struct {
	Name      string
	SearchURL string // fmt template with one %s for the escaped term
	Family    string
	// Aggressive marks hosts known to police automated access hard;
	// the pipeline uses the longer cool-down for them.
	Aggressive bool
}

// SearchFor returns the marketplace's search URL for a term.
func (s Tier1Source) SearchFor(term string) string {
	return fmt.Sprintf(s.SearchURL, url.QueryEscape(term))
}

// Tier1Sources returns the fixed major-marketplace set.
func Tier1Sources() []Tier1Source {
	return []Tier1Source{
		{
			Name:      "Craigslist",
			SearchURL: "https://www.craigslist.org/search/sss?query=%s",
			Family:    "craigslist",
		},
		{
			Name:      "eBay",
			SearchURL: "https://www.ebay.com/sch/i.html?_nkw=%s",
			Family:    "ebay",
		},
		{
			Name:       "OfferUp",
			SearchURL:  "https://offerup.com/search?q=%s",
			Family:     "offerup",
			Aggressive: true,
		},
		{
			Name:       "Facebook Marketplace",
			SearchURL:  "https://www.facebook.com/marketplace/search/?query=%s",
			Family:     "marketplace",
			Aggressive: true,
		},
	}
}
