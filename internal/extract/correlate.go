package extract

import (
	"regexp"

	"adscout/listingworker/internal/listing"
)

// correlationCap bounds how many link/price pairs the generic strategy may
// produce; beyond that the in-order pairing assumption gets too shaky.
const correlationCap = 10

var (
	anchorRe = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"'#]+)["'][^>]*>(.*?)</a>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
)

// CorrelationStrategy independently collects anchor-text links and currency
// amounts in document order and pairs the i-th link with the i-th price.
// Listing pages interleave links and prices in source order, so the pairing
// holds for the first handful of results.
type CorrelationStrategy struct{}

func (s *CorrelationStrategy) Name() string { return "generic-correlation" }

func (s *CorrelationStrategy) Extract(rawText string, ectx Context) []listing.Candidate {
	limit := correlationCap
	if ectx.MaxCandidates < limit {
		limit = ectx.MaxCandidates
	}

	type link struct {
		href string
		text string
	}
	var links []link
	for _, m := range anchorRe.FindAllStringSubmatch(rawText, -1) {
		text := collapseSpace(tagRe.ReplaceAllString(m[2], " "))
		if len(text) < 4 || len(text) > 160 {
			continue
		}
		href := resolveURL(ectx.Source.URL, m[1])
		if href == "" {
			continue
		}
		links = append(links, link{href: href, text: text})
		if len(links) == limit {
			break
		}
	}

	var prices []int64
	for _, m := range currencyAmountRe.FindAllStringSubmatch(rawText, -1) {
		if p := parseAmount(m[1]); p > 0 {
			prices = append(prices, p)
		}
		if len(prices) == limit {
			break
		}
	}

	n := len(links)
	if len(prices) < n {
		n = len(prices)
	}

	var out []listing.Candidate
	for i := 0; i < n; i++ {
		out = append(out, listing.Candidate{
			Title:      links[i].text,
			Price:      prices[i],
			URL:        links[i].href,
			SourceName: ectx.Source.Name,
			Tier:       ectx.Source.Tier,
		})
	}
	return out
}
