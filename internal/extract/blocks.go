package extract

import (
	"strings"

	"adscout/listingworker/internal/listing"

	"github.com/PuerkitoBio/goquery"
)

// BlockSelectors describes the repeating listing containers for one
// marketplace family.
type BlockSelectors struct {
	Container string
	Title     string
	Link      string
	Price     string
	Location  string
	Image     string
	PostedAt  string
}

// familySelectors maps a marketplace family to its known block layout.
// Families cover the fixed tier-1 marketplaces; everything else goes
// through the generic guesses below.
var familySelectors = map[string]BlockSelectors{
	"craigslist": {
		Container: "li.cl-static-search-result",
		Title:     "div.title",
		Link:      "a",
		Price:     "div.price",
		Location:  "div.location",
	},
	"ebay": {
		Container: "li.s-item",
		Title:     "div.s-item__title, h3.s-item__title",
		Link:      "a.s-item__link",
		Price:     "span.s-item__price",
		Location:  "span.s-item__location, span.s-item__itemLocation",
		Image:     "img.s-item__image-img, div.s-item__image-wrapper img",
	},
	"offerup": {
		Container: "a[href*='/item/detail']",
		Title:     "span[class*='title'], h3",
		Price:     "span[class*='price']",
		Location:  "span[class*='location']",
		Image:     "img",
	},
	"marketplace": {
		Container: "div[data-testid='marketplace_search_result'], a[href*='/marketplace/item/']",
		Title:     "span[dir='auto']",
		Price:     "span[dir='auto']",
		Image:     "img",
	},
}

// genericSelectors are tried in order for sources with no known family;
// specialty classifieds sites reuse a handful of container conventions.
var genericSelectors = []BlockSelectors{
	{Container: "li.result-row", Title: "a.result-title", Link: "a.result-title", Price: "span.result-price", Location: "span.result-hood", Image: "img"},
	{Container: "div.listing, li.listing", Title: "h2, h3, a.title", Link: "a", Price: ".price", Location: ".location", Image: "img"},
	{Container: "div.ad-item, li.ad-item, div.ad-listing", Title: "a.title, h2 a, h3 a", Link: "a", Price: ".price, .ad-price", Location: ".location, .ad-location", Image: "img"},
	{Container: "article", Title: "h2 a, h3 a, h2, h3", Link: "a", Price: ".price", Location: ".location", Image: "img"},
}

// SiteBlockStrategy locates repeating listing containers by known
// class-name fragments for the source's marketplace family and extracts a
// title/price/link triplet from each.
type SiteBlockStrategy struct{}

func (s *SiteBlockStrategy) Name() string { return "site-blocks" }

func (s *SiteBlockStrategy) Extract(rawText string, ectx Context) []listing.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawText))
	if err != nil {
		return nil
	}

	if sel, ok := familySelectors[ectx.Source.Family]; ok {
		if out := extractBlocks(doc, sel, ectx); len(out) > 0 {
			return out
		}
	}

	for _, sel := range genericSelectors {
		if out := extractBlocks(doc, sel, ectx); len(out) > 0 {
			return out
		}
	}
	return nil
}

func extractBlocks(doc *goquery.Document, selectors BlockSelectors, ectx Context) []listing.Candidate {
	var out []listing.Candidate

	doc.Find(selectors.Container).EachWithBreak(func(_ int, container *goquery.Selection) bool {
		if c, ok := candidateFromBlock(container, selectors, ectx); ok {
			out = append(out, c)
		}
		return len(out) < ectx.MaxCandidates
	})

	return out
}

// candidateFromBlock extracts one candidate from a listing container. A
// block without a title, a link and a price is not a listing.
func candidateFromBlock(container *goquery.Selection, selectors BlockSelectors, ectx Context) (listing.Candidate, bool) {
	title := blockText(container, selectors.Title)
	if title == "" {
		return listing.Candidate{}, false
	}

	href := blockLink(container, selectors.Link)
	link := resolveURL(ectx.Source.URL, href)
	if link == "" {
		return listing.Candidate{}, false
	}

	priceText := blockText(container, selectors.Price)
	price := parsePrice(priceText)
	if price == 0 {
		// Some families render the bare amount without a currency symbol
		price = parseAmount(strings.TrimSpace(priceText))
	}
	if price <= 0 {
		return listing.Candidate{}, false
	}

	c := listing.Candidate{
		Title:      title,
		Price:      price,
		URL:        link,
		Location:   blockText(container, selectors.Location),
		PostedAt:   blockText(container, selectors.PostedAt),
		SourceName: ectx.Source.Name,
		Tier:       ectx.Source.Tier,
	}

	if selectors.Image != "" {
		if src, exists := container.Find(selectors.Image).First().Attr("src"); exists {
			c.ImageURL = resolveURL(ectx.Source.URL, src)
		}
	}

	return c, true
}

func blockText(container *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return collapseSpace(container.Find(selector).First().Text())
}

// blockLink finds the href, falling back to the container itself when it is
// the anchor (OfferUp-style card layouts).
func blockLink(container *goquery.Selection, selector string) string {
	if selector != "" {
		if href, exists := container.Find(selector).First().Attr("href"); exists {
			return href
		}
	}
	if href, exists := container.Attr("href"); exists {
		return href
	}
	return ""
}
