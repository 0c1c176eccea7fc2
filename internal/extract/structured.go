package extract

import (
	"encoding/json"
	"strings"

	"adscout/listingworker/internal/listing"

	"github.com/PuerkitoBio/goquery"
)

// StructuredDataStrategy looks for embedded JSON-LD product/offer metadata.
// First in the cascade: when a marketplace ships machine-readable data,
// nothing else is worth guessing at.
type StructuredDataStrategy struct{}

func (s *StructuredDataStrategy) Name() string { return "structured-data" }

// ldNode is a loose view of a JSON-LD node; marketplaces nest products in
// several shapes (@graph, ItemList, bare arrays).
type ldNode struct {
	Type            json.RawMessage `json:"@type"`
	Graph           []ldNode        `json:"@graph"`
	ItemListElement []ldItem        `json:"itemListElement"`
	Name            string          `json:"name"`
	URL             string          `json:"url"`
	Image           json.RawMessage `json:"image"`
	Offers          json.RawMessage `json:"offers"`
}

type ldItem struct {
	Item *ldNode `json:"item"`
	URL  string  `json:"url"`
	Name string  `json:"name"`
}

type ldOffer struct {
	Price         json.RawMessage `json:"price"`
	PriceCurrency string          `json:"priceCurrency"`
}

func (s *StructuredDataStrategy) Extract(rawText string, ectx Context) []listing.Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawText))
	if err != nil {
		return nil
	}

	var out []listing.Candidate
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, node := range parseLD(sel.Text()) {
			if c, ok := candidateFromLD(node, ectx); ok {
				out = append(out, c)
			}
		}
		return len(out) < ectx.MaxCandidates
	})

	if len(out) > ectx.MaxCandidates {
		out = out[:ectx.MaxCandidates]
	}
	return out
}

// parseLD flattens one script block into product-bearing nodes. Both a
// single object and a top-level array are accepted.
func parseLD(raw string) []ldNode {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var nodes []ldNode
	var single ldNode
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		nodes = append(nodes, single)
	} else {
		var many []ldNode
		if err := json.Unmarshal([]byte(raw), &many); err != nil {
			return nil
		}
		nodes = append(nodes, many...)
	}

	var flat []ldNode
	for _, n := range nodes {
		flat = append(flat, n)
		flat = append(flat, n.Graph...)
		for _, item := range n.ItemListElement {
			if item.Item != nil {
				flat = append(flat, *item.Item)
			}
		}
	}
	return flat
}

// candidateFromLD converts a product node with a priced offer into a
// candidate. Nodes without both a title and a numeric price are skipped.
func candidateFromLD(node ldNode, ectx Context) (listing.Candidate, bool) {
	if !isProductType(node.Type) {
		return listing.Candidate{}, false
	}

	title := collapseSpace(node.Name)
	if title == "" {
		return listing.Candidate{}, false
	}

	price := offerPrice(node.Offers)
	if price <= 0 {
		return listing.Candidate{}, false
	}

	candURL := resolveURL(ectx.Source.URL, node.URL)
	if candURL == "" {
		candURL = ectx.Source.URL
	}

	return listing.Candidate{
		Title:      title,
		Price:      price,
		URL:        candURL,
		ImageURL:   firstString(node.Image),
		SourceName: ectx.Source.Name,
		Tier:       ectx.Source.Tier,
	}, true
}

func isProductType(raw json.RawMessage) bool {
	if raw == nil {
		return false
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return one == "Product" || one == "Offer" || one == "Car" || one == "Vehicle"
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		for _, t := range many {
			if t == "Product" || t == "Offer" || t == "Car" || t == "Vehicle" {
				return true
			}
		}
	}
	return false
}

// offerPrice digs the numeric price out of the offers field, which may be
// an object, an array of objects, a string, or a number.
func offerPrice(raw json.RawMessage) int64 {
	if raw == nil {
		return 0
	}

	var one ldOffer
	if err := json.Unmarshal(raw, &one); err == nil {
		if p := rawPrice(one.Price); p > 0 {
			return p
		}
	}

	var many []ldOffer
	if err := json.Unmarshal(raw, &many); err == nil {
		for _, o := range many {
			if p := rawPrice(o.Price); p > 0 {
				return p
			}
		}
	}
	return 0
}

func rawPrice(raw json.RawMessage) int64 {
	if raw == nil {
		return 0
	}
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		return int64(num)
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return parseAmount(strings.TrimSpace(str))
	}
	return 0
}

// firstString reads a JSON value that may be a string or an array of
// strings, returning the first entry.
func firstString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0]
	}
	return ""
}
