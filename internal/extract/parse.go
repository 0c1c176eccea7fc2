package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// currencyAmountRe matches currency-prefixed amounts, e.g. "$12,500" or
// "€1.299". The captured group is the bare amount.
var currencyAmountRe = regexp.MustCompile(`[$£€]\s?([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// parsePrice extracts the first currency amount from text as integer
// currency-agnostic units. Returns 0 when no amount is present.
func parsePrice(text string) int64 {
	m := currencyAmountRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return parseAmount(m[1])
}

// parseAmount converts a bare amount string ("12,500" or "1299.99") to
// integer units, truncating cents.
func parseAmount(amount string) int64 {
	amount = strings.ReplaceAll(amount, ",", "")
	if dot := strings.Index(amount, "."); dot >= 0 {
		amount = amount[:dot]
	}
	if amount == "" {
		return 0
	}
	v, err := strconv.ParseInt(amount, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// resolveURL resolves href against the source page URL, returning "" for
// unusable links.
func resolveURL(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}

	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// collapseSpace normalizes whitespace runs inside extracted text.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
