package helpers

import (
	"net/url"
	"strings"
)

// Domain returns the host of a URL, used as the throttle ledger key. An
// unparseable URL falls back to the raw string so throttling still applies.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// trackingParams are query parameters that vary between discoveries of the
// same listing and must not defeat URL-based deduplication.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"fbclid":       true,
	"gclid":        true,
	"ref":          true,
}

// CanonicalURL normalizes a listing URL into the dedup key: lowercased
// scheme and host, fragment removed, tracking parameters stripped, trailing
// slash dropped.
func CanonicalURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.TrimSpace(rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		if trackingParams[strings.ToLower(param)] {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	canonical := u.String()
	if strings.HasSuffix(u.Path, "/") && u.RawQuery == "" {
		canonical = strings.TrimSuffix(canonical, "/")
	}
	return canonical
}
