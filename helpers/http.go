package helpers

import (
	"bytes"
	"context"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"slices"
	"time"

	apperr "adscout/listingworker/pkg/errors"

	"golang.org/x/net/html/charset"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}
)

// Fetcher retrieves marketplace pages through the configured outbound proxy
// service. Every request carries browser-like headers and the response body
// is normalized to UTF-8.
type Fetcher struct {
	proxyURL string
	proxyKey string
	client   *http.Client
}

// NewFetcher creates a fetcher routed through the proxy service at proxyURL
// authenticated with proxyKey.
func NewFetcher(proxyURL, proxyKey string) *Fetcher {
	return &Fetcher{
		proxyURL: proxyURL,
		proxyKey: proxyKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Ready reports whether the fetcher can make requests at all. A missing
// proxy credential is the pipeline's single fatal precondition.
func (f *Fetcher) Ready() error {
	if f.proxyKey == "" {
		return apperr.NewConfiguration("SCRAPE_PROXY_KEY is not set; retrieval is impossible", nil)
	}
	if f.proxyURL == "" {
		return apperr.NewConfiguration("SCRAPE_PROXY_URL is not set", nil)
	}
	return nil
}

// Fetch retrieves the target URL through the proxy and returns the response
// body as a UTF-8 string. Non-2xx responses and transport failures are
// reported as distinct error types.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	if err := f.Ready(); err != nil {
		return "", err
	}

	proxied := f.proxyURL + "?api_key=" + url.QueryEscape(f.proxyKey) + "&url=" + url.QueryEscape(target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxied, nil)
	if err != nil {
		return "", apperr.NewNetwork(target, "failed to create request", err)
	}

	// Browser-like headers; some marketplaces reject obvious automation
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	req.Header.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("referer", referers[rnd.Intn(len(referers))])
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("upgrade-insecure-requests", "1")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-User", "?1")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperr.NewNetwork(target, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return "", apperr.NewRateLimit(target, resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperr.NewHTTPStatus(target, resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.NewNetwork(target, "failed to read response body", err)
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return string(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return "", apperr.NewParsing(target, "failed to convert body to UTF-8", err)
	}

	return buf.String(), nil
}
