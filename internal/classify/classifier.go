// Package classify calls the opaque categorization service that maps a
// product search to a single category label. The category only narrows
// which registry sources are considered; a failure degrades to an
// uncategorized pass-through and is never fatal.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"adscout/listingworker/internal/listing"
	"adscout/listingworker/logger"
)

// Categories is the fixed enumeration the service may return. Anything
// else is treated as uncategorized.
var Categories = []string{
	"vehicles",
	"electronics",
	"furniture",
	"appliances",
	"tools",
	"sporting",
	"music",
	"general",
}

// Valid reports whether category is a member of the fixed enumeration.
func Valid(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Classifier is the HTTP client for the categorization service.
type Classifier struct {
	url    string
	key    string
	client *http.Client
	log    *logger.Logger
}

// New constructs a classifier. When url or key is empty, Classify silently
// returns the uncategorized pass-through.
func New(serviceURL, key string) *Classifier {
	return &Classifier{
		url:    serviceURL,
		key:    key,
		client: &http.Client{Timeout: 20 * time.Second},
		log:    logger.ForPipeline().WithField("subsystem", "classify"),
	}
}

type classifyRequest struct {
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Qualifier    string `json:"qualifier,omitempty"`
	SubQualifier string `json:"sub_qualifier,omitempty"`
}

type classifyResponse struct {
	Category string `json:"category"`
}

// Classify returns the category for a search spec, or "" when the service
// is unconfigured, unreachable, or answers outside the enumeration.
func (c *Classifier) Classify(ctx context.Context, spec listing.SearchSpec) string {
	if c.url == "" || c.key == "" {
		c.log.Debug().Msg("Classifier not configured; treating spec as uncategorized")
		return ""
	}

	payload, err := json.Marshal(classifyRequest{
		Brand:        spec.Brand,
		Model:        spec.Model,
		Qualifier:    spec.Qualifier,
		SubQualifier: spec.SubQualifier,
	})
	if err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("Classification request failed; continuing uncategorized")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("Classifier returned non-200; continuing uncategorized")
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.log.Warn().Err(err).Msg("Unparseable classifier response; continuing uncategorized")
		return ""
	}

	if !Valid(parsed.Category) {
		c.log.Warn().Str("category", parsed.Category).Msg("Classifier answered outside the enumeration")
		return ""
	}
	return parsed.Category
}
