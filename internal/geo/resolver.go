// Package geo resolves free-text listing locations to coordinates and
// computes the great-circle distance from the searcher's reference point.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"adscout/listingworker/internal/listing"
	"adscout/listingworker/logger"
	apperr "adscout/listingworker/pkg/errors"
)

const earthRadiusMiles = 3959

// Haversine returns the great-circle distance between two points in miles.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

// Distance tiers for reporting. The boundary value belongs to the closer
// tier's range end: near is d <= 100, regional is 100 < d <= 500.
const (
	TierNear     = "near"
	TierRegional = "regional"
	TierDistant  = "distant"
)

// TierFor buckets a distance in miles into a reporting tier.
func TierFor(miles float64) string {
	switch {
	case miles <= 100:
		return TierNear
	case miles <= 500:
		return TierRegional
	default:
		return TierDistant
	}
}

// nonGeographic are location labels that name a venue rather than a place.
// Candidates carrying one get distance 0 and no coordinates by design.
var nonGeographic = map[string]bool{
	"ebay":                 true,
	"online":               true,
	"internet":             true,
	"nationwide":           true,
	"ships nationwide":     true,
	"usa":                  true,
	"united states":        true,
	"facebook marketplace": true,
	"marketplace":          true,
	"n/a":                  true,
	"unknown":              true,
}

// Resolver geocodes free-text locations via a Nominatim-style endpoint.
// Results are cached for the process lifetime; listing locations repeat
// heavily within a run.
type Resolver struct {
	endpoint string
	email    string
	client   *http.Client
	log      *logger.Logger

	mu    sync.Mutex
	cache map[string][2]float64
}

// NewResolver creates a resolver against the given geocoding endpoint. The
// email identifies the client to the service per its usage policy.
func NewResolver(endpoint, email string) *Resolver {
	return &Resolver{
		endpoint: endpoint,
		email:    email,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      logger.ForGeo(),
		cache:    make(map[string][2]float64),
	}
}

// Resolve geocodes a free-text location to coordinates.
func (r *Resolver) Resolve(ctx context.Context, location string) (float64, float64, error) {
	key := strings.ToLower(strings.TrimSpace(location))
	if key == "" {
		return 0, 0, apperr.NewGeocode(location, "empty location", nil)
	}

	r.mu.Lock()
	if coords, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return coords[0], coords[1], nil
	}
	r.mu.Unlock()

	lat, lon, err := r.geocode(ctx, location)
	if err != nil {
		return 0, 0, err
	}

	r.mu.Lock()
	r.cache[key] = [2]float64{lat, lon}
	r.mu.Unlock()

	return lat, lon, nil
}

// Enrich fills in the candidate's coordinates and distance from the
// reference point. Non-geographic labels get distance 0 and nil
// coordinates; geocoding failures leave the candidate un-enriched — both
// are kept, never dropped.
func (r *Resolver) Enrich(ctx context.Context, c *listing.Candidate, refLat, refLon float64) {
	label := strings.ToLower(strings.TrimSpace(c.Location))
	if label == "" || nonGeographic[label] {
		zero := 0.0
		c.DistanceMiles = &zero
		return
	}

	lat, lon, err := r.Resolve(ctx, c.Location)
	if err != nil {
		r.log.Debug().
			Str("location", c.Location).
			Err(err).
			Msg("Geocoding failed; keeping candidate without coordinates")
		return
	}

	distance := Haversine(refLat, refLon, lat, lon)
	c.Latitude = &lat
	c.Longitude = &lon
	c.DistanceMiles = &distance
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (r *Resolver) geocode(ctx context.Context, location string) (float64, float64, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("format", "json")
	params.Set("limit", "1")
	if r.email != "" {
		params.Set("email", r.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, apperr.NewGeocode(location, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "adscout-listingworker/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, 0, apperr.NewGeocode(location, "geocoding request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, apperr.NewGeocode(location, "failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, 0, apperr.NewGeocode(location, fmt.Sprintf("geocoder returned status %d", resp.StatusCode), nil)
	}

	var results []geocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return 0, 0, apperr.NewGeocode(location, "failed to parse response", err)
	}
	if len(results) == 0 {
		return 0, 0, apperr.NewGeocode(location, "no match", nil)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, apperr.NewGeocode(location, "invalid latitude in response", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, apperr.NewGeocode(location, "invalid longitude in response", err)
	}

	return lat, lon, nil
}
