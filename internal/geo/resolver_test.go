package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"adscout/listingworker/internal/listing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	// Denver to Colorado Springs is roughly 63 miles
	d := Haversine(39.7392, -104.9903, 38.8339, -104.8214)
	assert.InDelta(t, 63, d, 3)

	// Denver to Chicago is roughly 920 miles
	d = Haversine(39.7392, -104.9903, 41.8781, -87.6298)
	assert.InDelta(t, 920, d, 15)
}

func TestHaversineSymmetric(t *testing.T) {
	a := Haversine(39.7392, -104.9903, 41.8781, -87.6298)
	b := Haversine(41.8781, -87.6298, 39.7392, -104.9903)
	assert.InDelta(t, a, b, 0.0001)
}

func TestHaversineSamePoint(t *testing.T) {
	assert.InDelta(t, 0, Haversine(39.7392, -104.9903, 39.7392, -104.9903), 0.0001)
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierNear, TierFor(0))
	assert.Equal(t, TierNear, TierFor(99.9))
	// Boundary values belong to the closer tier
	assert.Equal(t, TierNear, TierFor(100))
	assert.Equal(t, TierRegional, TierFor(100.1))
	assert.Equal(t, TierRegional, TierFor(500))
	assert.Equal(t, TierDistant, TierFor(500.1))
	assert.Equal(t, TierDistant, TierFor(2000))
}

func geocoderStub(t *testing.T, hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		switch r.URL.Query().Get("q") {
		case "Denver, CO":
			w.Write([]byte(`[{"lat":"39.7392","lon":"-104.9903"}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
}

func TestResolve(t *testing.T) {
	server := geocoderStub(t, nil)
	defer server.Close()

	r := NewResolver(server.URL, "ops@example.com")
	lat, lon, err := r.Resolve(context.Background(), "Denver, CO")
	assert.NoError(t, err)
	assert.InDelta(t, 39.7392, lat, 0.0001)
	assert.InDelta(t, -104.9903, lon, 0.0001)
}

func TestResolveNoMatch(t *testing.T) {
	server := geocoderStub(t, nil)
	defer server.Close()

	r := NewResolver(server.URL, "")
	_, _, err := r.Resolve(context.Background(), "Nowhereville ZZZ")
	assert.Error(t, err)
}

func TestResolveCaches(t *testing.T) {
	var hits int32
	server := geocoderStub(t, &hits)
	defer server.Close()

	r := NewResolver(server.URL, "")
	for i := 0; i < 3; i++ {
		_, _, err := r.Resolve(context.Background(), "Denver, CO")
		assert.NoError(t, err)
	}
	// Case and whitespace variants share the cache entry
	_, _, err := r.Resolve(context.Background(), "  denver, co ")
	assert.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestEnrich(t *testing.T) {
	server := geocoderStub(t, nil)
	defer server.Close()

	r := NewResolver(server.URL, "")
	c := listing.Candidate{Title: "Honda Civic", Location: "Denver, CO"}

	// Reference point in Colorado Springs
	r.Enrich(context.Background(), &c, 38.8339, -104.8214)

	assert.NotNil(t, c.Latitude)
	assert.NotNil(t, c.Longitude)
	assert.NotNil(t, c.DistanceMiles)
	assert.InDelta(t, 63, *c.DistanceMiles, 3)
	assert.Equal(t, TierNear, TierFor(*c.DistanceMiles))
}

func TestEnrichNonGeographicLabel(t *testing.T) {
	server := geocoderStub(t, nil)
	defer server.Close()

	r := NewResolver(server.URL, "")

	for _, label := range []string{"eBay", "Online", "Nationwide", ""} {
		c := listing.Candidate{Title: "Honda Civic", Location: label}
		r.Enrich(context.Background(), &c, 39.7392, -104.9903)

		assert.Nil(t, c.Latitude, "label %q", label)
		assert.Nil(t, c.Longitude, "label %q", label)
		if assert.NotNil(t, c.DistanceMiles, "label %q", label) {
			assert.Equal(t, 0.0, *c.DistanceMiles)
		}
	}
}

func TestEnrichKeepsCandidateOnFailure(t *testing.T) {
	server := geocoderStub(t, nil)
	defer server.Close()

	r := NewResolver(server.URL, "")
	c := listing.Candidate{Title: "Honda Civic", Location: "Nowhereville ZZZ", Price: 9000}

	r.Enrich(context.Background(), &c, 39.7392, -104.9903)

	// Un-enriched but untouched otherwise
	assert.Nil(t, c.Latitude)
	assert.Nil(t, c.DistanceMiles)
	assert.Equal(t, int64(9000), c.Price)
}
