package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"adscout/listingworker/internal/classify"
	"adscout/listingworker/internal/extract"
	"adscout/listingworker/internal/geo"
	"adscout/listingworker/internal/listing"
	"adscout/listingworker/internal/pipeline"
	"adscout/listingworker/services/throttle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture mimicking a craigslist-style search results page. Prices straddle
// the test spec's band (15000 × 1.5 = 22500) and one row is irrelevant.
const searchResultsHTML = `
<!DOCTYPE html>
<html>
<head><title>Search results</title></head>
<body>
  <ul>
    <li class="cl-static-search-result">
      <a href="/cto/d/honda-civic/1.html">
        <div class="title">2018 Honda Civic Si</div>
        <div class="price">$15,900</div>
        <div class="location">Denver, CO</div>
      </a>
    </li>
    <li class="cl-static-search-result">
      <a href="/cto/d/honda-civic/2.html">
        <div class="title">2021 Honda Civic Touring, like new</div>
        <div class="price">$26,500</div>
        <div class="location">Denver, CO</div>
      </a>
    </li>
    <li class="cl-static-search-result">
      <a href="/cto/d/lawn-mower/3.html">
        <div class="title">Riding lawn mower</div>
        <div class="price">$900</div>
        <div class="location">Denver, CO</div>
      </a>
    </li>
  </ul>
</body>
</html>
`

// fixtureFetcher stands in for the proxy layer and serves the fixture for
// every source URL.
type fixtureFetcher struct {
	mu      sync.Mutex
	fetched []string
}

func (f *fixtureFetcher) Ready() error { return nil }

func (f *fixtureFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, url)
	f.mu.Unlock()
	return searchResultsHTML, nil
}

type memoryStore struct {
	mu      sync.Mutex
	specs   []listing.SearchSpec
	urls    map[string]bool
	stored  []listing.Candidate
	records []listing.ActivityRecord
}

func (s *memoryStore) ActiveSpecs(ctx context.Context) ([]listing.SearchSpec, error) {
	return s.specs, nil
}

func (s *memoryStore) SpecByID(ctx context.Context, id string) (listing.SearchSpec, error) {
	for _, spec := range s.specs {
		if spec.ID == id {
			return spec, nil
		}
	}
	return listing.SearchSpec{}, fmt.Errorf("spec %s not found", id)
}

func (s *memoryStore) TouchLastRun(ctx context.Context, id string) error { return nil }

func (s *memoryStore) UpsertListing(ctx context.Context, c listing.Candidate, specID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urls == nil {
		s.urls = make(map[string]bool)
	}
	if s.urls[c.URL] {
		return false, nil
	}
	s.urls[c.URL] = true
	s.stored = append(s.stored, c)
	return true, nil
}

func (s *memoryStore) AppendActivity(ctx context.Context, rec listing.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

type emptyCatalog struct{}

func (emptyCatalog) CandidateSources(ctx context.Context, category string) ([]listing.Source, error) {
	return nil, nil
}

func (emptyCatalog) RecordOutcome(ctx context.Context, sourceID string, success bool) {}

// TestPipelineEndToEnd drives one full run through the real extraction
// cascade, geocoder client, cool-down ledger and price band, with only the
// network edges replaced.
func TestPipelineEndToEnd(t *testing.T) {
	geocoder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"39.7392","lon":"-104.9903"}]`))
	}))
	defer geocoder.Close()

	store := &memoryStore{specs: []listing.SearchSpec{{
		ID:              "spec-1",
		Brand:           "Honda",
		Model:           "Civic",
		PriceThreshold:  15000,
		PriceMultiplier: 1.5,
		Active:          true,
	}}}
	fetcher := &fixtureFetcher{}

	orchestrator := pipeline.New(
		store,
		emptyCatalog{},
		fetcher,
		extract.NewEngine(false),
		geo.NewResolver(geocoder.URL, ""),
		classify.New("", ""),
		throttle.NewMemoryLedger(),
		nil,
		pipeline.Options{
			WorkerCount:            2,
			RequestDelay:           time.Millisecond,
			AggressiveDelay:        2 * time.Millisecond,
			RunTimeout:             10 * time.Second,
			MaxCandidatesPerSource: 10,
			HomeLatitude:           38.8339,
			HomeLongitude:          -104.8214,
		},
	)

	result := orchestrator.Run(context.Background(), "")

	assert.NoError(t, result.Err)
	assert.True(t, result.Success)
	// The four fixed tier-1 marketplaces, all served the same fixture
	assert.Equal(t, 4, result.SourcesProcessed)
	assert.Len(t, fetcher.fetched, 4)

	// Per source: the irrelevant row fails the relevance gate and the
	// $26,500 listing falls outside the band, leaving the $15,900 one.
	// URLs resolve against each marketplace's host, so all four survive
	// deduplication.
	assert.Equal(t, 4, result.ListingsFound)
	for _, c := range store.stored {
		assert.Contains(t, c.Title, "Honda Civic")
		assert.Equal(t, int64(15900), c.Price)
		require.NotNil(t, c.DistanceMiles)
		assert.Equal(t, geo.TierNear, geo.TierFor(*c.DistanceMiles))
	}

	// One started record, one terminal success record
	require.Len(t, store.records, 2)
	assert.Equal(t, listing.StatusStarted, store.records[0].Status)
	assert.Equal(t, listing.StatusSuccess, store.records[1].Status)
}
