package pipeline

import (
	"context"

	"adscout/listingworker/internal/extract"
	"adscout/listingworker/internal/listing"
)

// Storage is the persistence surface the orchestrator needs; *store.Store
// satisfies it.
type Storage interface {
	ActiveSpecs(ctx context.Context) ([]listing.SearchSpec, error)
	SpecByID(ctx context.Context, id string) (listing.SearchSpec, error)
	TouchLastRun(ctx context.Context, id string) error
	UpsertListing(ctx context.Context, c listing.Candidate, specID string) (bool, error)
	AppendActivity(ctx context.Context, rec listing.ActivityRecord) error
}

// SourceCatalog is the registry surface; *registry.Registry satisfies it.
type SourceCatalog interface {
	CandidateSources(ctx context.Context, category string) ([]listing.Source, error)
	// RecordOutcome is fire-and-forget; implementations log their own
	// failures and never return them.
	RecordOutcome(ctx context.Context, sourceID string, success bool)
}

// Fetcher retrieves pages through the proxy layer; *helpers.Fetcher
// satisfies it.
type Fetcher interface {
	// Ready reports the fatal precondition: whether retrieval is possible
	// at all.
	Ready() error
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns a raw response into candidates; *extract.Engine
// satisfies it.
type Extractor interface {
	Extract(rawText string, ectx extract.Context) []listing.Candidate
}

// GeoEnricher resolves locations and enriches candidates; *geo.Resolver
// satisfies it.
type GeoEnricher interface {
	Resolve(ctx context.Context, location string) (float64, float64, error)
	Enrich(ctx context.Context, c *listing.Candidate, refLat, refLon float64)
}

// Classifier maps a spec to a category label, "" meaning uncategorized;
// *classify.Classifier satisfies it.
type Classifier interface {
	Classify(ctx context.Context, spec listing.SearchSpec) string
}

// Publisher forwards newly stored listings downstream; may be nil when no
// notifier is wired.
type Publisher interface {
	Publish(sourceName string, payload []byte) error
	TrimStream() error
}
