package listing

import (
	"math"
	"time"
)

// Source tiers. Tier-1 marketplaces are fixed and never stored in the
// registry; tiers 2 and 3 are written by the discovery collaborators.
const (
	TierMajor     = 1
	TierSpecialty = 2
	TierNovel     = 3
)

// SearchSpec describes one configured product search. Specs are created by
// the configuration surface; the pipeline only reads them and touches the
// last-run timestamp.
type SearchSpec struct {
	ID              string
	Brand           string
	Model           string
	Qualifier       string
	SubQualifier    string
	YearMin         int
	YearMax         int
	PriceThreshold  int64
	PriceMultiplier float64
	Location        string
	Active          bool
	LastRunAt       *time.Time
}

// MaxPrice returns the upper bound of the spec's price band,
// round(threshold × multiplier).
func (s SearchSpec) MaxPrice() int64 {
	return int64(math.Round(float64(s.PriceThreshold) * s.PriceMultiplier))
}

// Source is a registry-backed marketplace (tier 2 or 3) with a running
// reliability score in [0.1, 1.0].
type Source struct {
	ID          string
	URL         string
	Name        string
	Tier        int
	Category    string
	Reliability float64
	Active      bool
}

// Candidate is an unpersisted listing extracted from a single source
// response. The geo resolver fills in coordinates and distance; both stay
// nil when the location could not be resolved.
type Candidate struct {
	Title         string
	Price         int64
	Location      string
	URL           string
	SourceName    string
	Tier          int
	ImageURL      string
	PostedAt      string
	Synthetic     bool
	Latitude      *float64
	Longitude     *float64
	DistanceMiles *float64
}

// Activity log statuses. A run writes exactly one started record and one
// terminal record.
const (
	StatusStarted        = "started"
	StatusSuccess        = "success"
	StatusPartialSuccess = "partial_success"
	StatusFailure        = "failure"
)

// ActivityRecord is one append-only audit entry describing a pipeline
// invocation's lifecycle.
type ActivityRecord struct {
	ID               int64
	Module           string
	SearchSpecID     string
	Status           string
	Message          string
	ListingsFound    int
	SourcesProcessed int
	Duration         time.Duration
	Metadata         map[string]interface{}
	CreatedAt        time.Time
}
