package store

import (
	"context"

	"adscout/listingworker/internal/listing"
	apperr "adscout/listingworker/pkg/errors"
)

// UpsertListing persists a candidate for a search spec. The canonical URL
// is the dedup key: re-discovering a stored URL is a successful no-op, the
// existing row stays authoritative. Returns true when a new row was
// inserted.
func (s *Store) UpsertListing(ctx context.Context, c listing.Candidate, specID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO listings
		   (url, title, price, location, source_name, tier, image_url, posted_at,
		    latitude, longitude, distance_miles, search_spec_id, synthetic)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (url) DO NOTHING`,
		c.URL, c.Title, c.Price, nullable(c.Location), c.SourceName, c.Tier,
		nullable(c.ImageURL), nullable(c.PostedAt),
		c.Latitude, c.Longitude, c.DistanceMiles, specID, c.Synthetic,
	)
	if err != nil {
		return false, apperr.NewStorage(c.SourceName, "failed to insert listing", err)
	}
	return tag.RowsAffected() > 0, nil
}

// nullable maps empty strings to NULL so optional columns stay clean.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
