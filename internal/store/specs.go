package store

import (
	"context"
	"fmt"

	"adscout/listingworker/internal/listing"
)

const specColumns = `id, brand, model, COALESCE(qualifier, ''), COALESCE(sub_qualifier, ''),
	COALESCE(year_min, 0), COALESCE(year_max, 0), price_threshold, price_multiplier,
	COALESCE(location, ''), is_active, last_run_at`

// ActiveSpecs returns all search specs the pipeline should process.
func (s *Store) ActiveSpecs(ctx context.Context) ([]listing.SearchSpec, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+specColumns+` FROM search_specs WHERE is_active ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query search_specs: %w", err)
	}
	defer rows.Close()

	var specs []listing.SearchSpec
	for rows.Next() {
		spec, err := scanSpec(rows)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, rows.Err()
}

// SpecByID returns one search spec regardless of its active flag; targeted
// invocations may run an inactive spec deliberately.
func (s *Store) SpecByID(ctx context.Context, id string) (listing.SearchSpec, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+specColumns+` FROM search_specs WHERE id = $1`, id,
	)
	return scanSpec(row)
}

// TouchLastRun is the pipeline's only write to a search spec.
func (s *Store) TouchLastRun(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE search_specs SET last_run_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("touch last_run_at: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpec(row rowScanner) (listing.SearchSpec, error) {
	var spec listing.SearchSpec
	err := row.Scan(
		&spec.ID, &spec.Brand, &spec.Model, &spec.Qualifier, &spec.SubQualifier,
		&spec.YearMin, &spec.YearMax, &spec.PriceThreshold, &spec.PriceMultiplier,
		&spec.Location, &spec.Active, &spec.LastRunAt,
	)
	if err != nil {
		return listing.SearchSpec{}, fmt.Errorf("scan search_spec: %w", err)
	}
	return spec, nil
}
