// Package registry holds the catalog of discovered marketplace sources
// (tiers 2 and 3) and their running reliability scores.
package registry

import (
	"context"
	"fmt"

	"adscout/listingworker/internal/listing"
	"adscout/listingworker/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Reliability score adjustment. Success is rewarded faster than failure is
// punished so a source with transient failures is not discarded early; the
// clamp keeps scores from running away.
const (
	scoreFloor     = 0.1
	scoreCeiling   = 1.0
	successDelta   = 0.1
	failurePenalty = 0.05
)

// AdjustScore applies one outcome to a reliability score under the clamp.
func AdjustScore(score float64, success bool) float64 {
	if success {
		score += successDelta
		if score > scoreCeiling {
			score = scoreCeiling
		}
		return score
	}
	score -= failurePenalty
	if score < scoreFloor {
		score = scoreFloor
	}
	return score
}

// Registry reads tier-2/3 sources and adjusts their reliability scores.
// Sources are created and retired by the discovery collaborators, never
// here.
type Registry struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// New creates a registry backed by the given pool.
func New(pool *pgxpool.Pool) *Registry {
	return &Registry{
		pool: pool,
		log:  logger.ForRegistry(),
	}
}

// CandidateSources returns active sources matching the category (or having
// none), minus the persistent exclusion list, ordered by descending
// reliability. An empty category matches every source.
func (r *Registry) CandidateSources(ctx context.Context, category string) ([]listing.Source, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, url, name, tier, COALESCE(category, ''), reliability
		 FROM sources
		 WHERE is_active
		   AND ($1 = '' OR category IS NULL OR category = $1)
		   AND url NOT IN (SELECT url FROM source_exclusions)
		 ORDER BY reliability DESC, name ASC`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []listing.Source
	for rows.Next() {
		var s listing.Source
		if err := rows.Scan(&s.ID, &s.URL, &s.Name, &s.Tier, &s.Category, &s.Reliability); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		s.Active = true
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// RecordOutcome adjusts a source's reliability score after an attempt. The
// clamp runs inside the UPDATE so concurrent outcomes cannot lose updates.
// Fire-and-forget: failures are logged, never propagated.
func (r *Registry) RecordOutcome(ctx context.Context, sourceID string, success bool) {
	var err error
	if success {
		_, err = r.pool.Exec(ctx,
			`UPDATE sources SET reliability = LEAST($2::float8, reliability + $3) WHERE id = $1`,
			sourceID, scoreCeiling, successDelta,
		)
	} else {
		_, err = r.pool.Exec(ctx,
			`UPDATE sources SET reliability = GREATEST($2::float8, reliability - $3) WHERE id = $1`,
			sourceID, scoreFloor, failurePenalty,
		)
	}
	if err != nil {
		r.log.Warn().
			Str("source_id", sourceID).
			Bool("success", success).
			Err(err).
			Msg("Failed to record source outcome")
	}
}
