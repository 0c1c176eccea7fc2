package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"adscout/listingworker/internal/listing"
)

// AppendActivity writes one audit record. The log is append-only; records
// are never mutated after write.
func (s *Store) AppendActivity(ctx context.Context, rec listing.ActivityRecord) error {
	var metadata any
	if len(rec.Metadata) > 0 {
		encoded, err := json.Marshal(rec.Metadata)
		if err != nil {
			// Metadata is best-effort detail; keep the record itself
			s.log.Warn().Err(err).Msg("Failed to encode activity metadata")
		} else {
			metadata = encoded
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO activity_log
		   (module, search_spec_id, status, message, listings_found,
		    sources_processed, duration_ms, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.Module, nullable(rec.SearchSpecID), rec.Status, rec.Message,
		rec.ListingsFound, rec.SourcesProcessed, rec.Duration.Milliseconds(), metadata,
	)
	if err != nil {
		return fmt.Errorf("insert activity record: %w", err)
	}
	return nil
}

// RecentActivity returns the newest records, optionally filtered by module
// and status. Consumed by the dashboard collaborator.
func (s *Store) RecentActivity(ctx context.Context, module, status string, limit int) ([]listing.ActivityRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, module, COALESCE(search_spec_id::text, ''), status, message,
		        listings_found, sources_processed, duration_ms, metadata, created_at
		 FROM activity_log
		 WHERE ($1 = '' OR module = $1)
		   AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`,
		module, status, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity_log: %w", err)
	}
	defer rows.Close()

	var records []listing.ActivityRecord
	for rows.Next() {
		var rec listing.ActivityRecord
		var durationMs int64
		var metadata []byte
		var createdAt time.Time
		if err := rows.Scan(
			&rec.ID, &rec.Module, &rec.SearchSpecID, &rec.Status, &rec.Message,
			&rec.ListingsFound, &rec.SourcesProcessed, &durationMs, &metadata, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan activity record: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.CreatedAt = createdAt
		if len(metadata) > 0 {
			_ = json.Unmarshal(metadata, &rec.Metadata)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
