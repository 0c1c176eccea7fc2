package store

import (
	"context"
	"fmt"
)

// Schema contains the complete DDL for the pipeline tables.
const Schema = `
-- Configured product searches; the pipeline reads them and touches last_run_at
CREATE TABLE IF NOT EXISTS search_specs (
    id               UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    brand            TEXT NOT NULL,
    model            TEXT NOT NULL,
    qualifier        TEXT,
    sub_qualifier    TEXT,
    year_min         INTEGER,
    year_max         INTEGER,
    price_threshold  BIGINT NOT NULL,
    price_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    location         TEXT,
    is_active        BOOLEAN NOT NULL DEFAULT true,
    last_run_at      TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_search_specs_active ON search_specs(is_active);

-- Tier-2/3 marketplace sources written by the discovery collaborators
CREATE TABLE IF NOT EXISTS sources (
    id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    url         TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    tier        INTEGER NOT NULL,
    category    TEXT,
    reliability DOUBLE PRECISION NOT NULL DEFAULT 0.5,
    is_active   BOOLEAN NOT NULL DEFAULT true,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_sources_reliability ON sources(reliability DESC);
CREATE INDEX IF NOT EXISTS idx_sources_category ON sources(category);

-- Persistently blocked source URLs
CREATE TABLE IF NOT EXISTS source_exclusions (
    url        TEXT PRIMARY KEY,
    reason     TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Discovered listings; the canonical URL is the dedup key
CREATE TABLE IF NOT EXISTS listings (
    id             BIGSERIAL PRIMARY KEY,
    url            TEXT NOT NULL UNIQUE,
    title          TEXT NOT NULL,
    price          BIGINT NOT NULL,
    location       TEXT,
    source_name    TEXT NOT NULL,
    tier           INTEGER NOT NULL,
    image_url      TEXT,
    posted_at      TEXT,
    latitude       DOUBLE PRECISION,
    longitude      DOUBLE PRECISION,
    distance_miles DOUBLE PRECISION,
    search_spec_id UUID REFERENCES search_specs(id) ON DELETE SET NULL,
    synthetic      BOOLEAN NOT NULL DEFAULT false,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_listings_spec ON listings(search_spec_id);
CREATE INDEX IF NOT EXISTS idx_listings_created ON listings(created_at DESC);

-- Append-only audit trail of pipeline invocations
CREATE TABLE IF NOT EXISTS activity_log (
    id                BIGSERIAL PRIMARY KEY,
    module            TEXT NOT NULL,
    search_spec_id    UUID,
    status            TEXT NOT NULL,
    message           TEXT NOT NULL DEFAULT '',
    listings_found    INTEGER NOT NULL DEFAULT 0,
    sources_processed INTEGER NOT NULL DEFAULT 0,
    duration_ms       BIGINT NOT NULL DEFAULT 0,
    metadata          JSONB,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_activity_log_module ON activity_log(module, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_activity_log_status ON activity_log(status);
`

// EnsureSchema applies the DDL. Every statement is idempotent, so running it
// on every startup is safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
