// Package store persists search specs, discovered listings and the run
// activity log in Postgres.
package store

import (
	"adscout/listingworker/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps the Postgres pool for all pipeline persistence.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// New creates a store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		log:  logger.ForStore(),
	}
}
