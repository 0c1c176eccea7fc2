// Package sched wires up the optional cron that periodically triggers a
// full all-specs discovery run for deployments without an external
// trigger surface.
package sched

import (
	"context"
	"fmt"

	"adscout/listingworker/internal/pipeline"
	"adscout/listingworker/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron around the pipeline.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *pipeline.Orchestrator
	spec         string
	log          *logger.Logger
}

// New creates a scheduler firing every intervalHours hours.
func New(orchestrator *pipeline.Orchestrator, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		orchestrator: orchestrator,
		spec:         fmt.Sprintf("@every %dh", intervalHours),
		log:          logger.ForPipeline().WithField("subsystem", "scheduler"),
	}
}

// Start registers the maintenance job and starts the cron.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.log.Info().Str("interval", s.spec).Msg("Scheduled run starting")
		result := s.orchestrator.Run(ctx, "")
		if result.Err != nil {
			s.log.Error().Err(result.Err).Msg("Scheduled run failed")
			return
		}
		s.log.Info().
			Int("listings", result.ListingsFound).
			Int("sources", result.SourcesProcessed).
			Msg("Scheduled run finished")
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info().Str("interval", s.spec).Msg("Scheduler started")
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("Scheduler stopped")
}
