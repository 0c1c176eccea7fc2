// Package pipeline sequences one discovery run: term expansion, tiered
// source retrieval, extraction, geo enrichment, price filtering and
// deduplicated persistence, bracketed by a started/terminal activity
// record pair.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"adscout/listingworker/helpers"
	"adscout/listingworker/internal/extract"
	"adscout/listingworker/internal/listing"
	"adscout/listingworker/internal/pricing"
	"adscout/listingworker/internal/registry"
	"adscout/listingworker/internal/terms"
	"adscout/listingworker/logger"
	apperr "adscout/listingworker/pkg/errors"
	"adscout/listingworker/services/throttle"
)

// ModuleName tags every activity record written by this pipeline.
const ModuleName = "listing_pipeline"

// maxReportedErrors caps the per-source error list carried in the terminal
// record's metadata.
const maxReportedErrors = 25

// Options tunes one orchestrator instance.
type Options struct {
	WorkerCount            int
	RequestDelay           time.Duration
	AggressiveDelay        time.Duration
	RunTimeout             time.Duration
	MaxCandidatesPerSource int
	HomeLatitude           float64
	HomeLongitude          float64
}

func (o *Options) fillDefaults() {
	if o.WorkerCount < 1 {
		o.WorkerCount = 4
	}
	if o.RequestDelay <= 0 {
		o.RequestDelay = 1500 * time.Millisecond
	}
	if o.AggressiveDelay < o.RequestDelay {
		o.AggressiveDelay = 2 * o.RequestDelay
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = 10 * time.Minute
	}
	if o.MaxCandidatesPerSource < 1 {
		o.MaxCandidatesPerSource = 10
	}
}

// Result summarizes one invocation for the inbound caller.
type Result struct {
	Success          bool
	ListingsFound    int
	SourcesProcessed int
	ExecutionTime    time.Duration
	Err              error
}

// Orchestrator drives the per-spec, per-source discovery loop.
type Orchestrator struct {
	storage    Storage
	catalog    SourceCatalog
	fetcher    Fetcher
	extractor  Extractor
	geo        GeoEnricher
	classifier Classifier
	ledger     throttle.Ledger
	publisher  Publisher
	opts       Options
	log        *logger.Logger
}

// New wires an orchestrator. publisher may be nil.
func New(
	storage Storage,
	catalog SourceCatalog,
	fetcher Fetcher,
	extractor Extractor,
	geo GeoEnricher,
	classifier Classifier,
	ledger throttle.Ledger,
	publisher Publisher,
	opts Options,
) *Orchestrator {
	opts.fillDefaults()
	return &Orchestrator{
		storage:    storage,
		catalog:    catalog,
		fetcher:    fetcher,
		extractor:  extractor,
		geo:        geo,
		classifier: classifier,
		ledger:     ledger,
		publisher:  publisher,
		opts:       opts,
		log:        logger.ForPipeline(),
	}
}

// sourceJob is one retrieval unit: a source searched with the spec's term
// variants, most specific first. urlFor rebuilds the search URL for a given
// term; it is nil for registry sources, whose URL is fixed.
type sourceJob struct {
	spec       listing.SearchSpec
	source     extract.SourceRef
	sourceID   string // registry id; empty for tier-1
	aggressive bool
	terms      []string
	urlFor     func(term string) string
	refLat     float64
	refLon     float64
}

// runStats aggregates outcomes across the worker pool. All fields are
// guarded by mu; workers never touch them directly.
type runStats struct {
	mu         sync.Mutex
	successes  int
	failures   int
	listings   int
	sources    int
	errors     []string
	terms      []string
	categories map[string]string
	priceBands map[string]string
}

func (s *runStats) recordOutcome(sourceName string, found int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources++
	if err != nil {
		s.failures++
		if len(s.errors) < maxReportedErrors {
			s.errors = append(s.errors, fmt.Sprintf("%s: %v", sourceName, err))
		}
		return
	}
	s.successes++
	s.listings += found
}

// Run executes one pipeline invocation. With a specID it processes that
// spec alone; otherwise every active spec. A terminal activity record is
// written on every path after the started record, including fatal ones.
func (o *Orchestrator) Run(ctx context.Context, specID string) Result {
	start := time.Now()

	o.appendActivity(ctx, listing.ActivityRecord{
		Module:       ModuleName,
		SearchSpecID: specID,
		Status:       listing.StatusStarted,
		Message:      "Pipeline run started",
	})

	// Fatal precondition: without the retrieval credential no extraction
	// is possible, so fail the whole invocation before any network call
	if err := o.fetcher.Ready(); err != nil {
		o.log.Error().Err(err).Msg("Retrieval precondition failed")
		o.appendActivity(ctx, listing.ActivityRecord{
			Module:       ModuleName,
			SearchSpecID: specID,
			Status:       listing.StatusFailure,
			Message:      fmt.Sprintf("Precondition failed: %v", err),
			Duration:     time.Since(start),
		})
		return Result{Err: err, ExecutionTime: time.Since(start)}
	}

	specs, err := o.loadSpecs(ctx, specID)
	if err != nil {
		o.appendActivity(ctx, listing.ActivityRecord{
			Module:       ModuleName,
			SearchSpecID: specID,
			Status:       listing.StatusFailure,
			Message:      fmt.Sprintf("Failed to load search specs: %v", err),
			Duration:     time.Since(start),
		})
		return Result{Err: err, ExecutionTime: time.Since(start)}
	}

	runCtx, cancel := context.WithTimeout(ctx, o.opts.RunTimeout)
	defer cancel()

	stats := &runStats{
		categories: make(map[string]string),
		priceBands: make(map[string]string),
	}

	for _, spec := range specs {
		o.runSpec(runCtx, spec, stats)

		// The last-run touch is a post-condition, not part of the result
		if err := o.storage.TouchLastRun(ctx, spec.ID); err != nil {
			o.log.Warn().Str("spec_id", spec.ID).Err(err).Msg("Failed to touch last-run timestamp")
		}

		if runCtx.Err() != nil {
			o.log.Warn().Err(runCtx.Err()).Msg("Run deadline reached; skipping remaining specs")
			break
		}
	}

	status, message := o.terminalStatus(stats, runCtx.Err())
	elapsed := time.Since(start)

	o.appendActivity(ctx, listing.ActivityRecord{
		Module:           ModuleName,
		SearchSpecID:     specID,
		Status:           status,
		Message:          message,
		ListingsFound:    stats.listings,
		SourcesProcessed: stats.sources,
		Duration:         elapsed,
		Metadata: map[string]interface{}{
			"specs_processed": len(specs),
			"terms":           stats.terms,
			"categories":      stats.categories,
			"price_bands":     stats.priceBands,
			"source_errors":   stats.errors,
		},
	})

	if o.publisher != nil {
		if err := o.publisher.TrimStream(); err != nil {
			o.log.Warn().Err(err).Msg("Failed to trim listing stream")
		}
	}

	o.log.Info().
		Str("status", status).
		Int("listings", stats.listings).
		Int("sources", stats.sources).
		Dur("elapsed", elapsed).
		Msg("Pipeline run finished")

	return Result{
		Success:          status != listing.StatusFailure,
		ListingsFound:    stats.listings,
		SourcesProcessed: stats.sources,
		ExecutionTime:    elapsed,
	}
}

func (o *Orchestrator) loadSpecs(ctx context.Context, specID string) ([]listing.SearchSpec, error) {
	if specID != "" {
		spec, err := o.storage.SpecByID(ctx, specID)
		if err != nil {
			return nil, err
		}
		return []listing.SearchSpec{spec}, nil
	}
	return o.storage.ActiveSpecs(ctx)
}

// runSpec fans one spec's sources out over the bounded worker pool.
func (o *Orchestrator) runSpec(ctx context.Context, spec listing.SearchSpec, stats *runStats) {
	termList := terms.Expand(spec)
	if len(termList) == 0 {
		return
	}

	category := o.classifier.Classify(ctx, spec)

	stats.mu.Lock()
	stats.terms = append(stats.terms, termList...)
	if category != "" {
		stats.categories[spec.ID] = category
	}
	stats.priceBands[spec.ID] = fmt.Sprintf("0-%d", spec.MaxPrice())
	stats.mu.Unlock()

	refLat, refLon := o.opts.HomeLatitude, o.opts.HomeLongitude
	if spec.Location != "" {
		if lat, lon, err := o.geo.Resolve(ctx, spec.Location); err == nil {
			refLat, refLon = lat, lon
		} else {
			o.log.Warn().Str("location", spec.Location).Err(err).
				Msg("Failed to resolve spec location override; using home coordinates")
		}
	}

	jobs := o.buildJobs(ctx, spec, termList, category, refLat, refLon, stats)
	if len(jobs) == 0 {
		return
	}

	jobCh := make(chan sourceJob)
	var wg sync.WaitGroup

	for i := 0; i < o.opts.WorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				found, err := o.processSource(ctx, job)
				stats.recordOutcome(job.source.Name, found, err)
				if job.sourceID != "" {
					o.catalog.RecordOutcome(ctx, job.sourceID, err == nil)
				}
			}
		}()
	}

dispatch:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break dispatch
		case jobCh <- job:
		}
	}
	close(jobCh)
	wg.Wait()
}

// buildJobs assembles the source set for one spec: the fixed tier-1
// marketplaces searched with the spec's term variants, plus the registry's
// category-matched tier-2/3 sources.
func (o *Orchestrator) buildJobs(
	ctx context.Context,
	spec listing.SearchSpec,
	termList []string,
	category string,
	refLat, refLon float64,
	stats *runStats,
) []sourceJob {
	var jobs []sourceJob

	for _, t1 := range registry.Tier1Sources() {
		jobs = append(jobs, sourceJob{
			spec: spec,
			source: extract.SourceRef{
				Name:   t1.Name,
				URL:    t1.SearchFor(termList[0]),
				Tier:   listing.TierMajor,
				Family: t1.Family,
			},
			aggressive: t1.Aggressive,
			terms:      termList,
			urlFor:     t1.SearchFor,
			refLat:     refLat,
			refLon:     refLon,
		})
	}

	discovered, err := o.catalog.CandidateSources(ctx, category)
	if err != nil {
		// Registry trouble degrades the run to tier-1 only
		o.log.Warn().Err(err).Msg("Failed to load registry sources; continuing with tier-1 only")
		stats.mu.Lock()
		if len(stats.errors) < maxReportedErrors {
			stats.errors = append(stats.errors, fmt.Sprintf("registry: %v", err))
		}
		stats.mu.Unlock()
		return jobs
	}

	for _, src := range discovered {
		jobs = append(jobs, sourceJob{
			spec: spec,
			source: extract.SourceRef{
				Name: src.Name,
				URL:  src.URL,
				Tier: src.Tier,
			},
			sourceID: src.ID,
			terms:    termList,
			refLat:   refLat,
			refLon:   refLon,
		})
	}
	return jobs
}

// processSource runs the retrieval → extraction → geo → price-filter →
// ingest chain for one source. Term variants are tried most specific first;
// the first variant that extracts anything wins. Tier-1 sources rebuild
// their search URL per term, registry sources re-extract the same page.
// Returns how many new listings were stored.
func (o *Orchestrator) processSource(ctx context.Context, job sourceJob) (int, error) {
	delay := o.opts.RequestDelay
	if job.aggressive {
		delay = o.opts.AggressiveDelay
	}

	var raw, fetchedURL string
	for _, term := range job.terms {
		src := job.source
		if job.urlFor != nil {
			src.URL = job.urlFor(term)
		}

		if src.URL != fetchedURL {
			// Hard sequencing point: the per-domain cool-down is mandatory
			if err := o.ledger.Reserve(ctx, helpers.Domain(src.URL), delay); err != nil {
				return 0, err
			}
			var err error
			raw, err = o.fetcher.Fetch(ctx, src.URL)
			if err != nil {
				return 0, err
			}
			fetchedURL = src.URL
		}

		candidates := o.extractor.Extract(raw, extract.Context{
			Source:        src,
			Term:          term,
			MaxCandidates: o.opts.MaxCandidatesPerSource,
		})
		if len(candidates) == 0 {
			continue
		}
		return o.ingest(ctx, job, candidates)
	}

	return 0, apperr.NewParsing(job.source.Name, "no candidates extracted for any term variant", nil)
}

// ingest enriches, filters, stores and publishes one source's candidates.
func (o *Orchestrator) ingest(ctx context.Context, job sourceJob, candidates []listing.Candidate) (int, error) {
	// Synthetic placeholders carry no real price or location; they skip
	// geo enrichment and the price band
	var real, synthetic []listing.Candidate
	for _, c := range candidates {
		if c.Synthetic {
			synthetic = append(synthetic, c)
			continue
		}
		real = append(real, c)
	}

	for i := range real {
		o.geo.Enrich(ctx, &real[i], job.refLat, job.refLon)
	}

	kept := pricing.Filter(real, job.spec.PriceThreshold, job.spec.PriceMultiplier)
	kept = append(kept, synthetic...)

	inserted := 0
	for _, c := range kept {
		ok, err := o.storage.UpsertListing(ctx, c, job.spec.ID)
		if err != nil {
			// Per-listing failures must not block the rest of the batch
			o.log.Warn().Str("url", c.URL).Err(err).Msg("Failed to store listing")
			continue
		}
		if !ok {
			continue // already known; the stored row stays authoritative
		}
		inserted++
		o.publishListing(c, job.spec.ID)
	}

	return inserted, nil
}

// publishListing forwards a newly stored listing to the notifier stream.
// A post-condition: its errors are logged, never escalated.
func (o *Orchestrator) publishListing(c listing.Candidate, specID string) {
	if o.publisher == nil {
		return
	}

	payload, err := json.Marshal(struct {
		listing.Candidate
		SearchSpecID string `json:"search_spec_id"`
	}{Candidate: c, SearchSpecID: specID})
	if err != nil {
		o.log.Warn().Err(err).Msg("Failed to encode listing for publishing")
		return
	}

	if err := o.publisher.Publish(c.SourceName, payload); err != nil {
		o.log.Warn().Str("url", c.URL).Err(err).Msg("Failed to publish listing")
	}
}

// terminalStatus maps aggregate outcomes to the run's terminal state.
func (o *Orchestrator) terminalStatus(stats *runStats, ctxErr error) (string, string) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	switch {
	case ctxErr != nil && stats.successes == 0:
		return listing.StatusFailure, "Run timed out before any source succeeded"
	case ctxErr != nil:
		return listing.StatusPartialSuccess,
			fmt.Sprintf("Run timed out after %d of %d sources", stats.successes, stats.sources)
	case stats.failures == 0:
		return listing.StatusSuccess,
			fmt.Sprintf("Processed %d sources, stored %d listings", stats.sources, stats.listings)
	case stats.successes > 0:
		return listing.StatusPartialSuccess,
			fmt.Sprintf("%d of %d sources failed, stored %d listings",
				stats.failures, stats.sources, stats.listings)
	default:
		// Every attempted source failed but the run itself completed;
		// failure stays reserved for the fatal precondition
		return listing.StatusPartialSuccess,
			fmt.Sprintf("All %d sources failed", stats.sources)
	}
}

// appendActivity writes an audit record; the log's own failures are
// captured here, never escalated.
func (o *Orchestrator) appendActivity(ctx context.Context, rec listing.ActivityRecord) {
	if err := o.storage.AppendActivity(ctx, rec); err != nil {
		o.log.Error().Str("status", rec.Status).Err(err).Msg("Failed to write activity record")
	}
}
