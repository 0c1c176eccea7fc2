package extract

import (
	"adscout/listingworker/helpers"
	"adscout/listingworker/internal/listing"
	"adscout/listingworker/logger"
)

// Engine applies pattern strategies in fixed priority order, stopping at
// the first strategy that yields at least one relevant listing.
type Engine struct {
	strategies []Strategy
	log        *logger.Logger
}

// NewEngine creates the extraction cascade: structured data, site-specific
// blocks, generic correlation, and (when enabled) the synthetic deep-link
// fallback.
func NewEngine(syntheticFallback bool) *Engine {
	strategies := []Strategy{
		&StructuredDataStrategy{},
		&SiteBlockStrategy{},
		&CorrelationStrategy{},
	}
	if syntheticFallback {
		strategies = append(strategies, &SyntheticFallbackStrategy{})
	}

	return &Engine{
		strategies: strategies,
		log:        logger.ForPipeline().WithField("subsystem", "extract"),
	}
}

// Extract runs the cascade over one raw response. Every candidate passes
// the relevance gate, URLs are canonicalized for deduplication, and the
// result is capped at ectx.MaxCandidates.
func (e *Engine) Extract(rawText string, ectx Context) []listing.Candidate {
	if ectx.MaxCandidates <= 0 {
		ectx.MaxCandidates = 10
	}

	for _, strategy := range e.strategies {
		candidates := strategy.Extract(rawText, ectx)
		if len(candidates) == 0 {
			continue
		}

		kept := e.filter(candidates, ectx)
		if len(kept) == 0 {
			// This strategy matched markup but nothing relevant;
			// a later strategy will not do better on the same page
			e.log.Debug().
				Str("strategy", strategy.Name()).
				Str("source", ectx.Source.Name).
				Int("raw", len(candidates)).
				Msg("All candidates dropped by relevance gate")
			continue
		}

		e.log.Debug().
			Str("strategy", strategy.Name()).
			Str("source", ectx.Source.Name).
			Int("candidates", len(kept)).
			Msg("Extraction strategy succeeded")
		return kept
	}

	return nil
}

func (e *Engine) filter(candidates []listing.Candidate, ectx Context) []listing.Candidate {
	seen := make(map[string]bool)
	var kept []listing.Candidate

	for _, c := range candidates {
		if len(kept) == ectx.MaxCandidates {
			break
		}
		if !Relevant(ectx.Term, c.Title) {
			continue
		}
		c.URL = helpers.CanonicalURL(c.URL)
		if c.URL == "" || seen[c.URL] {
			continue
		}
		seen[c.URL] = true
		kept = append(kept, c)
	}

	return kept
}
