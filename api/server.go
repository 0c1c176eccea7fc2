// Package api exposes the inbound HTTP surface: run triggering for the
// cron/trigger collaborator and activity queries for the dashboard.
package api

import (
	"context"
	"net/http"
	"strconv"

	"adscout/listingworker/internal/listing"
	"adscout/listingworker/internal/pipeline"
	"adscout/listingworker/logger"

	"github.com/gin-gonic/gin"
)

// RunTrigger executes one pipeline invocation; *pipeline.Orchestrator
// satisfies it.
type RunTrigger interface {
	Run(ctx context.Context, specID string) pipeline.Result
}

// ActivityReader queries the audit log; *store.Store satisfies it.
type ActivityReader interface {
	RecentActivity(ctx context.Context, module, status string, limit int) ([]listing.ActivityRecord, error)
}

// Server hosts the pipeline's HTTP endpoints.
type Server struct {
	engine       *gin.Engine
	orchestrator RunTrigger
	store        ActivityReader
	log          *logger.Logger
}

// New builds the router.
func New(orchestrator RunTrigger, st ActivityReader, environment string) *Server {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine:       gin.New(),
		orchestrator: orchestrator,
		store:        st,
		log:          logger.ForAPI(),
	}

	s.engine.Use(gin.Recovery())

	s.engine.GET("/health", s.health)
	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/runs", s.triggerRun)
		v1.GET("/activity", s.activity)
	}

	return s
}

// Run blocks serving on addr.
func (s *Server) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.engine.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "listingworker"})
}

type runRequest struct {
	SearchSpecID string `json:"search_spec_id"`
}

// triggerRun executes one pipeline invocation synchronously. With a
// search_spec_id it processes that spec; without one, all active specs.
func (s *Server) triggerRun(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	result := s.orchestrator.Run(c.Request.Context(), req.SearchSpecID)
	if result.Err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": result.Err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           result.Success,
		"listings_found":    result.ListingsFound,
		"sources_processed": result.SourcesProcessed,
		"execution_time_ms": result.ExecutionTime.Milliseconds(),
	})
}

// activity returns recent run records for the dashboard collaborator.
func (s *Server) activity(c *gin.Context) {
	limit := 50
	if raw, ok := c.GetQuery("limit"); ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	records, err := s.store.RecentActivity(
		c.Request.Context(),
		c.Query("module"),
		c.Query("status"),
		limit,
	)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to query activity log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query activity log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}
