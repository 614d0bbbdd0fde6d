// Package server exposes the pipeline over HTTP: starting runs, inspecting
// past runs and per-agent memory, and a metrics snapshot.
package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storycraft/storycraft/pkg/artifact"
	"github.com/storycraft/storycraft/pkg/memory"
	"github.com/storycraft/storycraft/pkg/models"
	"github.com/storycraft/storycraft/pkg/observability"
	"github.com/storycraft/storycraft/pkg/orchestrator"
)

type Server struct {
	orch    *orchestrator.Orchestrator
	store   memory.Store
	metrics *observability.PipelineMetrics
	logger  *zap.Logger
	engine  *gin.Engine
}

func New(orch *orchestrator.Orchestrator, store memory.Store, metrics *observability.PipelineMetrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		orch:    orch,
		store:   store,
		metrics: metrics,
		logger:  logger,
		engine:  gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", s.handleMetrics)

	v1 := s.engine.Group("/v1")
	v1.POST("/runs", s.handleCreateRun)
	v1.GET("/runs", s.handleListRuns)
	v1.GET("/runs/:id", s.handleGetRun)
	v1.GET("/runs/:id/document", s.handleGetDocument)
	v1.GET("/memory/:namespace/:agent", s.handleGetMemory)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

type createRunRequest struct {
	Idea string `json:"idea" binding:"required"`
}

// handleCreateRun executes the pipeline synchronously and returns the full
// run. An aborted run is still a valid response body; the status code
// distinguishes it.
func (s *Server) handleCreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idea is required"})
		return
	}

	run, err := s.orch.Execute(c.Request.Context(), req.Idea)
	if err != nil {
		s.logger.Warn("run aborted", zap.String("run_id", run.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, run)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	runs, err := s.store.ListRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, ok := s.loadRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleGetDocument(c *gin.Context) {
	run, ok := s.loadRun(c)
	if !ok {
		return
	}
	doc, err := artifact.Build(run)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, doc.HTML)
}

func (s *Server) handleGetMemory(c *gin.Context) {
	rec, err := s.store.Get(c.Param("namespace"), c.Param("agent"))
	if errors.Is(err, memory.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no memory for agent"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) loadRun(c *gin.Context) (*models.PipelineRun, bool) {
	run, err := s.store.GetRun(c.Param("id"))
	if errors.Is(err, memory.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return run, true
}
