// Package server exposes the audit engine over a small JSON API.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seo-audit/auditor/internal/audit"
	"github.com/seo-audit/auditor/internal/config"
	"github.com/seo-audit/auditor/internal/report"
	"github.com/seo-audit/auditor/internal/storage"
)

// Server wires the HTTP surface to the audit pipeline.
type Server struct {
	cfg    *config.AuditConfig
	db     *storage.Database
	logger *slog.Logger
	engine *gin.Engine
}

// auditRequest is the body of POST /audit. MaxPages is a pointer so
// that an absent field and an explicit 0 are distinguishable; 0 must be
// rejected, not fall back to the default budget.
type auditRequest struct {
	URL           string `json:"url" binding:"required"`
	MaxPages      *int   `json:"max_pages"`
	RespectRobots bool   `json:"respect_robots"`
}

// New creates a Server. db may be nil to disable persistence.
func New(cfg *config.AuditConfig, db *storage.Database, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:    cfg,
		db:     db,
		logger: logger,
		engine: engine,
	}

	engine.GET("/health", s.handleHealth)
	engine.POST("/audit", s.handleAudit)
	engine.GET("/audits", s.handleListAudits)
	engine.GET("/audits/:id", s.handleGetAudit)

	return s
}

// Run starts the HTTP server on addr and blocks.
func (s *Server) Run(addr string) error {
	s.logger.Info("listening", "addr", addr)
	return s.engine.Run(addr)
}

// Handler returns the underlying http.Handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAudit(c *gin.Context) {
	var req auditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := audit.Run(c.Request.Context(), audit.Options{
		URL:           req.URL,
		MaxPages:      req.MaxPages,
		RespectRobots: req.RespectRobots,
		Config:        s.cfg,
		Logger:        s.logger,
	})
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_url"})
		case errors.Is(err, audit.ErrInvalidMaxPages):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_max_pages"})
		default:
			s.logger.Error("audit failed", "url", req.URL, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
		return
	}

	if s.db != nil {
		if _, err := s.db.SaveAudit(result); err != nil {
			// Persistence is best-effort; the report is still returned.
			s.logger.Error("failed to save audit", "url", req.URL, "error", err)
		}
	}

	c.JSON(http.StatusOK, report.Build(result))
}

func (s *Server) handleListAudits(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "persistence_disabled"})
		return
	}

	audits, err := s.db.ListAudits(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if audits == nil {
		audits = []*storage.AuditRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"audits": audits})
}

func (s *Server) handleGetAudit(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "persistence_disabled"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	rec, err := s.db.GetAudit(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}
