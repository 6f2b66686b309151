// Package api exposes the session registry over a thin REST surface:
// create, list, inspect and stop sessions.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wardenlabs/bruteloom/pkg/registry"
	"github.com/wardenlabs/bruteloom/pkg/session"
)

// Server adapts a session registry to gin handlers.
type Server struct {
	registry *registry.Registry
	backend  session.Backend
}

// NewServer builds an API server backed by reg. Sessions created through
// this surface use backend (the sub-process backend in the default wiring).
func NewServer(reg *registry.Registry, backend session.Backend) *Server {
	return &Server{registry: reg, backend: backend}
}

// Routes registers the four session routes on router.
func (s *Server) Routes(router gin.IRouter) {
	router.GET("/sessions", s.ListSessions)
	router.GET("/session/:id", s.GetSession)
	router.GET("/session/:id/stop", s.StopSession)
	router.POST("/session/new", s.NewSession)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.List())
}

// GetSession handles GET /session/:id.
func (s *Server) GetSession(c *gin.Context) {
	sess, err := s.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// StopSession handles GET /session/:id/stop. Idempotent: stopping an
// already-completed session still returns 200.
func (s *Server) StopSession(c *gin.Context) {
	if err := s.registry.Stop(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopping"})
}

// NewSession handles POST /session/new. The request body is a JSON array of
// argv strings; the stored session.argv is exactly this array (testable
// property: REST argv round-trip).
func (s *Server) NewSession(c *gin.Context) {
	var argv []string
	if err := c.ShouldBindJSON(&argv); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client := c.ClientIP()
	sess, err := s.registry.Start(client, argv, s.backend)
	if err != nil {
		if errors.Is(err, registry.ErrNoCapacity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, session.ErrUserError) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	slog.Info("session started", "session_id", sess.ID, "plugin", sess.Plugin, "client", client)
	c.JSON(http.StatusOK, sess.ID)
}

// Health handles GET /health.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"available_workers": s.registry.AvailableWorkers(),
	})
}
