// Package health is the engine's one HTTP surface: liveness/readiness
// probes for a container orchestrator, never a client-facing API
// (spec.md §1). Grounded on the teacher's gin.Default()/router.Run and
// its handlers/health.go HealthCheck JSON shape.
package health

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Server exposes GET /healthz (always 200 once the process is up) and
// GET /readyz (200 only once MarkReady has been called, 503 before
// that), matching I10.
type Server struct {
	engine *gin.Engine
	ready  atomic.Bool
}

func New(mode string) *Server {
	if mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{engine: gin.Default()}
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/readyz", s.handleReadyz)
	return s
}

// MarkReady flips the process to ready; call it once every backend
// dependency (store, scheduler, bus, relay) has connected successfully.
func (s *Server) MarkReady() { s.ready.Store(true) }

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleReadyz(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Run starts the health server; it blocks until the listener fails.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
