package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"keypulse-go/internal/monitor"
	"keypulse-go/internal/store"
)

// Server exposes the daemon's status API: health, last-run report, run
// history, a manual check trigger, and Prometheus metrics.
type Server struct {
	mon       *monitor.Monitor
	stateFile string
	engine    *gin.Engine
	httpSrv   *http.Server
}

func New(mon *monitor.Monitor, stateFile string, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		mon:       mon,
		stateFile: stateFile,
		engine:    engine,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/history", s.handleHistory)
	api.POST("/check", s.handleCheck)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start begins serving on addr. Blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.engine}
	log.Infof("status API listening on %s", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleStatus serves the most recent run, falling back to the persisted
// snapshot when the daemon has not completed a run since starting.
func (s *Server) handleStatus(c *gin.Context) {
	if last := s.mon.History().Last(); last != nil {
		c.JSON(http.StatusOK, last)
		return
	}
	if s.stateFile != "" {
		snapshot, err := monitor.LoadReport(s.stateFile)
		if err == nil && snapshot != nil {
			c.JSON(http.StatusOK, snapshot)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no completed run yet"})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"runs": s.mon.History().Recent(limit)})
}

// handleCheck triggers a run synchronously. Runs are serialized inside
// the monitor, so a trigger during the scheduled run simply waits.
func (s *Server) handleCheck(c *gin.Context) {
	report, err := s.mon.Run(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrStoreRead) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
