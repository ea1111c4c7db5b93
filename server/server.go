// Package server provides HTTP server management and lifecycle handling
// for the vademecum API. It includes server setup, middleware
// configuration, route management, and graceful shutdown with proper
// error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oroya/vademecum-api/config"
	"github.com/oroya/vademecum-api/data"
	"github.com/oroya/vademecum-api/handlers"
	"github.com/oroya/vademecum-api/interfaces"
	"github.com/oroya/vademecum-api/logging"
	"github.com/oroya/vademecum-api/metrics"
)

// Server represents the HTTP server
type Server struct {
	server    *http.Server
	router    chi.Router
	container *data.Container
	checker   interfaces.HealthChecker
	config    *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, container *data.Container, checker interfaces.HealthChecker) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:    router,
		container: container,
		checker:   checker,
		config:    cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Catalog routes
	s.router.Get("/procedures", handlers.ServeProcedureIndex(s.container))
	s.router.Get("/procedures/search/{term}", handlers.FindProcedures(s.container))
	s.router.Get("/procedures/{procedureId}", handlers.FindProcedureByID(s.container))
	s.router.Get("/specialties", handlers.ServeSpecialties(s.container))

	// Formulary and reference routes
	s.router.Get("/drugs", handlers.ServeAllDrugs(s.container))
	s.router.Get("/drugs/search/{term}", handlers.FindDrugs(s.container))
	s.router.Get("/drugs/{drugId}", handlers.FindDrugByID(s.container))
	s.router.Get("/guidelines", handlers.ServeAllGuidelines(s.container))
	s.router.Get("/guidelines/{guidelineId}", handlers.FindGuidelineByID(s.container))
	s.router.Get("/protocols", handlers.ServeAllProtocols(s.container))
	s.router.Get("/protocols/{protocolId}", handlers.FindProtocolByID(s.container))
	s.router.Get("/blocks", handlers.ServeAllBlocks(s.container))
	s.router.Get("/blocks/{blockId}", handlers.FindBlockByID(s.container))

	// Operational routes
	s.router.Get("/health", handlers.HealthCheckHandler(s.checker))
	s.router.Get("/status", handlers.ServeStatus(s.container))
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		fmt.Println("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Println("Profiling server failed: ", err)
		}
	}()
}
