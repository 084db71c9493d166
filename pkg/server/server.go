package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/soundprediction/surveylens/pkg/config"
	"github.com/soundprediction/surveylens/pkg/server/handlers"
	"github.com/soundprediction/surveylens/pkg/telemetry"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	router *gin.Engine
	source handlers.ResultSource
	server *http.Server
	logger *slog.Logger
}

// New creates a new server instance
func New(cfg *config.Config, source handlers.ResultSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		source: source,
		logger: logger,
	}
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	s.router = gin.New()

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(contextMiddleware())

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
}

// setupRoutes sets up all the routes
func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.source)
	resultsHandler := handlers.NewResultsHandler(s.source, s.logger)

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/healthcheck", healthHandler.HealthCheck) // Legacy endpoint
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/live", healthHandler.LivenessCheck) // Kubernetes liveness probe
	s.router.GET("/health/detailed", healthHandler.DetailedHealthCheck)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/clusters", resultsHandler.ListClusters)
		v1.GET("/clusters/:id", resultsHandler.GetCluster)
		v1.GET("/representatives", resultsHandler.Representatives)
		v1.GET("/agreement", resultsHandler.ListAgreement)
		v1.GET("/agreement/:qid", resultsHandler.GetAgreement)
		v1.GET("/spectrum", resultsHandler.ListSpectrum)
		v1.GET("/spectrum/:qid", resultsHandler.GetSpectrum)
	}
}

// Handler returns the configured router; Setup must run first.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// contextMiddleware tags the request context with a run id for telemetry.
func contextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		runID := c.GetHeader("X-Request-ID")
		if runID == "" {
			runID = uuid.New().String()
		}
		c.Header("X-Request-ID", runID)

		ctx := telemetry.WithRun(c.Request.Context(), runID, "serve "+c.FullPath())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
