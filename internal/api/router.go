package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/alvesdmateus/image-builder/internal/observability"
	"github.com/alvesdmateus/image-builder/internal/orchestrator"
	"github.com/alvesdmateus/image-builder/internal/queue"
	"github.com/alvesdmateus/image-builder/internal/state"
)

// Server represents the HTTP API server
type Server struct {
	router       *chi.Mux
	db           *gorm.DB
	queue        *queue.RedisQueue
	metrics      *observability.Metrics
	buildHandler *BuildHandler
}

// NewServer creates a new API server. A nil metrics disables instrumentation.
func NewServer(db *gorm.DB, q *queue.RedisQueue, engine *orchestrator.Engine, metrics *observability.Metrics) *Server {
	repo := state.NewRepository(db)

	s := &Server{
		router:       chi.NewRouter(),
		db:           db,
		queue:        q,
		metrics:      metrics,
		buildHandler: NewBuildHandler(repo, engine),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(RequestLogger)
	s.router.Use(CORSMiddleware())
	s.router.Use(middleware.RealIP)
	if s.metrics != nil {
		s.router.Use(MetricsMiddleware(s.metrics))
	}

	// Health check and metrics
	s.router.Get("/health", s.healthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/builds", func(r chi.Router) {
			r.Get("/", s.buildHandler.ListBuilds)
			r.Post("/", s.buildHandler.EnqueueBuild)
			r.Get("/{id}", s.buildHandler.GetBuild)
		})
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// healthCheck reports server, database and queue health
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.Ping() != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
	}

	if s.queue != nil {
		if err := s.queue.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["queue"] = "unreachable"
		}
	}

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}

	RespondWithJSON(w, code, status)
}
