package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"petcare-analytics/analytics"
	"petcare-analytics/observability"
	"petcare-analytics/realtime"
)

// AnalyticsService is the use case behind the analytics routes
type AnalyticsService interface {
	BranchReport(ctx context.Context) (*analytics.BranchReport, error)
	BranchDetail(ctx context.Context, branch string) (*analytics.BranchDetail, error)
	PetTypePredictions(ctx context.Context) (*analytics.PetTypePredictions, error)
	Refresh(ctx context.Context) (*analytics.BranchReport, error)
}

// HealthChecker reports per-branch appointment counts straight from the store
type HealthChecker interface {
	CountAppointmentsByBranch(ctx context.Context) (map[string]int64, error)
}

// Server handles HTTP API requests
type Server struct {
	service      AnalyticsService
	health       HealthChecker
	broker       *realtime.Broker
	metrics      *observability.Metrics
	registry     *prometheus.Registry
	cacheBackend string
	httpServer   *http.Server
}

// NewServer creates a new API server instance
func NewServer(service AnalyticsService, health HealthChecker, broker *realtime.Broker) *Server {
	return &Server{
		service: service,
		health:  health,
		broker:  broker,
	}
}

// SetMetrics enables request metrics and the /metrics endpoint
func (s *Server) SetMetrics(metrics *observability.Metrics, registry *prometheus.Registry) {
	s.metrics = metrics
	s.registry = registry
}

// Report cache backends shown by /health
const (
	CacheBackendNone   = ""
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// SetCacheBackend records which report cache is active for /health
func (s *Server) SetCacheBackend(backend string) {
	s.cacheBackend = backend
}

// Handler builds the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Analytics Routes
	mux.HandleFunc("GET /api/analytics/branch", s.handleBranchAnalytics)
	mux.HandleFunc("GET /api/analytics/branch/{branch}", s.handleBranchDetail)
	mux.HandleFunc("GET /api/analytics/pet-type-predictions", s.handlePetTypePredictions)
	mux.HandleFunc("POST /api/analytics/refresh", s.handleRefresh)

	if s.broker != nil {
		mux.Handle("GET /api/events", s.broker) // SSE Endpoint
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	if s.registry != nil {
		observability.RegisterMetricsEndpoint(mux, s.registry)
	}

	// Add middleware
	return s.corsMiddleware(s.loggingMiddleware(s.metrics.HTTPMiddleware(mux)))
}

// Start starts the HTTP server on the specified port.
// It returns nil after Shutdown.
func (s *Server) Start(port int) error {
	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	s.httpServer = &http.Server{
		Addr:              serverAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 API Server starting on %s", serverAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Handlers are distributed across multiple files:
// - handlers_analytics.go: branch report, branch detail, pet type predictions, refresh
// - handlers_config.go: health check
