// Package diag runs the diagnostic HTTP sidecar. The MCP protocol owns
// stdin/stdout, so health and metrics are served on a separate port.
package diag

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"knmi-weather-mcp/internal/observability"
	"knmi-weather-mcp/internal/stations"
)

// KeyProbe checks whether the upstream data platform accepts the configured
// API key. Nil disables the check.
type KeyProbe func(ctx context.Context) error

// Server exposes /health and /metrics over HTTP.
type Server struct {
	srv       *http.Server
	directory *stations.Directory
	keyProbe  KeyProbe
	version   string
	startTime time.Time
	logger    *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewServer returns a diagnostic server bound to the given port.
func NewServer(port string, directory *stations.Directory, keyProbe KeyProbe, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		directory: directory,
		keyProbe:  keyProbe,
		version:   version,
		startTime: time.Now(),
		logger:    logger,
	}

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", s.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler { return s.srv.Handler }

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("diagnostic server listening", zap.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("diagnostic server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := s.computeHealthStatus(r.Context())

	s.healthStatusMu.Lock()
	prev := s.healthStatusPrev
	if prev != "" && prev != result.status {
		s.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	s.healthStatusPrev = result.status
	s.healthStatusMu.Unlock()

	checks := map[string]string{"stationDirectory": "healthy"}
	if s.directory == nil || s.directory.Len() == 0 {
		checks["stationDirectory"] = "unhealthy"
	}
	if s.keyProbe != nil {
		if result.reason == "api_key_invalid" {
			checks["knmiApi"] = "unhealthy"
		} else {
			checks["knmiApi"] = "healthy"
		}
	}

	stationCount := 0
	if s.directory != nil {
		stationCount = s.directory.Len()
	}
	resp := map[string]interface{}{
		"status":        result.status,
		"service":       "knmi-weather-mcp",
		"version":       s.version,
		"stations":      stationCount,
		"uptimeSeconds": int(time.Since(s.startTime).Seconds()),
		"checks":        checks,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}

// computeHealthStatus evaluates conditions in priority order: an empty
// station directory beats an API key failure because nothing can be served
// without it.
func (s *Server) computeHealthStatus(ctx context.Context) healthResult {
	if s.directory == nil || s.directory.Len() == 0 {
		return healthResult{"degraded", http.StatusServiceUnavailable, "empty_station_directory"}
	}
	if s.keyProbe != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.keyProbe(probeCtx); err != nil {
			return healthResult{"degraded", http.StatusServiceUnavailable, "api_key_invalid"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}
