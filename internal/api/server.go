package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"triguard/internal/api/health"
	triageapi "triguard/internal/api/triage"
	"triguard/internal/metrics"
	"triguard/internal/workers"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

//go:embed static/triage.html
var triagePage []byte

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Addr        string
	ServiceName string
	Version     string
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes.
// The scheduler is optional; when nil the worker health endpoint reports an
// empty list.
func NewServer(cfg ServerConfig, healthHandler *health.Handler, triageHandler *triageapi.Handler, scheduler *workers.Scheduler, log *logger.Logger) *Server {
	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)
	mux.HandleFunc("/live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	// Triage calculator: JSON API plus the static page for adjusters
	mux.HandleFunc("/api/v1/triage", triageHandler.HandleAssess)
	mux.HandleFunc("/triage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(triagePage)
	})

	// Worker health snapshot
	mux.HandleFunc("/api/v1/workers", func(w http.ResponseWriter, r *http.Request) {
		type workerStatus struct {
			Name      string `json:"name"`
			Enabled   bool   `json:"enabled"`
			Interval  string `json:"interval"`
			LastRun   string `json:"last_run,omitempty"`
			RunCount  int64  `json:"run_count"`
			ErrCount  int64  `json:"error_count"`
			LastError string `json:"last_error,omitempty"`
		}

		statuses := []workerStatus{}
		if scheduler != nil {
			for _, worker := range scheduler.GetWorkers() {
				status := workerStatus{
					Name:     worker.Name(),
					Enabled:  worker.Enabled(),
					Interval: worker.Interval().String(),
				}
				if hw, ok := worker.(workers.WorkerWithHealth); ok {
					h := hw.Health()
					if !h.LastRun.IsZero() {
						status.LastRun = h.LastRun.Format(time.RFC3339)
					}
					status.RunCount = h.RunCount
					status.ErrCount = h.ErrorCount
					if h.LastError != nil {
						status.LastError = h.LastError.Error()
					}
				}
				statuses = append(statuses, status)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statuses)
	})

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"service":"%s","version":"%s","status":"running"}`,
			cfg.ServiceName, cfg.Version)
	})

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	log.Infof("HTTP server configured on %s", addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
