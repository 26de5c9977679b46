package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"triguard/internal/adapters/clickhouse"
	"triguard/pkg/logger"
)

// Handler provides health check endpoints. Postgres and ClickHouse are
// optional: a CSV-sourced deployment runs with neither.
type Handler struct {
	log         *logger.Logger
	postgres    *sqlx.DB
	clickhouse  *clickhouse.Client
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(log *logger.Logger, postgres *sqlx.DB, ch *clickhouse.Client, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		postgres:    postgres,
		clickhouse:  ch,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// HandleReadiness checks if service is ready to accept traffic
// Used by Kubernetes readiness probe
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]ComponentHealth)
	allHealthy := true

	if h.postgres != nil {
		pgHealth := h.checkPostgres(ctx)
		checks["postgres"] = pgHealth
		if pgHealth.Status != "healthy" {
			allHealthy = false
		}
	}
	if h.clickhouse != nil {
		chHealth := h.checkClickHouse(ctx)
		checks["clickhouse"] = chHealth
		if chHealth.Status != "healthy" {
			allHealthy = false
		}
	}

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if !allHealthy {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warn("Readiness check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(status)
}

// HandleHealth reports the same checks as readiness but always with 200,
// for dashboards that want the detail without flapping probes.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]ComponentHealth)
	if h.postgres != nil {
		checks["postgres"] = h.checkPostgres(ctx)
	}
	if h.clickhouse != nil {
		checks["clickhouse"] = h.checkClickHouse(ctx)
	}

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
	for _, c := range checks {
		if c.Status != "healthy" {
			status.Status = "degraded"
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(status)
}

func (h *Handler) checkPostgres(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := h.postgres.PingContext(ctx); err != nil {
		return ComponentHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: time.Since(start).String(),
	}
}

func (h *Handler) checkClickHouse(ctx context.Context) ComponentHealth {
	start := time.Now()
	if err := h.clickhouse.Health(ctx); err != nil {
		return ComponentHealth{Status: "unhealthy", Error: err.Error()}
	}
	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: time.Since(start).String(),
	}
}
