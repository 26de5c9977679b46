// Package triageapi exposes the claim triage calculator over HTTP.
package triageapi

import (
	"encoding/json"
	"net/http"

	"triguard/internal/metrics"
	"triguard/internal/triage"
	"triguard/pkg/logger"
)

// Handler serves POST /api/v1/triage.
type Handler struct {
	log *logger.Logger
}

// NewHandler creates a triage API handler
func NewHandler() *Handler {
	return &Handler{log: logger.Get().With("component", "triage_api")}
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleAssess decodes a triage request, scores it and returns the
// assessment as JSON.
func (h *Handler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		metrics.TriageRequests.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var in triage.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		metrics.TriageRequests.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	assessment, err := triage.Assess(in)
	if err != nil {
		metrics.TriageRequests.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	metrics.TriageRequests.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, assessment)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
