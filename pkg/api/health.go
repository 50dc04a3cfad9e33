package api

import (
	"net/http"
	"time"
)

// HealthResponse is the health check body
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// handleHealth is a liveness check: 200 whenever the process is serving
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.cfg.ServiceName,
		Timestamp: time.Now().UTC(),
	})
}
