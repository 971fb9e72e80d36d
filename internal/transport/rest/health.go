package rest

import (
	"encoding/json"
	"net/http"
	"time"
)

// Probe reports the status of one component.
type Probe func() CompStatus

// HealthHandler serves the overlay's status endpoint.
type HealthHandler struct {
	probes  map[string]Probe
	version string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(version string, probes map[string]Probe) *HealthHandler {
	return &HealthHandler{probes: probes, version: version}
}

// HealthResponse is the JSON response for /health.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component. Only "down" fails
// the check; a disconnected mpv pipe is reported but does not.
type CompStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Health runs every probe: 200 if none is down, 503 otherwise.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	components := make(map[string]CompStatus, len(h.probes))
	overallStatus := "ok"

	for name, probe := range h.probes {
		st := probe()
		components[name] = st
		if st.Status == "down" {
			overallStatus = "down"
		}
	}

	status := http.StatusOK
	if overallStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     overallStatus,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
