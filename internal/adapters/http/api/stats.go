// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes a point-in-time snapshot of the ingestion pipeline:
// started flag, worker and queue sizing, dedupe occupancy and event counts.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves pipeline snapshots for operators.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// HandleStats handles GET /stats requests. The snapshot is stamped with the
// observation time so operators can tell a stale poll from a quiet store.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats := h.provider.GetStats()
	stats["observedAt"] = time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, stats)
}
