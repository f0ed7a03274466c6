// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// TrendsHandler handles demand-drop detection requests.
type TrendsHandler struct {
	deps Dependencies
}

// NewTrendsHandler creates a new trends handler.
func NewTrendsHandler(deps Dependencies) *TrendsHandler {
	return &TrendsHandler{deps: deps}
}

// HandleGetDemandDrops handles GET /trends/demand-drops?store=S requests.
func (h *TrendsHandler) HandleGetDemandDrops(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_demand_drops"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	store, err := storeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	drops, err := h.deps.DemandDrops(r.Context(), store, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, drops)
}
