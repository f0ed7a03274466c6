// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// AwardsHandler handles award ranking requests.
type AwardsHandler struct {
	deps Dependencies
}

// NewAwardsHandler creates a new awards handler.
func NewAwardsHandler(deps Dependencies) *AwardsHandler {
	return &AwardsHandler{deps: deps}
}

// HandleGetAwards handles GET /awards?store=S&from=F&to=T requests.
func (h *AwardsHandler) HandleGetAwards(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_awards"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	store, err := storeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	from, to, err := dateRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	out, err := h.deps.Awards(r.Context(), store, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}
