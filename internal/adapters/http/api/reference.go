// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/shinoda11/opsboard/internal/domain/model"
)

// ReferenceHandler handles reference-data replacement requests.
type ReferenceHandler struct {
	deps Dependencies
}

// NewReferenceHandler creates a new reference handler.
func NewReferenceHandler(deps Dependencies) *ReferenceHandler {
	return &ReferenceHandler{deps: deps}
}

// referenceRequest mirrors the PUT /reference body.
type referenceRequest struct {
	Staff     []model.Staff    `json:"staff"`
	TaskCards []model.TaskCard `json:"task_cards"`
}

// HandlePutReference handles PUT /reference requests. The body replaces
// the full staff and task-card sets.
func (h *ReferenceHandler) HandlePutReference(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_reference"
	if r.Method != http.MethodPut {
		http.NotFound(w, r)
		return
	}
	var req referenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	h.deps.SetReference(r.Context(), req.Staff, req.TaskCards)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"staff":      len(req.Staff),
		"task_cards": len(req.TaskCards),
	})
}
