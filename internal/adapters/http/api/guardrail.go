// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// GuardrailHandler handles labor-cost guardrail requests.
type GuardrailHandler struct {
	deps Dependencies
}

// NewGuardrailHandler creates a new guardrail handler.
func NewGuardrailHandler(deps Dependencies) *GuardrailHandler {
	return &GuardrailHandler{deps: deps}
}

// HandleGetGuardrail handles GET /guardrail?store=S&date=D requests.
func (h *GuardrailHandler) HandleGetGuardrail(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_guardrail"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	store, date, ok := h.params(w, r, op)
	if !ok {
		return
	}

	res, err := h.deps.Guardrail(r.Context(), store, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetProjection handles GET /guardrail/projection requests. The
// optional as_of parameter pins the extrapolation point.
func (h *GuardrailHandler) HandleGetProjection(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_guardrail_projection"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	store, date, ok := h.params(w, r, op)
	if !ok {
		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	proj, err := h.deps.GuardrailProjection(r.Context(), store, date, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (h *GuardrailHandler) params(w http.ResponseWriter, r *http.Request, op string) (store, date string, ok bool) {
	store, err := storeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return "", "", false
	}
	date, _, err = dateRangeParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return "", "", false
	}
	return store, date, true
}
