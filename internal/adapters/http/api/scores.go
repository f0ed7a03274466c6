// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shinoda11/opsboard/internal/domain/scoring"
)

// ScoresHandler handles staff and team score requests.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleGetStaffScore handles GET /scores/staff/{staff_id} requests.
func (h *ScoresHandler) HandleGetStaffScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_staff_score"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	staffID := strings.TrimPrefix(r.URL.Path, "/scores/staff/")
	if staffID == "" || strings.Contains(staffID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
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

	res, err := h.deps.StaffScore(r.Context(), store, staffID, from, to)
	if err != nil {
		writeScoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetTeamScore handles GET /scores/team requests.
func (h *ScoresHandler) HandleGetTeamScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_team_score"
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

	res, err := h.deps.TeamScore(r.Context(), store, from, to)
	if err != nil {
		writeScoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeScoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, scoring.ErrInvalidDate) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
}
