// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// ReportsHandler handles weekly report requests.
type ReportsHandler struct {
	deps Dependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleGetWeekly handles GET /reports/weekly?store=S&from=F&to=T requests.
func (h *ReportsHandler) HandleGetWeekly(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weekly_report"
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

	sum, err := h.deps.WeeklyReport(r.Context(), store, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
