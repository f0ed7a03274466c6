// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/awards"
	"github.com/shinoda11/opsboard/internal/domain/guardrail"
	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/rollup"
	"github.com/shinoda11/opsboard/internal/domain/scoring"
	"github.com/shinoda11/opsboard/internal/domain/trend"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Enqueue pushes an event for async processing. Duplicate IDs and
	// backpressure surface as sentinel errors.
	Enqueue(ctx context.Context, e model.Event) error

	// SetReference replaces the staff and task-card reference data.
	SetReference(ctx context.Context, staff []model.Staff, cards []model.TaskCard)

	// Read operations expose the projection engines.
	StaffScore(ctx context.Context, storeID, staffID, from, to string) (scoring.Result, error)
	TeamScore(ctx context.Context, storeID, from, to string) (scoring.Result, error)
	Guardrail(ctx context.Context, storeID, date string) (guardrail.Result, error)
	GuardrailProjection(ctx context.Context, storeID, date string, asOf time.Time) (guardrail.Projection, error)
	DemandDrops(ctx context.Context, storeID string, asOf time.Time) ([]trend.Drop, error)
	Awards(ctx context.Context, storeID, from, to string) ([]awards.Award, error)
	WeeklyReport(ctx context.Context, storeID, from, to string) (rollup.WeekSummary, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	eventsHandler    *EventsHandler
	referenceHandler *ReferenceHandler
	scoresHandler    *ScoresHandler
	guardrailHandler *GuardrailHandler
	trendsHandler    *TrendsHandler
	awardsHandler    *AwardsHandler
	reportsHandler   *ReportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		eventsHandler:    NewEventsHandler(deps),
		referenceHandler: NewReferenceHandler(deps),
		scoresHandler:    NewScoresHandler(deps),
		guardrailHandler: NewGuardrailHandler(deps),
		trendsHandler:    NewTrendsHandler(deps),
		awardsHandler:    NewAwardsHandler(deps),
		reportsHandler:   NewReportsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/reference", MetricsMiddleware(s.referenceHandler.HandlePutReference, "reference"))
	mux.HandleFunc("/scores/team", MetricsMiddleware(s.scoresHandler.HandleGetTeamScore, "scores_team"))
	mux.HandleFunc("/scores/staff/", MetricsMiddleware(s.scoresHandler.HandleGetStaffScore, "scores_staff"))
	mux.HandleFunc("/guardrail/projection", MetricsMiddleware(s.guardrailHandler.HandleGetProjection, "guardrail_projection"))
	mux.HandleFunc("/guardrail", MetricsMiddleware(s.guardrailHandler.HandleGetGuardrail, "guardrail"))
	mux.HandleFunc("/trends/demand-drops", MetricsMiddleware(s.trendsHandler.HandleGetDemandDrops, "trends_demand_drops"))
	mux.HandleFunc("/awards", MetricsMiddleware(s.awardsHandler.HandleGetAwards, "awards"))
	mux.HandleFunc("/reports/weekly", MetricsMiddleware(s.reportsHandler.HandleGetWeekly, "reports_weekly"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// storeParam extracts the mandatory store query parameter.
func storeParam(r *http.Request) (string, error) {
	store := r.URL.Query().Get("store")
	if store == "" {
		return "", ErrMissingStore
	}
	return store, nil
}

// dateRangeParams extracts from/to, falling back to a single date param
// for both bounds. Dates must be YYYY-MM-DD.
func dateRangeParams(r *http.Request) (from, to string, err error) {
	q := r.URL.Query()
	from, to = q.Get("from"), q.Get("to")
	if from == "" && to == "" {
		if d := q.Get("date"); d != "" {
			from, to = d, d
		}
	}
	if from == "" || to == "" {
		return "", "", ErrMissingDateRange
	}
	for _, d := range []string{from, to} {
		if _, perr := time.Parse(time.DateOnly, d); perr != nil {
			return "", "", ErrInvalidDate
		}
	}
	return from, to, nil
}

// asOfParam extracts an optional RFC3339 as_of parameter, defaulting to now.
func asOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
