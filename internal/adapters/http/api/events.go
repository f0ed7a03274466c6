// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/shinoda11/opsboard/internal/app"
	"github.com/shinoda11/opsboard/internal/domain/model"
)

// EventsHandler handles event ingestion requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var ev model.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateEvent(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// The service owns idempotency: a duplicate ID is acknowledged, a
	// full queue rolls the ID back so the producer can retry.
	if err := h.deps.Enqueue(r.Context(), ev); err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEvent):
			writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		default:
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		}
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

// validateEvent checks the envelope fields and that the payload matches
// the declared kind. Payload content is validated again on append.
func validateEvent(e *model.Event) error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return errors.New("missing id")
	case strings.TrimSpace(e.StoreID) == "":
		return errors.New("missing store_id")
	case e.Kind == "":
		return errors.New("missing kind")
	case e.TS.IsZero():
		return errors.New("missing ts")
	}

	var ok bool
	switch e.Kind {
	case model.KindSales:
		ok = e.Sales != nil
	case model.KindForecast:
		ok = e.Forecast != nil
	case model.KindPrep:
		ok = e.Prep != nil
	case model.KindDelivery:
		ok = e.Delivery != nil
	case model.KindLabor:
		ok = e.Labor != nil
	case model.KindDecision:
		ok = e.Decision != nil
	default:
		return errors.New("unknown kind")
	}
	if !ok {
		return errors.New("missing payload for kind " + string(e.Kind))
	}
	return nil
}
