// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/shinoda11/opsboard/internal/domain/types"
)

// Kind discriminates the event union.
type Kind string

// Event kinds.
const (
	KindSales    Kind = "sales"
	KindForecast Kind = "forecast"
	KindPrep     Kind = "prep"
	KindDelivery Kind = "delivery"
	KindLabor    Kind = "labor"
	KindDecision Kind = "decision"
)

// DecisionAction is the lifecycle step carried by a decision event.
type DecisionAction string

// Decision actions.
const (
	ActionPending   DecisionAction = "pending"
	ActionApproved  DecisionAction = "approved"
	ActionRejected  DecisionAction = "rejected"
	ActionStarted   DecisionAction = "started"
	ActionCompleted DecisionAction = "completed"
)

// QualityStatus is the quest quality check outcome.
type QualityStatus string

// Quality statuses.
const (
	QualityOK QualityStatus = "ok"
	QualityNG QualityStatus = "ng"
)

// Event is one entry in the append-only domain log. Exactly one variant
// payload is non-nil, matching Kind. Events are never mutated; an update
// is a later event sharing the same correlation key.
type Event struct {
	ID      string    `json:"id"`
	StoreID string    `json:"store_id"`
	Kind    Kind      `json:"kind"`
	TS      time.Time `json:"ts"`

	Sales    *SalesPayload    `json:"sales,omitempty"`
	Forecast *ForecastPayload `json:"forecast,omitempty"`
	Prep     *PrepPayload     `json:"prep,omitempty"`
	Delivery *DeliveryPayload `json:"delivery,omitempty"`
	Labor    *LaborPayload    `json:"labor,omitempty"`
	Decision *DecisionPayload `json:"decision,omitempty"`
}

// SalesPayload records quantity sold for one menu item in one time band.
type SalesPayload struct {
	MenuItemID string         `json:"menu_item_id"`
	MenuName   string         `json:"menu_name"`
	Quantity   int            `json:"quantity"`
	Amount     float64        `json:"amount"`
	Channel    string         `json:"channel"`
	Band       types.TimeBand `json:"band"`
}

// ForecastPayload carries the projected full-day sales for a business date.
type ForecastPayload struct {
	BusinessDate  string  `json:"business_date"` // YYYY-MM-DD
	ForecastSales float64 `json:"forecast_sales"`
}

// PrepPayload records prepared stock against plan for one item.
type PrepPayload struct {
	MenuItemID      string `json:"menu_item_id"`
	Quantity        int    `json:"quantity"`
	PlannedQuantity int    `json:"planned_quantity"`
}

// DeliveryPayload records delivery-channel order volume.
type DeliveryPayload struct {
	Channel string  `json:"channel"`
	Orders  int     `json:"orders"`
	Amount  float64 `json:"amount"`
}

// LaborPayload records one staff shift: clock times, breaks, and cost.
type LaborPayload struct {
	StaffID          string    `json:"staff_id"`
	ClockIn          time.Time `json:"clock_in"`
	ClockOut         time.Time `json:"clock_out"`
	BreakCount       int       `json:"break_count"`
	BreakMinutes     int       `json:"break_minutes"`
	ScheduledMinutes int       `json:"scheduled_minutes"`
	Cost             float64   `json:"cost"`
}

// DecisionPayload is one step of a quest lifecycle. Steps of the same
// quest share ProposalID; current state is a fold over the chain.
type DecisionPayload struct {
	ProposalID       string         `json:"proposal_id"`
	Action           DecisionAction `json:"action"`
	AssigneeID       string         `json:"assignee_id"`
	TaskCardID       string         `json:"task_card_id"`
	EstimatedMinutes int            `json:"estimated_minutes"`
	ActualMinutes    int            `json:"actual_minutes"`
	Deadline         time.Time      `json:"deadline"`
	QualityStatus    QualityStatus  `json:"quality_status"`
	Priority         int            `json:"priority"`
}

// WorkedMinutes returns net shift minutes after breaks, floored at zero.
func (l *LaborPayload) WorkedMinutes() int {
	if l.ClockOut.Before(l.ClockIn) {
		return 0
	}
	worked := int(l.ClockOut.Sub(l.ClockIn).Minutes()) - l.BreakMinutes
	if worked < 0 {
		return 0
	}
	return worked
}

// OvertimeMinutes returns minutes worked beyond the scheduled shift.
func (l *LaborPayload) OvertimeMinutes() int {
	if l.ScheduledMinutes <= 0 {
		return 0
	}
	ot := l.WorkedMinutes() - l.ScheduledMinutes
	if ot < 0 {
		return 0
	}
	return ot
}

// BusinessDate returns the event's business date in the store-local day.
func (e *Event) BusinessDate() string {
	return e.TS.Format(time.DateOnly)
}
