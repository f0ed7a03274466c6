package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/types"
	"github.com/shinoda11/opsboard/pkg/metrics"
)

// EventLog implements Store with an in-memory per-store append-only log.
// Log order is preserved within a store; snapshot reads copy the slice so
// callers can never observe a concurrent append.
type EventLog struct {
	mu     sync.RWMutex
	events map[string][]model.Event // storeID -> log order
	staff  []model.Staff
	cards  []model.TaskCard
	total  int
}

// NewEventLog creates an empty event log store.
func NewEventLog(_ context.Context, opts ...Option) *EventLog {
	l := &EventLog{events: make(map[string][]model.Event)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds one event to its store's log.
func (l *EventLog) Append(_ context.Context, e model.Event) error {
	if err := validate(&e); err != nil {
		return err
	}

	l.mu.Lock()
	l.events[e.StoreID] = append(l.events[e.StoreID], e)
	l.total++
	total := l.total
	l.mu.Unlock()

	metrics.RecordEventAppended(string(e.Kind))
	metrics.UpdateEventLogSize(total)
	return nil
}

// SnapshotFor builds a consistent snapshot for one store.
func (l *EventLog) SnapshotFor(_ context.Context, storeID, from, to string, band types.TimeBand) (*model.Snapshot, error) {
	if storeID == "" {
		return nil, ErrStoreIDRequired
	}
	start := time.Now()

	l.mu.RLock()
	log := l.events[storeID]
	events := make([]model.Event, 0, len(log))
	for _, e := range log {
		d := e.BusinessDate()
		if from != "" && d < from {
			continue
		}
		if to != "" && d > to {
			continue
		}
		if e.Kind == model.KindSales && e.Sales != nil && !band.Contains(e.Sales.Band) {
			continue
		}
		events = append(events, e)
	}
	staff := make([]model.Staff, 0, len(l.staff))
	for _, s := range l.staff {
		if s.StoreID == "" || s.StoreID == storeID {
			staff = append(staff, s)
		}
	}
	cards := append([]model.TaskCard(nil), l.cards...)
	l.mu.RUnlock()

	metrics.RecordSnapshotLatency(float64(time.Since(start).Milliseconds()))
	return &model.Snapshot{
		StoreID:   storeID,
		Events:    events,
		Staff:     staff,
		TaskCards: cards,
	}, nil
}

// SetReference replaces the reference entities.
func (l *EventLog) SetReference(_ context.Context, staff []model.Staff, cards []model.TaskCard) {
	l.mu.Lock()
	l.staff = append([]model.Staff(nil), staff...)
	l.cards = append([]model.TaskCard(nil), cards...)
	l.mu.Unlock()
}

// Count returns the total number of events across stores.
func (l *EventLog) Count(_ context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Stores lists known store IDs, sorted.
func (l *EventLog) Stores(_ context.Context) []string {
	l.mu.RLock()
	ids := make([]string, 0, len(l.events))
	for id := range l.events {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// validate checks the event union shape: one payload, matching the kind.
func validate(e *model.Event) error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	if e.StoreID == "" {
		return fmt.Errorf("%w: missing store_id", ErrInvalidEvent)
	}
	if e.TS.IsZero() {
		return fmt.Errorf("%w: missing ts", ErrInvalidEvent)
	}

	payloads := 0
	var match bool
	for kind, set := range map[model.Kind]bool{
		model.KindSales:    e.Sales != nil,
		model.KindForecast: e.Forecast != nil,
		model.KindPrep:     e.Prep != nil,
		model.KindDelivery: e.Delivery != nil,
		model.KindLabor:    e.Labor != nil,
		model.KindDecision: e.Decision != nil,
	} {
		if set {
			payloads++
			if kind == e.Kind {
				match = true
			}
		}
	}
	if payloads != 1 || !match {
		return fmt.Errorf("%w: kind %q does not match payloads", ErrInvalidEvent, e.Kind)
	}
	return nil
}
