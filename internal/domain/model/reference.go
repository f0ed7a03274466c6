package model

import "github.com/shinoda11/opsboard/internal/domain/types"

// Staff is a reference entity owned by the upstream store; the projection
// core only reads it.
type Staff struct {
	ID        string `json:"id"`
	StoreID   string `json:"store_id"`
	Name      string `json:"name"`
	StarLevel int    `json:"star_level"` // 1..3 skill tier
	RoleID    string `json:"role_id"`
}

// TaskCard is the catalog template a quest originates from. Its
// StandardMinutes defines the fair "on time" threshold for that quest,
// rather than a hardcoded constant.
type TaskCard struct {
	ID              string `json:"id"`
	CategoryID      string `json:"category_id"`
	Role            string `json:"role"`
	StarRequirement int    `json:"star_requirement"` // 1..3
	StandardMinutes int    `json:"standard_minutes"`
	XPReward        int    `json:"xp_reward"`
	Enabled         bool   `json:"enabled"`
}

// Snapshot is the uniform read-only input to every projection engine: a
// consistent slice of the event log plus reference data for one store.
type Snapshot struct {
	StoreID   string
	Events    []Event
	Staff     []Staff
	TaskCards []TaskCard
}

// TaskCardByID returns the task card with the given id, if present.
func (s *Snapshot) TaskCardByID(id string) (TaskCard, bool) {
	for _, c := range s.TaskCards {
		if c.ID == id {
			return c, true
		}
	}
	return TaskCard{}, false
}

// StaffByID returns the staff member with the given id, if present.
func (s *Snapshot) StaffByID(id string) (Staff, bool) {
	for _, st := range s.Staff {
		if st.ID == id {
			return st, true
		}
	}
	return Staff{}, false
}

// EventsOfKind returns events of one kind, preserving log order.
func (s *Snapshot) EventsOfKind(kind Kind) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// EventsOn returns events whose business date matches date (YYYY-MM-DD),
// optionally restricted to one time band for sales events.
func (s *Snapshot) EventsOn(date string, band types.TimeBand) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.BusinessDate() != date {
			continue
		}
		if e.Kind == KindSales && e.Sales != nil && !band.Contains(e.Sales.Band) {
			continue
		}
		out = append(out, e)
	}
	return out
}
