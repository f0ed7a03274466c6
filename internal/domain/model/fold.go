package model

import (
	"sort"
	"time"
)

// Quest is the folded current state of one decision-event chain. A
// reassignment or update never mutates an earlier event; it appends a new
// one sharing ProposalID, so current state is a left fold over the chain.
type Quest struct {
	ProposalID       string
	StoreID          string
	AssigneeID       string
	TaskCardID       string
	Action           DecisionAction
	EstimatedMinutes int
	ActualMinutes    int
	Deadline         time.Time
	QualityStatus    QualityStatus
	Priority         int

	AssignedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	// EventIDs links the folded state back to its source events for
	// evidence trails, in fold order.
	EventIDs []string
}

// Completed reports whether the quest reached the completed action.
func (q *Quest) Completed() bool { return q.Action == ActionCompleted }

// Cancelled reports whether the quest was rejected.
func (q *Quest) Cancelled() bool { return q.Action == ActionRejected }

// CompletedLate reports whether the quest completed after its deadline.
func (q *Quest) CompletedLate() bool {
	return q.Completed() && !q.Deadline.IsZero() && q.CompletedAt.After(q.Deadline)
}

// OverduePending reports whether the quest is past its deadline without a
// completion, as of asOf.
func (q *Quest) OverduePending(asOf time.Time) bool {
	if q.Completed() || q.Deadline.IsZero() {
		return false
	}
	return asOf.After(q.Deadline)
}

// DelayMinutes returns how many minutes past the deadline the quest
// completed, zero when on time or not completed.
func (q *Quest) DelayMinutes() int {
	if !q.CompletedLate() {
		return 0
	}
	return int(q.CompletedAt.Sub(q.Deadline).Minutes())
}

// FoldQuests folds all decision events into quest current states. Events
// are grouped by ProposalID and ordered by timestamp; equal timestamps
// and duplicate event IDs resolve by later log position. The log itself
// is not globally time-sorted, so chains are sorted here before folding.
// Output is ordered by ProposalID for determinism.
func FoldQuests(events []Event) []Quest {
	type positioned struct {
		ev  Event
		pos int
	}
	chains := make(map[string][]positioned)
	for i, e := range events {
		if e.Kind != KindDecision || e.Decision == nil || e.Decision.ProposalID == "" {
			continue
		}
		key := e.Decision.ProposalID
		chains[key] = append(chains[key], positioned{ev: e, pos: i})
	}

	keys := make([]string, 0, len(chains))
	for k := range chains {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	quests := make([]Quest, 0, len(keys))
	for _, key := range keys {
		chain := chains[key]
		sort.SliceStable(chain, func(i, j int) bool {
			if !chain[i].ev.TS.Equal(chain[j].ev.TS) {
				return chain[i].ev.TS.Before(chain[j].ev.TS)
			}
			return chain[i].pos < chain[j].pos
		})
		// For duplicated event IDs, keep only the last occurrence.
		lastPos := make(map[string]int, len(chain))
		for _, p := range chain {
			lastPos[p.ev.ID] = p.pos
		}

		q := Quest{ProposalID: key}
		for _, p := range chain {
			if lastPos[p.ev.ID] != p.pos {
				continue
			}
			q.apply(p.ev)
		}
		quests = append(quests, q)
	}
	return quests
}

// apply is the per-event state transition of the quest fold.
func (q *Quest) apply(e Event) {
	d := e.Decision
	q.StoreID = e.StoreID
	q.Action = d.Action
	q.EventIDs = append(q.EventIDs, e.ID)

	if d.AssigneeID != "" {
		q.AssigneeID = d.AssigneeID
	}
	if d.TaskCardID != "" {
		q.TaskCardID = d.TaskCardID
	}
	if d.EstimatedMinutes > 0 {
		q.EstimatedMinutes = d.EstimatedMinutes
	}
	if !d.Deadline.IsZero() {
		q.Deadline = d.Deadline
	}
	if d.QualityStatus != "" {
		q.QualityStatus = d.QualityStatus
	}
	if d.Priority > 0 {
		q.Priority = d.Priority
	}

	switch d.Action {
	case ActionPending, ActionApproved:
		if q.AssignedAt.IsZero() {
			q.AssignedAt = e.TS
		}
	case ActionStarted:
		q.StartedAt = e.TS
	case ActionCompleted:
		q.CompletedAt = e.TS
		if d.ActualMinutes > 0 {
			q.ActualMinutes = d.ActualMinutes
		} else if !q.StartedAt.IsZero() {
			q.ActualMinutes = int(e.TS.Sub(q.StartedAt).Minutes())
		}
	case ActionRejected:
		// terminal; no extra state beyond Action
	}
}
