// Package awards ranks staff across fixed award categories with evidence.
package awards

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/scoring"
)

// Category is one of the fixed award categories.
type Category string

// Award categories.
const (
	CategoryTimeMaster    Category = "time-master"
	CategoryQuestFinisher Category = "quest-finisher"
	CategoryTeamSaver     Category = "team-saver"
	CategoryQualityKeeper Category = "quality-keeper"
)

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{
		CategoryTimeMaster,
		CategoryQuestFinisher,
		CategoryTeamSaver,
		CategoryQualityKeeper,
	}
}

// Status is the award outcome for one category.
type Status string

// Award statuses. NotTracked means the category's required signal was
// absent for the whole period; NoWinner means the signal existed but the
// eligible pool was empty after filtering.
const (
	StatusAwarded    Status = "awarded"
	StatusNoWinner   Status = "no-winner"
	StatusNotTracked Status = "not-tracked"
)

// Nominee is one staff member's period stats, the input to every
// category comparator.
type Nominee struct {
	StaffID        string  `json:"staff_id"`
	Name           string  `json:"name"`
	StarLevel      int     `json:"star_level"`
	Score          int     `json:"score"`
	QuestsDone     int     `json:"quests_done"`
	DelayRate      float64 `json:"delay_rate"`
	QualityNgCount int     `json:"quality_ng_count"`
	HoursWorked    float64 `json:"hours_worked"`

	hasQuests bool
	hasLabor  bool
	scored    bool
}

// Comparator reports whether a should rank ahead of b. Every comparator
// ends on StaffID so ties never depend on input or map iteration order.
type Comparator func(a, b *Nominee) bool

// Comparators returns the category ranking policies.
func Comparators() map[Category]Comparator {
	return map[Category]Comparator{
		CategoryTimeMaster: func(a, b *Nominee) bool {
			if a.DelayRate != b.DelayRate {
				return a.DelayRate < b.DelayRate
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return a.StaffID < b.StaffID
		},
		CategoryQuestFinisher: func(a, b *Nominee) bool {
			if a.QuestsDone != b.QuestsDone {
				return a.QuestsDone > b.QuestsDone
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return a.StaffID < b.StaffID
		},
		CategoryTeamSaver: func(a, b *Nominee) bool {
			if a.HoursWorked != b.HoursWorked {
				return a.HoursWorked > b.HoursWorked
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return a.StaffID < b.StaffID
		},
		CategoryQualityKeeper: func(a, b *Nominee) bool {
			if a.QualityNgCount != b.QualityNgCount {
				return a.QualityNgCount < b.QualityNgCount
			}
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			return a.StaffID < b.StaffID
		},
	}
}

// ShiftRecord is one labor timeline entry in an evidence bundle.
type ShiftRecord struct {
	EventID         string    `json:"event_id"`
	ClockIn         time.Time `json:"clock_in"`
	ClockOut        time.Time `json:"clock_out"`
	BreakCount      int       `json:"break_count"`
	WorkedMinutes   int       `json:"worked_minutes"`
	OvertimeMinutes int       `json:"overtime_minutes"`
}

// Evidence is the backing data justifying a winner: their score
// breakdown, quest history, and labor timeline for the period. Built for
// the winner only.
type Evidence struct {
	Score         scoring.Result `json:"score"`
	QuestHistory  []model.Quest  `json:"quest_history"`
	LaborTimeline []ShiftRecord  `json:"labor_timeline"`
}

// Award is the outcome for one category.
type Award struct {
	Category Category  `json:"category"`
	Status   Status    `json:"status"`
	Winner   *Nominee  `json:"winner,omitempty"`
	Evidence *Evidence `json:"evidence,omitempty"`
}

// Engine ranks nominees per category.
type Engine struct {
	scorer      *scoring.Engine
	comparators map[Category]Comparator
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithComparators overrides the category ranking policies.
func WithComparators(c map[Category]Comparator) Option {
	return func(e *Engine) {
		if c != nil {
			e.comparators = c
		}
	}
}

// New constructs an Engine on top of a scoring engine.
func New(scorer *scoring.Engine, opts ...Option) (*Engine, error) {
	if scorer == nil {
		return nil, ErrNilScorer
	}
	e := &Engine{scorer: scorer, comparators: Comparators()}
	for _, opt := range opts {
		opt(e)
	}
	for _, c := range Categories() {
		if e.comparators[c] == nil {
			return nil, fmt.Errorf("%w: %q", ErrComparatorMissing, c)
		}
	}
	return e, nil
}

// Rank evaluates every category for the inclusive date range. Results are
// in fixed category order and identical across runs, including under
// nominee reordering: comparators end on StaffID and never rely on map
// iteration order.
func (e *Engine) Rank(ctx context.Context, snap *model.Snapshot, from, to string) ([]Award, error) {
	nominees, err := e.buildNominees(ctx, snap, from, to)
	if err != nil {
		return nil, err
	}

	awards := make([]Award, 0, len(Categories()))
	for _, cat := range Categories() {
		awards = append(awards, e.rankCategory(ctx, snap, cat, nominees, from, to))
	}
	return awards, nil
}

// buildNominees folds period stats for every staff member active in the
// period (at least one quest or labor event).
func (e *Engine) buildNominees(ctx context.Context, snap *model.Snapshot, from, to string) ([]*Nominee, error) {
	byStaff := make(map[string]*Nominee)
	get := func(staffID string) *Nominee {
		n := byStaff[staffID]
		if n == nil {
			n = &Nominee{StaffID: staffID}
			if st, ok := snap.StaffByID(staffID); ok {
				n.Name = st.Name
				n.StarLevel = st.StarLevel
			}
			byStaff[staffID] = n
		}
		return n
	}

	var completedByStaff = make(map[string]int)
	var lateByStaff = make(map[string]int)
	for _, q := range model.FoldQuests(snap.Events) {
		if q.AssigneeID == "" {
			continue
		}
		d := questDateInRange(q, from, to)
		if !d {
			continue
		}
		n := get(q.AssigneeID)
		n.hasQuests = true
		if q.Completed() {
			n.QuestsDone++
			completedByStaff[q.AssigneeID]++
			if q.CompletedLate() {
				lateByStaff[q.AssigneeID]++
			}
		}
		if q.QualityStatus == model.QualityNG {
			n.QualityNgCount++
		}
	}

	for _, ev := range snap.Events {
		if ev.Kind != model.KindLabor || ev.Labor == nil || ev.Labor.StaffID == "" {
			continue
		}
		if d := ev.BusinessDate(); d < from || d > to {
			continue
		}
		n := get(ev.Labor.StaffID)
		n.hasLabor = true
		n.HoursWorked += float64(ev.Labor.WorkedMinutes()) / 60
	}

	ids := make([]string, 0, len(byStaff))
	for id := range byStaff {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nominees := make([]*Nominee, 0, len(ids))
	for _, id := range ids {
		n := byStaff[id]
		if c := completedByStaff[id]; c > 0 {
			n.DelayRate = float64(lateByStaff[id]) / float64(c)
		}
		res, err := e.scorer.StaffScoreRange(ctx, snap, id, from, to)
		if err != nil {
			return nil, fmt.Errorf("score nominee %s: %w", id, err)
		}
		if res.Tracked {
			n.Score = res.Total
			n.scored = true
		}
		nominees = append(nominees, n)
	}
	return nominees, nil
}

func (e *Engine) rankCategory(ctx context.Context, snap *model.Snapshot, cat Category, nominees []*Nominee, from, to string) Award {
	award := Award{Category: cat}

	signal := false
	var eligible []*Nominee
	for _, n := range nominees {
		if hasSignal(cat, n) {
			signal = true
		}
		if isEligible(cat, n) {
			eligible = append(eligible, n)
		}
	}
	if !signal {
		award.Status = StatusNotTracked
		return award
	}
	if len(eligible) == 0 {
		award.Status = StatusNoWinner
		return award
	}

	less := e.comparators[cat]
	sort.SliceStable(eligible, func(i, j int) bool { return less(eligible[i], eligible[j]) })

	winner := eligible[0]
	award.Status = StatusAwarded
	award.Winner = winner
	award.Evidence = e.buildEvidence(ctx, snap, winner.StaffID, from, to)
	return award
}

// hasSignal reports whether the nominee carries the data stream the
// category depends on, regardless of eligibility.
func hasSignal(cat Category, n *Nominee) bool {
	switch cat {
	case CategoryTeamSaver:
		return n.hasLabor
	case CategoryTimeMaster, CategoryQuestFinisher, CategoryQualityKeeper:
		return n.hasQuests
	default:
		return false
	}
}

// isEligible gates nominees into a category's ranking pool.
func isEligible(cat Category, n *Nominee) bool {
	switch cat {
	case CategoryTimeMaster, CategoryQuestFinisher, CategoryQualityKeeper:
		return n.QuestsDone > 0 && n.scored
	case CategoryTeamSaver:
		return n.HoursWorked > 0 && n.scored
	default:
		return false
	}
}

// buildEvidence assembles the winner-scoped backing bundle.
func (e *Engine) buildEvidence(ctx context.Context, snap *model.Snapshot, staffID, from, to string) *Evidence {
	ev := &Evidence{}
	if res, err := e.scorer.StaffScoreRange(ctx, snap, staffID, from, to); err == nil {
		ev.Score = res
	}

	for _, q := range model.FoldQuests(snap.Events) {
		if q.AssigneeID != staffID || !questDateInRange(q, from, to) {
			continue
		}
		ev.QuestHistory = append(ev.QuestHistory, q)
	}

	var shifts []ShiftRecord
	for _, le := range snap.Events {
		if le.Kind != model.KindLabor || le.Labor == nil || le.Labor.StaffID != staffID {
			continue
		}
		if d := le.BusinessDate(); d < from || d > to {
			continue
		}
		shifts = append(shifts, ShiftRecord{
			EventID:         le.ID,
			ClockIn:         le.Labor.ClockIn,
			ClockOut:        le.Labor.ClockOut,
			BreakCount:      le.Labor.BreakCount,
			WorkedMinutes:   le.Labor.WorkedMinutes(),
			OvertimeMinutes: le.Labor.OvertimeMinutes(),
		})
	}
	sort.SliceStable(shifts, func(i, j int) bool { return shifts[i].ClockIn.Before(shifts[j].ClockIn) })
	ev.LaborTimeline = shifts
	return ev
}

// questDateInRange attributes a quest to its deadline date (assignment
// and completion as fallbacks) and checks the inclusive range.
func questDateInRange(q model.Quest, from, to string) bool {
	var d string
	switch {
	case !q.Deadline.IsZero():
		d = q.Deadline.Format(time.DateOnly)
	case !q.AssignedAt.IsZero():
		d = q.AssignedAt.Format(time.DateOnly)
	case !q.CompletedAt.IsZero():
		d = q.CompletedAt.Format(time.DateOnly)
	default:
		return false
	}
	return d >= from && d <= to
}
