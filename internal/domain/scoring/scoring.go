// Package scoring computes gamified performance scores from the event log.
//
// A score is four weighted sub-scores (task completion, time variance,
// break compliance, zero overtime) summing to 0-100, plus an ordered list
// of explainable deductions linked back to source events. Everything is
// recomputed from the snapshot on each call; there is no internal state.
package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/types"
)

// Breakdown is the four named sub-scores. Total always equals their sum.
type Breakdown struct {
	TaskCompletion  int `json:"task_completion"`  // 0-40
	TimeVariance    int `json:"time_variance"`    // 0-25
	BreakCompliance int `json:"break_compliance"` // 0-15
	ZeroOvertime    int `json:"zero_overtime"`    // 0-20
}

// Total sums the sub-scores.
func (b Breakdown) Total() int {
	return b.TaskCompletion + b.TimeVariance + b.BreakCompliance + b.ZeroOvertime
}

// Result is a staff or team score for a business date range. Tracked is
// false when the subject had no quests and no labor events in the range;
// that state is distinct from a score of zero and the numeric fields are
// meaningless when it is false.
type Result struct {
	StaffID string `json:"staff_id,omitempty"` // empty for team scores
	From    string `json:"from"`
	To      string `json:"to"`
	Tracked bool   `json:"tracked"`

	Breakdown Breakdown   `json:"breakdown"`
	Total     int         `json:"total"`
	Grade     types.Grade `json:"grade"`
	Stars     int         `json:"stars"`

	QuestsTotal     int `json:"quests_total"`
	QuestsCompleted int `json:"quests_completed"`
	QuestsOnTime    int `json:"quests_on_time"`
	OvertimeMinutes int `json:"overtime_minutes"`

	// Deductions is the full audit list; TopDeductions is the capped
	// display view. Both sorted by points desc, earliest source first.
	Deductions    []Deduction `json:"deductions"`
	TopDeductions []Deduction `json:"top_deductions"`
}

// Engine scores staff and teams against an injected policy.
type Engine struct {
	policy Policy
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPolicy overrides the scoring policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// New constructs an Engine, validating its policy.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.policy.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// StaffScore computes one staff member's score for a single business date.
func (e *Engine) StaffScore(ctx context.Context, snap *model.Snapshot, staffID, date string) (Result, error) {
	return e.score(ctx, snap, staffID, date, date)
}

// StaffScoreRange computes one staff member's score across an inclusive
// date range, used by award nominations.
func (e *Engine) StaffScoreRange(ctx context.Context, snap *model.Snapshot, staffID, from, to string) (Result, error) {
	return e.score(ctx, snap, staffID, from, to)
}

// TeamScore computes the team score for a single business date. The team
// score folds the union of all staff events, not an average of individual
// scores.
func (e *Engine) TeamScore(ctx context.Context, snap *model.Snapshot, date string) (Result, error) {
	return e.score(ctx, snap, "", date, date)
}

// TeamScoreRange computes the team score across an inclusive date range,
// used by the weekly review.
func (e *Engine) TeamScoreRange(ctx context.Context, snap *model.Snapshot, from, to string) (Result, error) {
	return e.score(ctx, snap, "", from, to)
}

func (e *Engine) score(_ context.Context, snap *model.Snapshot, staffID, from, to string) (Result, error) {
	if _, err := time.Parse(time.DateOnly, from); err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidDate, from)
	}
	end, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidDate, to)
	}
	// Overdue checks run against the end of the scored period.
	asOf := end.Add(24 * time.Hour)

	quests := selectQuests(snap, staffID, from, to)
	shifts := selectShifts(snap, staffID, from, to)

	r := Result{StaffID: staffID, From: from, To: to}
	if len(quests) == 0 && len(shifts) == 0 {
		return r, nil // not tracked, never a zero score
	}
	r.Tracked = true

	var deductions []Deduction
	r.Breakdown.TaskCompletion, r.QuestsTotal, r.QuestsCompleted, r.QuestsOnTime =
		e.taskCompletion(quests, asOf, &deductions)
	r.Breakdown.TimeVariance = e.timeVariance(snap, quests, &deductions)
	r.Breakdown.BreakCompliance = e.breakCompliance(shifts, &deductions)
	r.Breakdown.ZeroOvertime, r.OvertimeMinutes = e.zeroOvertime(shifts, &deductions)

	sortDeductions(deductions)
	r.Deductions = deductions
	if len(deductions) > e.policy.DisplayDeductions {
		r.TopDeductions = deductions[:e.policy.DisplayDeductions]
	} else {
		r.TopDeductions = deductions
	}

	r.Total = r.Breakdown.Total()
	r.Grade = types.GradeOf(r.Total)
	r.Stars = types.StarsOf(r.Total)
	return r, nil
}

// taskCompletion scales the on-time completion ratio to 40 points, with a
// fixed extra penalty per quest that blew its deadline without completing.
func (e *Engine) taskCompletion(quests []model.Quest, asOf time.Time, out *[]Deduction) (sub, total, completed, onTime int) {
	total = len(quests)
	if total == 0 {
		return MaxTaskCompletion, 0, 0, 0
	}

	type offender struct {
		quest  model.Quest
		weight float64
		reason string
	}
	var offenders []offender
	penalties := 0
	for _, q := range quests {
		switch {
		case q.Completed() && !q.CompletedLate():
			completed++
			onTime++
		case q.Completed():
			completed++
			offenders = append(offenders, offender{q, 1, "quest completed past deadline"})
		case q.Cancelled() && q.Deadline.Before(asOf) && !q.Deadline.IsZero():
			penalties += e.policy.LatePenalty
			offenders = append(offenders, offender{q, 1 + float64(e.policy.LatePenalty), "quest cancelled past deadline"})
		case q.OverduePending(asOf):
			penalties += e.policy.LatePenalty
			offenders = append(offenders, offender{q, 1 + float64(e.policy.LatePenalty), "quest not completed by deadline"})
		default:
			offenders = append(offenders, offender{q, 1, "quest not completed"})
		}
	}

	base := int(math.Round(float64(MaxTaskCompletion) * float64(onTime) / float64(total)))
	sub = clamp(base-penalties, 0, MaxTaskCompletion)

	lost := MaxTaskCompletion - sub
	if lost > 0 && len(offenders) > 0 {
		weights := make([]float64, len(offenders))
		for i, o := range offenders {
			weights[i] = o.weight
		}
		points := distributePoints(lost, weights)
		for i, o := range offenders {
			if points[i] == 0 {
				continue
			}
			d := Deduction{
				Category:  CategoryTask,
				Points:    points[i],
				Reason:    o.reason,
				EventType: model.KindDecision,
				EventIDs:  o.quest.EventIDs,
				SourceTS:  questSourceTS(o.quest),
			}
			if !o.quest.Deadline.IsZero() {
				d.Detail = &Detail{Expected: o.quest.Deadline.Format(time.RFC3339)}
				if !o.quest.CompletedAt.IsZero() {
					d.Detail.Actual = o.quest.CompletedAt.Format(time.RFC3339)
				}
			}
			*out = append(*out, d)
		}
	}
	return sub, total, completed, onTime
}

// timeVariance averages per-quest duration credit across completed quests
// and scales it to 25. The allowed duration comes from the originating
// task card's standard minutes widened by the tolerance ratio; the
// event's own estimate is only a fallback for quests without a card.
func (e *Engine) timeVariance(snap *model.Snapshot, quests []model.Quest, out *[]Deduction) int {
	type overrun struct {
		quest   model.Quest
		allowed int
		deficit float64 // 1 - credit
	}
	var (
		credits  float64
		scored   int
		overruns []overrun
	)
	for _, q := range quests {
		if !q.Completed() || q.ActualMinutes <= 0 {
			continue
		}
		standard := q.EstimatedMinutes
		if card, ok := snap.TaskCardByID(q.TaskCardID); ok && card.StandardMinutes > 0 {
			standard = card.StandardMinutes
		}
		if standard <= 0 {
			continue
		}
		allowed := float64(standard) * (1 + e.policy.ToleranceRatio)
		scored++
		if float64(q.ActualMinutes) <= allowed {
			credits++
			continue
		}
		credit := 1 - (float64(q.ActualMinutes)-allowed)/allowed
		if credit < 0 {
			credit = 0
		}
		credits += credit
		overruns = append(overruns, overrun{quest: q, allowed: int(math.Round(allowed)), deficit: 1 - credit})
	}
	if scored == 0 {
		return MaxTimeVariance // no duration signal, nothing to deduct
	}

	sub := clamp(int(math.Round(float64(MaxTimeVariance)*credits/float64(scored))), 0, MaxTimeVariance)
	lost := MaxTimeVariance - sub
	if lost > 0 && len(overruns) > 0 {
		weights := make([]float64, len(overruns))
		for i, o := range overruns {
			weights[i] = o.deficit
		}
		points := distributePoints(lost, weights)
		for i, o := range overruns {
			if points[i] == 0 {
				continue
			}
			*out = append(*out, Deduction{
				Category: CategoryTime,
				Points:   points[i],
				Reason:   "quest ran over standard time",
				Detail: &Detail{
					Expected: fmt.Sprintf("%dm", o.allowed),
					Actual:   fmt.Sprintf("%dm", o.quest.ActualMinutes),
				},
				EventType: model.KindDecision,
				EventIDs:  o.quest.EventIDs,
				SourceTS:  questSourceTS(o.quest),
			})
		}
	}
	return sub
}

// breakCompliance compares breaks taken against breaks expected for the
// shift lengths. Short shifts expect none; full credit when nothing was
// expected or everything expected was taken.
func (e *Engine) breakCompliance(shifts []model.Event, out *[]Deduction) int {
	type shortfall struct {
		ev       model.Event
		expected int
		taken    int
	}
	var (
		expectedTotal, takenTotal int
		shortfalls                []shortfall
	)
	for _, ev := range shifts {
		l := ev.Labor
		expected := l.WorkedMinutes() / e.policy.MinutesPerBreak
		expectedTotal += expected
		takenTotal += l.BreakCount
		if l.BreakCount < expected {
			shortfalls = append(shortfalls, shortfall{ev: ev, expected: expected, taken: l.BreakCount})
		}
	}
	if expectedTotal == 0 || takenTotal >= expectedTotal {
		return MaxBreakCompliance
	}

	sub := clamp(int(math.Round(float64(MaxBreakCompliance)*float64(takenTotal)/float64(expectedTotal))), 0, MaxBreakCompliance)
	lost := MaxBreakCompliance - sub
	if lost > 0 && len(shortfalls) > 0 {
		weights := make([]float64, len(shortfalls))
		for i, s := range shortfalls {
			weights[i] = float64(s.expected - s.taken)
		}
		points := distributePoints(lost, weights)
		for i, s := range shortfalls {
			if points[i] == 0 {
				continue
			}
			*out = append(*out, Deduction{
				Category: CategoryBreak,
				Points:   points[i],
				Reason:   "breaks short of expected",
				Detail: &Detail{
					Expected: fmt.Sprintf("%d", s.expected),
					Actual:   fmt.Sprintf("%d", s.taken),
				},
				EventType: model.KindLabor,
				EventIDs:  []string{s.ev.ID},
				SourceTS:  s.ev.TS,
			})
		}
	}
	return sub
}

// zeroOvertime grants full credit at zero overtime and deducts one point
// per configured overtime-minute span, floored at zero.
func (e *Engine) zeroOvertime(shifts []model.Event, out *[]Deduction) (int, int) {
	type over struct {
		ev      model.Event
		minutes int
	}
	var (
		totalOT int
		overs   []over
	)
	for _, ev := range shifts {
		if ot := ev.Labor.OvertimeMinutes(); ot > 0 {
			totalOT += ot
			overs = append(overs, over{ev: ev, minutes: ot})
		}
	}
	if totalOT == 0 {
		return MaxZeroOvertime, 0
	}

	lost := ceilDiv(totalOT, e.policy.OvertimeMinutesPerPoint)
	if lost > MaxZeroOvertime {
		lost = MaxZeroOvertime
	}
	weights := make([]float64, len(overs))
	for i, o := range overs {
		weights[i] = float64(o.minutes)
	}
	points := distributePoints(lost, weights)
	for i, o := range overs {
		if points[i] == 0 {
			continue
		}
		*out = append(*out, Deduction{
			Category: CategoryOvertime,
			Points:   points[i],
			Reason:   "overtime worked",
			Detail: &Detail{
				Expected: "0m",
				Actual:   fmt.Sprintf("%dm", o.minutes),
			},
			EventType: model.KindLabor,
			EventIDs:  []string{o.ev.ID},
			SourceTS:  o.ev.TS,
		})
	}
	return MaxZeroOvertime - lost, totalOT
}

// selectQuests folds the snapshot's decision chains and keeps quests for
// the assignee (empty means everyone) attributed to the date range.
func selectQuests(snap *model.Snapshot, staffID, from, to string) []model.Quest {
	var out []model.Quest
	for _, q := range model.FoldQuests(snap.Events) {
		if staffID != "" && q.AssigneeID != staffID {
			continue
		}
		d := questDate(q)
		if d == "" || d < from || d > to {
			continue
		}
		out = append(out, q)
	}
	return out
}

// selectShifts keeps labor events for the staff member (empty means
// everyone) inside the date range.
func selectShifts(snap *model.Snapshot, staffID, from, to string) []model.Event {
	var out []model.Event
	for _, e := range snap.EventsOfKind(model.KindLabor) {
		if e.Labor == nil {
			continue
		}
		if staffID != "" && e.Labor.StaffID != staffID {
			continue
		}
		if d := e.BusinessDate(); d < from || d > to {
			continue
		}
		out = append(out, e)
	}
	return out
}

// questDate attributes a quest to a business date: deadline first, then
// assignment, then completion.
func questDate(q model.Quest) string {
	switch {
	case !q.Deadline.IsZero():
		return q.Deadline.Format(time.DateOnly)
	case !q.AssignedAt.IsZero():
		return q.AssignedAt.Format(time.DateOnly)
	case !q.CompletedAt.IsZero():
		return q.CompletedAt.Format(time.DateOnly)
	default:
		return ""
	}
}

// questSourceTS picks the earliest known timestamp of a quest chain for
// deterministic tie-breaking of deductions.
func questSourceTS(q model.Quest) time.Time {
	switch {
	case !q.AssignedAt.IsZero():
		return q.AssignedAt
	case !q.StartedAt.IsZero():
		return q.StartedAt
	default:
		return q.CompletedAt
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
