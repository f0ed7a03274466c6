// Package rollup folds daily derived rows into weekly review summaries.
package rollup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/scoring"
	"github.com/shinoda11/opsboard/internal/domain/types"
)

// Issue flags why a day is listed among the week's weak days.
type Issue string

// Weak-day issue kinds.
const (
	IssueLowScore   Issue = "low_score"
	IssueOvertime   Issue = "overtime"
	IssueQuestDelay Issue = "quest_delay"
)

// SkillMix counts staff on shift by star level.
type SkillMix struct {
	Star1 int `json:"star1"`
	Star2 int `json:"star2"`
	Star3 int `json:"star3"`
}

// DailyRow is one derived day inside a week summary.
type DailyRow struct {
	Date            string                `json:"date"`
	Sales           float64               `json:"sales"`
	LaborCost       float64               `json:"labor_cost"`
	LaborRate       types.Metric[float64] `json:"labor_rate"`
	Score           types.Metric[int]     `json:"score"`
	OvertimeMinutes int                   `json:"overtime_minutes"`
	QuestDelays     int                   `json:"quest_delays"`
	SkillMix        SkillMix              `json:"skill_mix"`
}

// WinningMix is the best-scoring day with its skill mix, surfaced as a
// coaching exemplar.
type WinningMix struct {
	Date  string   `json:"date"`
	Score int      `json:"score"`
	Mix   SkillMix `json:"mix"`
}

// WeakDay is a day flagged by one or more issues.
type WeakDay struct {
	Date   string  `json:"date"`
	Issues []Issue `json:"issues"`
}

// ChronicDelay is a task card whose quests recurred late across the
// period, with the average delay magnitude.
type ChronicDelay struct {
	TaskCardID      string  `json:"task_card_id"`
	Occurrences     int     `json:"occurrences"`
	AvgDelayMinutes float64 `json:"avg_delay_minutes"`
}

// WeekSummary is the weekly roll-up of daily derived rows. Averages are
// null-safe: days without data are excluded, never counted as zero.
type WeekSummary struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Days []DailyRow `json:"days"`

	TotalSales           float64               `json:"total_sales"`
	TotalLaborCost       float64               `json:"total_labor_cost"`
	TotalHours           float64               `json:"total_hours"`
	TotalOvertimeMinutes int                   `json:"total_overtime_minutes"`
	AvgLaborRate         types.Metric[float64] `json:"avg_labor_rate"`
	AvgDayScore          types.Metric[float64] `json:"avg_day_score"`

	WinningMix         *WinningMix    `json:"winning_mix,omitempty"`
	WeakDays           []WeakDay      `json:"weak_days"`
	ChronicDelayQuests []ChronicDelay `json:"chronic_delay_quests"`
}

// Aggregator builds week summaries on top of the scoring engine.
type Aggregator struct {
	scorer *scoring.Engine

	lowScoreCut     int
	chronicMinCount int
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithLowScoreCut sets the day score below which a day is flagged weak.
func WithLowScoreCut(cut int) Option {
	return func(a *Aggregator) {
		if cut > 0 {
			a.lowScoreCut = cut
		}
	}
}

// WithChronicThreshold sets how many recurrences make a delay chronic.
func WithChronicThreshold(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.chronicMinCount = n
		}
	}
}

// New constructs an Aggregator.
func New(scorer *scoring.Engine, opts ...Option) (*Aggregator, error) {
	if scorer == nil {
		return nil, ErrNilScorer
	}
	a := &Aggregator{
		scorer:          scorer,
		lowScoreCut:     60,
		chronicMinCount: 2,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// WeekSummary rolls the inclusive date range up into a summary. The range
// is normally seven days but any span works.
func (a *Aggregator) WeekSummary(ctx context.Context, snap *model.Snapshot, from, to string) (WeekSummary, error) {
	start, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return WeekSummary{}, fmt.Errorf("%w: %q", ErrInvalidRange, from)
	}
	end, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return WeekSummary{}, fmt.Errorf("%w: %q", ErrInvalidRange, to)
	}
	if end.Before(start) {
		return WeekSummary{}, fmt.Errorf("%w: %s..%s", ErrInvalidRange, from, to)
	}

	summary := WeekSummary{From: from, To: to}
	quests := model.FoldQuests(snap.Events)

	var scoreSum, scoreDays int
	for day := start; !day.After(end); day = day.Add(24 * time.Hour) {
		date := day.Format(time.DateOnly)
		row, err := a.buildDay(ctx, snap, quests, date)
		if err != nil {
			return WeekSummary{}, err
		}
		summary.Days = append(summary.Days, row)

		summary.TotalSales += row.Sales
		summary.TotalLaborCost += row.LaborCost
		summary.TotalOvertimeMinutes += row.OvertimeMinutes
		if score, ok := row.Score.Value(); ok {
			scoreSum += score
			scoreDays++
		}

		var issues []Issue
		if score, ok := row.Score.Value(); ok && score < a.lowScoreCut {
			issues = append(issues, IssueLowScore)
		}
		if row.OvertimeMinutes > 0 {
			issues = append(issues, IssueOvertime)
		}
		if row.QuestDelays > 0 {
			issues = append(issues, IssueQuestDelay)
		}
		if len(issues) > 0 {
			summary.WeakDays = append(summary.WeakDays, WeakDay{Date: date, Issues: issues})
		}
	}

	summary.TotalHours = totalHours(snap, from, to)
	if summary.TotalSales > 0 {
		summary.AvgLaborRate = types.Some(summary.TotalLaborCost / summary.TotalSales)
	}
	if scoreDays > 0 {
		summary.AvgDayScore = types.Some(float64(scoreSum) / float64(scoreDays))
	}
	summary.WinningMix = bestDay(summary.Days)
	summary.ChronicDelayQuests = chronicDelays(quests, from, to, a.chronicMinCount)
	return summary, nil
}

// buildDay derives one daily row from the snapshot.
func (a *Aggregator) buildDay(ctx context.Context, snap *model.Snapshot, quests []model.Quest, date string) (DailyRow, error) {
	row := DailyRow{Date: date}
	endOfDay, _ := time.Parse(time.DateOnly, date)
	endOfDay = endOfDay.Add(24 * time.Hour)

	workedStaff := make(map[string]struct{})
	for _, e := range snap.Events {
		if e.BusinessDate() != date {
			continue
		}
		switch e.Kind {
		case model.KindSales:
			if e.Sales != nil {
				row.Sales += e.Sales.Amount
			}
		case model.KindDelivery:
			if e.Delivery != nil {
				row.Sales += e.Delivery.Amount
			}
		case model.KindLabor:
			if e.Labor != nil {
				row.LaborCost += e.Labor.Cost
				row.OvertimeMinutes += e.Labor.OvertimeMinutes()
				workedStaff[e.Labor.StaffID] = struct{}{}
			}
		case model.KindForecast, model.KindPrep, model.KindDecision:
			// not part of the daily row
		}
	}

	if row.Sales > 0 {
		row.LaborRate = types.Some(row.LaborCost / row.Sales)
	}
	for id := range workedStaff {
		st, ok := snap.StaffByID(id)
		if !ok {
			continue
		}
		switch st.StarLevel {
		case 1:
			row.SkillMix.Star1++
		case 2:
			row.SkillMix.Star2++
		case 3:
			row.SkillMix.Star3++
		}
	}

	for _, q := range quests {
		if q.Deadline.IsZero() || q.Deadline.Format(time.DateOnly) != date {
			continue
		}
		if q.CompletedLate() || q.OverduePending(endOfDay) {
			row.QuestDelays++
		}
	}

	score, err := a.scorer.TeamScore(ctx, snap, date)
	if err != nil {
		return DailyRow{}, fmt.Errorf("team score for %s: %w", date, err)
	}
	if score.Tracked {
		row.Score = types.Some(score.Total)
	}
	return row, nil
}

// totalHours sums worked hours across the range.
func totalHours(snap *model.Snapshot, from, to string) float64 {
	var minutes int
	for _, e := range snap.EventsOfKind(model.KindLabor) {
		if e.Labor == nil {
			continue
		}
		if d := e.BusinessDate(); d < from || d > to {
			continue
		}
		minutes += e.Labor.WorkedMinutes()
	}
	return float64(minutes) / 60
}

// bestDay picks the highest-scoring day; earlier date wins ties.
func bestDay(days []DailyRow) *WinningMix {
	var best *WinningMix
	for _, row := range days {
		score, ok := row.Score.Value()
		if !ok {
			continue
		}
		if best == nil || score > best.Score {
			best = &WinningMix{Date: row.Date, Score: score, Mix: row.SkillMix}
		}
	}
	return best
}

// chronicDelays groups late quests by task card and keeps cards delayed
// at least minCount times, ordered by recurrence then card id.
func chronicDelays(quests []model.Quest, from, to string, minCount int) []ChronicDelay {
	type acc struct {
		count        int
		delayMinutes int
	}
	byCard := make(map[string]*acc)
	for _, q := range quests {
		if q.TaskCardID == "" || !q.CompletedLate() {
			continue
		}
		if d := q.Deadline.Format(time.DateOnly); d < from || d > to {
			continue
		}
		c := byCard[q.TaskCardID]
		if c == nil {
			c = &acc{}
			byCard[q.TaskCardID] = c
		}
		c.count++
		c.delayMinutes += q.DelayMinutes()
	}

	var out []ChronicDelay
	for id, c := range byCard {
		if c.count < minCount {
			continue
		}
		out = append(out, ChronicDelay{
			TaskCardID:      id,
			Occurrences:     c.count,
			AvgDelayMinutes: float64(c.delayMinutes) / float64(c.count),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].TaskCardID < out[j].TaskCardID
	})
	return out
}
