package scoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/scoring"
	"github.com/shinoda11/opsboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

const scoreDate = "2026-08-03"

var dayStart = time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

func questChain(n int, staffID, cardID string, deadline, completedAt time.Time, actualMinutes int) []model.Event {
	proposal := "q-" + string(rune('0'+n))
	prefix := "e" + string(rune('0'+n))
	events := []model.Event{{
		ID:      prefix + "-pending",
		StoreID: "store-001",
		Kind:    model.KindDecision,
		TS:      dayStart,
		Decision: &model.DecisionPayload{
			ProposalID:       proposal,
			Action:           model.ActionPending,
			AssigneeID:       staffID,
			TaskCardID:       cardID,
			EstimatedMinutes: 15,
			Deadline:         deadline,
		},
	}}
	if !completedAt.IsZero() {
		events = append(events, model.Event{
			ID:      prefix + "-done",
			StoreID: "store-001",
			Kind:    model.KindDecision,
			TS:      completedAt,
			Decision: &model.DecisionPayload{
				ProposalID:    proposal,
				Action:        model.ActionCompleted,
				ActualMinutes: actualMinutes,
				QualityStatus: model.QualityOK,
			},
		})
	}
	return events
}

func shiftEvent(id, staffID string, clockIn time.Time, grossMinutes, breakCount, scheduledMinutes int) model.Event {
	return model.Event{
		ID:      id,
		StoreID: "store-001",
		Kind:    model.KindLabor,
		TS:      clockIn,
		Labor: &model.LaborPayload{
			StaffID:          staffID,
			ClockIn:          clockIn,
			ClockOut:         clockIn.Add(time.Duration(grossMinutes) * time.Minute),
			BreakCount:       breakCount,
			ScheduledMinutes: scheduledMinutes,
		},
	}
}

func deductionSum(ds []scoring.Deduction, cat scoring.Category) int {
	sum := 0
	for _, d := range ds {
		if d.Category == cat {
			sum += d.Points
		}
	}
	return sum
}

func TestStaffScore(t *testing.T) {
	Convey("Given a day of quests and one clean shift", t, func() {
		engine, err := scoring.New()
		So(err, ShouldBeNil)

		deadline := dayStart.Add(6 * time.Hour)
		var events []model.Event
		for i := 1; i <= 4; i++ {
			events = append(events, questChain(i, "staff-1", "card-prep", deadline, deadline.Add(-time.Hour), 16)...)
		}
		// Fifth quest completes an hour past deadline and runs well over
		// the 18-minute allowance (15 standard, 20% tolerance).
		events = append(events, questChain(5, "staff-1", "card-prep", deadline, deadline.Add(time.Hour), 35)...)
		events = append(events, shiftEvent("shift-1", "staff-1", dayStart, 480, 2, 480))

		snap := &model.Snapshot{
			StoreID:   "store-001",
			Events:    events,
			TaskCards: []model.TaskCard{{ID: "card-prep", StandardMinutes: 15, Enabled: true}},
		}

		Convey("When the staff score is computed", func() {
			r, err := engine.StaffScore(context.Background(), snap, "staff-1", scoreDate)
			So(err, ShouldBeNil)

			Convey("Then four of five on-time quests yield 32 completion points", func() {
				So(r.Tracked, ShouldBeTrue)
				So(r.QuestsTotal, ShouldEqual, 5)
				So(r.QuestsCompleted, ShouldEqual, 5)
				So(r.QuestsOnTime, ShouldEqual, 4)
				So(r.Breakdown.TaskCompletion, ShouldEqual, 32)
			})

			Convey("Then the single overrun averages out to 20 time points", func() {
				// credits = 4 + (1 - 17/18), scaled to 25 and rounded.
				So(r.Breakdown.TimeVariance, ShouldEqual, 20)
			})

			Convey("Then a compliant shift keeps breaks and overtime whole", func() {
				So(r.Breakdown.BreakCompliance, ShouldEqual, 15)
				So(r.Breakdown.ZeroOvertime, ShouldEqual, 20)
				So(r.OvertimeMinutes, ShouldEqual, 0)
			})

			Convey("Then total, grade and stars follow the breakdown", func() {
				So(r.Total, ShouldEqual, 87)
				So(r.Total, ShouldEqual, r.Breakdown.Total())
				So(r.Grade, ShouldEqual, types.GradeA)
				So(r.Stars, ShouldEqual, 5)
			})

			Convey("Then every lost point is explained by a deduction", func() {
				So(deductionSum(r.Deductions, scoring.CategoryTask), ShouldEqual, 40-r.Breakdown.TaskCompletion)
				So(deductionSum(r.Deductions, scoring.CategoryTime), ShouldEqual, 25-r.Breakdown.TimeVariance)
				So(deductionSum(r.Deductions, scoring.CategoryBreak), ShouldEqual, 0)
				So(deductionSum(r.Deductions, scoring.CategoryOvertime), ShouldEqual, 0)
			})

			Convey("Then deductions point back at their source events", func() {
				So(r.Deductions, ShouldHaveLength, 2)
				So(r.Deductions[0].Points, ShouldEqual, 8)
				So(r.Deductions[0].Reason, ShouldEqual, "quest completed past deadline")
				So(r.Deductions[0].EventIDs, ShouldContain, "e5-done")
				So(r.Deductions[1].Points, ShouldEqual, 5)
				So(r.Deductions[1].Category, ShouldEqual, scoring.CategoryTime)
				So(r.Deductions[1].Detail, ShouldNotBeNil)
				So(r.Deductions[1].Detail.Expected, ShouldEqual, "18m")
				So(r.Deductions[1].Detail.Actual, ShouldEqual, "35m")
			})
		})

		Convey("When another staff member has no activity that day", func() {
			r, err := engine.StaffScore(context.Background(), snap, "staff-9", scoreDate)
			So(err, ShouldBeNil)

			Convey("Then they are not tracked rather than scored zero", func() {
				So(r.Tracked, ShouldBeFalse)
				So(r.Total, ShouldEqual, 0)
				So(r.Deductions, ShouldBeEmpty)
			})
		})

		Convey("When the date is malformed", func() {
			_, err := engine.StaffScore(context.Background(), snap, "staff-1", "03-08-2026")

			Convey("Then the invalid date sentinel is returned", func() {
				So(err, ShouldWrap, scoring.ErrInvalidDate)
			})
		})
	})
}

func TestStaffScorePenalties(t *testing.T) {
	Convey("Given quests that blow their deadlines outright", t, func() {
		engine, err := scoring.New()
		So(err, ShouldBeNil)

		deadline := dayStart.Add(2 * time.Hour)
		var events []model.Event
		for i := 1; i <= 4; i++ {
			events = append(events, questChain(i, "staff-1", "card-prep", deadline, time.Time{}, 0)...)
		}
		snap := &model.Snapshot{StoreID: "store-001", Events: events}

		Convey("When the staff score is computed", func() {
			r, err := engine.StaffScore(context.Background(), snap, "staff-1", scoreDate)
			So(err, ShouldBeNil)

			Convey("Then the completion sub-score bottoms out at zero", func() {
				So(r.QuestsTotal, ShouldEqual, 4)
				So(r.QuestsOnTime, ShouldEqual, 0)
				So(r.Breakdown.TaskCompletion, ShouldEqual, 0)
			})

			Convey("Then the 40 lost points are split across offenders", func() {
				So(deductionSum(r.Deductions, scoring.CategoryTask), ShouldEqual, 40)
				So(r.Deductions, ShouldHaveLength, 4)
				for _, d := range r.Deductions {
					So(d.Points, ShouldEqual, 10)
					So(d.Reason, ShouldEqual, "quest not completed by deadline")
				}
			})

			Convey("Then the display view caps at the policy limit", func() {
				So(r.TopDeductions, ShouldHaveLength, 3)
				So(len(r.Deductions), ShouldBeGreaterThan, len(r.TopDeductions))
			})

			Convey("Then unscored duration leaves time variance whole", func() {
				So(r.Breakdown.TimeVariance, ShouldEqual, 25)
			})
		})
	})
}

func TestStaffScoreShifts(t *testing.T) {
	Convey("Given shifts with missed breaks and overtime", t, func() {
		engine, err := scoring.New()
		So(err, ShouldBeNil)

		Convey("When a full shift takes one of two expected breaks", func() {
			snap := &model.Snapshot{StoreID: "store-001", Events: []model.Event{
				shiftEvent("shift-1", "staff-1", dayStart, 480, 1, 480),
			}}
			r, err := engine.StaffScore(context.Background(), snap, "staff-1", scoreDate)
			So(err, ShouldBeNil)

			Convey("Then break compliance scales to the taken ratio", func() {
				So(r.Breakdown.BreakCompliance, ShouldEqual, 8)
				So(deductionSum(r.Deductions, scoring.CategoryBreak), ShouldEqual, 7)
				So(r.Deductions[0].Detail.Expected, ShouldEqual, "2")
				So(r.Deductions[0].Detail.Actual, ShouldEqual, "1")
			})
		})

		Convey("When a shift runs 35 minutes past schedule", func() {
			snap := &model.Snapshot{StoreID: "store-001", Events: []model.Event{
				shiftEvent("shift-1", "staff-1", dayStart, 515, 2, 480),
			}}
			r, err := engine.StaffScore(context.Background(), snap, "staff-1", scoreDate)
			So(err, ShouldBeNil)

			Convey("Then one point is lost per five overtime minutes", func() {
				So(r.OvertimeMinutes, ShouldEqual, 35)
				So(r.Breakdown.ZeroOvertime, ShouldEqual, 13)
				So(deductionSum(r.Deductions, scoring.CategoryOvertime), ShouldEqual, 7)
			})

			Convey("Then the deduction names the shift event", func() {
				So(r.Deductions[0].EventIDs, ShouldResemble, []string{"shift-1"})
				So(r.Deductions[0].EventType, ShouldEqual, model.KindLabor)
				So(r.Deductions[0].Detail.Actual, ShouldEqual, "35m")
			})
		})

		Convey("When a short shift expects no breaks", func() {
			snap := &model.Snapshot{StoreID: "store-001", Events: []model.Event{
				shiftEvent("shift-1", "staff-1", dayStart, 180, 0, 180),
			}}
			r, err := engine.StaffScore(context.Background(), snap, "staff-1", scoreDate)
			So(err, ShouldBeNil)

			Convey("Then break compliance stays at full credit", func() {
				So(r.Breakdown.BreakCompliance, ShouldEqual, 15)
			})
		})
	})
}

func TestTeamScore(t *testing.T) {
	Convey("Given activity from two staff members on one day", t, func() {
		engine, err := scoring.New()
		So(err, ShouldBeNil)

		deadline := dayStart.Add(6 * time.Hour)
		var events []model.Event
		events = append(events, questChain(1, "staff-1", "card-prep", deadline, deadline.Add(-time.Hour), 16)...)
		events = append(events, questChain(2, "staff-2", "card-prep", deadline, time.Time{}, 0)...)
		events = append(events,
			shiftEvent("shift-1", "staff-1", dayStart, 480, 2, 480),
			shiftEvent("shift-2", "staff-2", dayStart, 515, 2, 480),
		)
		snap := &model.Snapshot{
			StoreID:   "store-001",
			Events:    events,
			TaskCards: []model.TaskCard{{ID: "card-prep", StandardMinutes: 15, Enabled: true}},
		}

		Convey("When the team score is computed", func() {
			team, err := engine.TeamScore(context.Background(), snap, scoreDate)
			So(err, ShouldBeNil)

			Convey("Then it folds the union of everyone's events", func() {
				So(team.StaffID, ShouldBeEmpty)
				So(team.QuestsTotal, ShouldEqual, 2)
				So(team.OvertimeMinutes, ShouldEqual, 35)
			})

			Convey("Then one overdue quest out of two halves completion", func() {
				// round(40*1/2) minus the late penalty.
				So(team.Breakdown.TaskCompletion, ShouldEqual, 15)
			})

			Convey("Then the team is not an average of individual scores", func() {
				s1, err := engine.StaffScore(context.Background(), snap, "staff-1", scoreDate)
				So(err, ShouldBeNil)
				s2, err := engine.StaffScore(context.Background(), snap, "staff-2", scoreDate)
				So(err, ShouldBeNil)
				So(team.Total, ShouldNotEqual, (s1.Total+s2.Total)/2)
			})
		})
	})
}

func TestScoreRange(t *testing.T) {
	Convey("Given quests spread across a week", t, func() {
		engine, err := scoring.New()
		So(err, ShouldBeNil)

		var events []model.Event
		events = append(events, questChain(1, "staff-1", "card-prep",
			dayStart.Add(6*time.Hour), dayStart.Add(5*time.Hour), 16)...)
		late := dayStart.AddDate(0, 0, 3)
		events = append(events, []model.Event{{
			ID:      "e9-pending",
			StoreID: "store-001",
			Kind:    model.KindDecision,
			TS:      late,
			Decision: &model.DecisionPayload{
				ProposalID:       "q-9",
				Action:           model.ActionPending,
				AssigneeID:       "staff-1",
				TaskCardID:       "card-prep",
				EstimatedMinutes: 15,
				Deadline:         late.Add(6 * time.Hour),
			},
		}, {
			ID:      "e9-done",
			StoreID: "store-001",
			Kind:    model.KindDecision,
			TS:      late.Add(5 * time.Hour),
			Decision: &model.DecisionPayload{
				ProposalID:    "q-9",
				Action:        model.ActionCompleted,
				ActualMinutes: 16,
				QualityStatus: model.QualityOK,
			},
		}}...)
		snap := &model.Snapshot{
			StoreID:   "store-001",
			Events:    events,
			TaskCards: []model.TaskCard{{ID: "card-prep", StandardMinutes: 15, Enabled: true}},
		}

		Convey("When scoring a range covering both quests", func() {
			r, err := engine.StaffScoreRange(context.Background(), snap, "staff-1", "2026-08-03", "2026-08-09")
			So(err, ShouldBeNil)

			Convey("Then both on-time quests count", func() {
				So(r.QuestsTotal, ShouldEqual, 2)
				So(r.QuestsOnTime, ShouldEqual, 2)
				So(r.Breakdown.TaskCompletion, ShouldEqual, 40)
			})
		})

		Convey("When scoring a single day", func() {
			r, err := engine.StaffScore(context.Background(), snap, "staff-1", "2026-08-03")
			So(err, ShouldBeNil)

			Convey("Then quests outside the day are excluded", func() {
				So(r.QuestsTotal, ShouldEqual, 1)
			})
		})
	})
}

func TestNewPolicyValidation(t *testing.T) {
	Convey("Given engine construction", t, func() {
		Convey("When the policy is well-formed", func() {
			engine, err := scoring.New(scoring.WithPolicy(scoring.Policy{
				ToleranceRatio:          0.10,
				LatePenalty:             3,
				MinutesPerBreak:         300,
				OvertimeMinutesPerPoint: 10,
				DisplayDeductions:       5,
			}))

			Convey("Then it constructs", func() {
				So(err, ShouldBeNil)
				So(engine, ShouldNotBeNil)
			})
		})

		Convey("When the policy is impossible", func() {
			_, err := scoring.New(scoring.WithPolicy(scoring.Policy{
				ToleranceRatio:          -0.5,
				LatePenalty:             5,
				MinutesPerBreak:         240,
				OvertimeMinutesPerPoint: 5,
				DisplayDeductions:       3,
			}))

			Convey("Then validation rejects it", func() {
				So(err, ShouldWrap, scoring.ErrInvalidPolicy)
			})
		})
	})
}
