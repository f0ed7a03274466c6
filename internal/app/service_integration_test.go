package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	service "github.com/shinoda11/opsboard/internal/app"
	"github.com/shinoda11/opsboard/internal/domain/awards"
	"github.com/shinoda11/opsboard/internal/domain/guardrail"
	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/trend"
	. "github.com/smartystreets/goconvey/convey"
)

// weekOfEvents simulates one store's week: steady karaage sales that
// collapse over the final three days, daily shifts for two staff, and a
// quest per staff per day.
func weekOfEvents() []model.Event {
	var events []model.Event
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	for d := 0; d < 7; d++ {
		day := base.AddDate(0, 0, d)
		date := day.Format(time.DateOnly)

		qty := 30
		if d >= 4 {
			qty = 6
		}
		events = append(events,
			model.Event{
				ID: fmt.Sprintf("sales-%d", d), StoreID: "store-001", Kind: model.KindSales, TS: day.Add(12 * time.Hour),
				Sales: &model.SalesPayload{MenuItemID: "item-karaage", MenuName: "Karaage Teishoku", Quantity: qty, Amount: float64(qty) * 900, Channel: "dine_in"},
			},
			model.Event{
				ID: fmt.Sprintf("forecast-%d", d), StoreID: "store-001", Kind: model.KindForecast, TS: day.Add(8 * time.Hour),
				Forecast: &model.ForecastPayload{BusinessDate: date, ForecastSales: 30000},
			},
		)

		for s, staffID := range []string{"staff-1", "staff-2"} {
			clockIn := day.Add(9 * time.Hour)
			gross := 480
			if staffID == "staff-2" && d == 2 {
				gross = 510 // a half-hour of overtime midweek
			}
			events = append(events, model.Event{
				ID: fmt.Sprintf("labor-%d-%d", d, s), StoreID: "store-001", Kind: model.KindLabor, TS: clockIn,
				Labor: &model.LaborPayload{
					StaffID: staffID, ClockIn: clockIn, ClockOut: clockIn.Add(time.Duration(gross) * time.Minute),
					BreakCount: 2, ScheduledMinutes: 480, Cost: 8000,
				},
			})

			proposal := fmt.Sprintf("q-%d-%s", d, staffID)
			deadline := day.Add(15 * time.Hour)
			doneAt := deadline.Add(-time.Hour)
			if staffID == "staff-2" {
				doneAt = deadline.Add(30 * time.Minute) // chronically late
			}
			events = append(events,
				model.Event{
					ID: proposal + "-pending", StoreID: "store-001", Kind: model.KindDecision, TS: day.Add(9 * time.Hour),
					Decision: &model.DecisionPayload{
						ProposalID: proposal, Action: model.ActionPending, AssigneeID: staffID,
						TaskCardID: "card-clean", EstimatedMinutes: 15, Deadline: deadline,
					},
				},
				model.Event{
					ID: proposal + "-done", StoreID: "store-001", Kind: model.KindDecision, TS: doneAt,
					Decision: &model.DecisionPayload{
						ProposalID: proposal, Action: model.ActionCompleted, ActualMinutes: 16,
						QualityStatus: model.QualityOK,
					},
				},
			)
		}
	}
	return events
}

func TestServiceFullPipeline(t *testing.T) {
	Convey("Given a week of restaurant traffic through the full pipeline", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(4), service.WithQueueSize(10000))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		svc.SetReference(ctx,
			[]model.Staff{
				{ID: "staff-1", StoreID: "store-001", Name: "Sato", StarLevel: 2},
				{ID: "staff-2", StoreID: "store-001", Name: "Tanaka", StarLevel: 1},
			},
			[]model.TaskCard{{ID: "card-clean", StandardMinutes: 15, Enabled: true}},
		)

		events := weekOfEvents()
		for _, e := range events {
			So(svc.Enqueue(ctx, e), ShouldBeNil)
		}
		So(waitForEvents(svc, len(events)), ShouldBeTrue)

		Convey("When scores are compared across the week", func() {
			s1, err := svc.StaffScore(ctx, "store-001", "staff-1", "2026-08-03", "2026-08-09")
			So(err, ShouldBeNil)
			s2, err := svc.StaffScore(ctx, "store-001", "staff-2", "2026-08-03", "2026-08-09")
			So(err, ShouldBeNil)

			Convey("Then the punctual staff member scores higher", func() {
				So(s1.Tracked, ShouldBeTrue)
				So(s2.Tracked, ShouldBeTrue)
				So(s1.Total, ShouldBeGreaterThan, s2.Total)
				So(s2.Deductions, ShouldNotBeEmpty)
			})
		})

		Convey("When demand drops are detected at week's end", func() {
			drops, err := svc.DemandDrops(ctx, "store-001", time.Date(2026, 8, 9, 23, 0, 0, 0, time.UTC))
			So(err, ShouldBeNil)

			Convey("Then the karaage collapse is flagged critical", func() {
				So(drops, ShouldHaveLength, 1)
				So(drops[0].MenuItemID, ShouldEqual, "item-karaage")
				So(drops[0].Severity, ShouldEqual, trend.SeverityCritical)
				So(drops[0].AffectedChannels, ShouldResemble, []string{"dine_in"})
			})
		})

		Convey("When awards are ranked for the week", func() {
			list, err := svc.Awards(ctx, "store-001", "2026-08-03", "2026-08-09")
			So(err, ShouldBeNil)

			Convey("Then the punctual staff member takes time-master", func() {
				for _, a := range list {
					if a.Category == awards.CategoryTimeMaster {
						So(a.Status, ShouldEqual, awards.StatusAwarded)
						So(a.Winner.StaffID, ShouldEqual, "staff-1")
						So(a.Evidence, ShouldNotBeNil)
						So(a.Evidence.LaborTimeline, ShouldHaveLength, 7)
					}
				}
			})
		})

		Convey("When the weekly report is built", func() {
			sum, err := svc.WeeklyReport(ctx, "store-001", "2026-08-03", "2026-08-09")
			So(err, ShouldBeNil)

			Convey("Then chronic lateness surfaces on the shared card", func() {
				So(sum.ChronicDelayQuests, ShouldHaveLength, 1)
				So(sum.ChronicDelayQuests[0].TaskCardID, ShouldEqual, "card-clean")
				So(sum.ChronicDelayQuests[0].Occurrences, ShouldEqual, 7)
				So(sum.ChronicDelayQuests[0].AvgDelayMinutes, ShouldAlmostEqual, 30, 0.0001)
			})

			Convey("Then the midweek overtime shows up as a weak day", func() {
				So(sum.TotalOvertimeMinutes, ShouldEqual, 30)
				found := false
				for _, wd := range sum.WeakDays {
					if wd.Date == "2026-08-05" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})

			Convey("Then totals and averages cover all seven days", func() {
				So(sum.Days, ShouldHaveLength, 7)
				// 4 days at 27000 plus 3 days at 5400.
				So(sum.TotalSales, ShouldAlmostEqual, 4*27000+3*5400, 0.01)
				So(sum.TotalLaborCost, ShouldAlmostEqual, 7*2*8000, 0.01)
				avg, ok := sum.AvgDayScore.Value()
				So(ok, ShouldBeTrue)
				So(avg, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the guardrail is read on a weak sales day", func() {
			res, err := svc.Guardrail(ctx, "store-001", "2026-08-08")
			So(err, ShouldBeNil)

			Convey("Then the labor rate blows past the weekend bracket", func() {
				rate, ok := res.LaborRate.Value()
				So(ok, ShouldBeTrue)
				// 16000 labor over 5400 sales.
				So(rate, ShouldBeGreaterThan, 1)
				So(res.Status, ShouldEqual, guardrail.StatusBad)
			})
		})
	})
}
