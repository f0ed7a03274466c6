package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	eventqueue "github.com/shinoda11/opsboard/internal/adapters/mq/queue"
	"github.com/shinoda11/opsboard/internal/adapters/repository"
	service "github.com/shinoda11/opsboard/internal/app"
	"github.com/shinoda11/opsboard/internal/domain/guardrail"
	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/scoring"
	"github.com/shinoda11/opsboard/internal/domain/trend"
	"github.com/shinoda11/opsboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func salesEvent(id string, ts time.Time, amount float64) model.Event {
	return model.Event{
		ID:      id,
		StoreID: "store-001",
		Kind:    model.KindSales,
		TS:      ts,
		Sales:   &model.SalesPayload{MenuItemID: "item-1", Quantity: 1, Amount: amount},
	}
}

// waitForEvents polls until the event log has absorbed n events.
func waitForEvents(svc *service.Service, n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stats := svc.GetStats()
		if total, ok := stats["totalEvents"].(int); ok && total >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestServiceNew(t *testing.T) {
	Convey("Given service construction", t, func() {
		Convey("When built with defaults", func() {
			svc := service.New()

			Convey("Then it is ready to start", func() {
				So(svc, ShouldNotBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldBeFalse)
			})
		})

		Convey("When built with custom options", func() {
			svc := service.New(
				service.WithWorkerCount(2),
				service.WithQueueSize(100),
				service.WithDedupeSize(50),
				service.WithScoringPolicy(scoring.DefaultPolicy()),
				service.WithGuardrailTable(guardrail.DefaultTable()),
				service.WithTrendThresholds(trend.DefaultThresholds()),
				service.WithLowScoreCut(70),
				service.WithChronicThreshold(3),
			)

			Convey("Then the options are reflected in stats", func() {
				stats := svc.GetStats()
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 100)
				So(stats["dedupeSize"], ShouldEqual, 50)
			})
		})

		Convey("When built with a broken guardrail table", func() {
			svc := service.New(service.WithGuardrailTable(guardrail.Table{}))
			err := svc.Start(context.Background())

			Convey("Then start surfaces the validation error", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service with a small pipeline", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(100))

		Convey("When started twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the second start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldBeTrue)
			})
		})

		Convey("When stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			svc.Stop()

			Convey("Then the second stop is a no-op", func() {
				So(svc.Stop, ShouldNotPanic)
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}

func TestServiceEnqueue(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(100))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		ts := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

		Convey("When a fresh event is enqueued", func() {
			err := svc.Enqueue(ctx, salesEvent("e1", ts, 900))

			Convey("Then it is accepted and eventually appended", func() {
				So(err, ShouldBeNil)
				So(waitForEvents(svc, 1), ShouldBeTrue)
				So(svc.Stores(ctx), ShouldResemble, []string{"store-001"})
			})
		})

		Convey("When the same id is enqueued twice", func() {
			So(svc.Enqueue(ctx, salesEvent("e1", ts, 900)), ShouldBeNil)
			err := svc.Enqueue(ctx, salesEvent("e1", ts, 900))

			Convey("Then the duplicate is rejected", func() {
				So(err, ShouldWrap, service.ErrDuplicateEvent)
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the event id is missing", func() {
			err := svc.Enqueue(ctx, salesEvent("", ts, 900))

			Convey("Then the event is invalid", func() {
				So(err, ShouldWrap, repository.ErrInvalidEvent)
			})
		})

		Convey("When the queue has shut down", func() {
			svc.Stop()
			err := svc.Enqueue(ctx, salesEvent("e2", ts, 900))

			Convey("Then backpressure is reported and the id is retryable", func() {
				So(err, ShouldWrap, eventqueue.ErrQueueFull)
				So(svc.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestServiceQueries(t *testing.T) {
	Convey("Given a service loaded with one business day", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(1000))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		// Monday 2026-08-03
		day := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
		date := "2026-08-03"

		svc.SetReference(ctx,
			[]model.Staff{{ID: "staff-1", StoreID: "store-001", Name: "Sato", StarLevel: 2}},
			[]model.TaskCard{{ID: "card-prep", StandardMinutes: 15, Enabled: true}},
		)

		events := []model.Event{
			salesEvent("sales-1", day.Add(12*time.Hour), 60000),
			salesEvent("sales-2", day.Add(18*time.Hour), 40000),
			{
				ID: "delivery-1", StoreID: "store-001", Kind: model.KindDelivery, TS: day.Add(19 * time.Hour),
				Delivery: &model.DeliveryPayload{Channel: "ubereats", Orders: 10, Amount: 20000},
			},
			{
				ID: "forecast-1", StoreID: "store-001", Kind: model.KindForecast, TS: day.Add(8 * time.Hour),
				Forecast: &model.ForecastPayload{BusinessDate: date, ForecastSales: 120000},
			},
			{
				ID: "labor-1", StoreID: "store-001", Kind: model.KindLabor, TS: day.Add(9 * time.Hour),
				Labor: &model.LaborPayload{
					StaffID: "staff-1", ClockIn: day.Add(9 * time.Hour), ClockOut: day.Add(17 * time.Hour),
					BreakCount: 2, ScheduledMinutes: 480, Cost: 36000,
				},
			},
			{
				ID: "quest-1-pending", StoreID: "store-001", Kind: model.KindDecision, TS: day.Add(9 * time.Hour),
				Decision: &model.DecisionPayload{
					ProposalID: "q-1", Action: model.ActionPending, AssigneeID: "staff-1",
					TaskCardID: "card-prep", EstimatedMinutes: 15, Deadline: day.Add(15 * time.Hour),
				},
			},
			{
				ID: "quest-1-done", StoreID: "store-001", Kind: model.KindDecision, TS: day.Add(14 * time.Hour),
				Decision: &model.DecisionPayload{
					ProposalID: "q-1", Action: model.ActionCompleted, ActualMinutes: 16,
					QualityStatus: model.QualityOK,
				},
			},
		}
		for _, e := range events {
			So(svc.Enqueue(ctx, e), ShouldBeNil)
		}
		So(waitForEvents(svc, len(events)), ShouldBeTrue)

		Convey("When the staff score is queried", func() {
			res, err := svc.StaffScore(ctx, "store-001", "staff-1", date, date)

			Convey("Then the clean day scores full marks", func() {
				So(err, ShouldBeNil)
				So(res.Tracked, ShouldBeTrue)
				So(res.Total, ShouldEqual, 100)
			})
		})

		Convey("When the team score is queried", func() {
			res, err := svc.TeamScore(ctx, "store-001", date, date)

			Convey("Then the team is tracked", func() {
				So(err, ShouldBeNil)
				So(res.Tracked, ShouldBeTrue)
				So(res.StaffID, ShouldBeEmpty)
			})
		})

		Convey("When the guardrail is queried", func() {
			res, err := svc.Guardrail(ctx, "store-001", date)

			Convey("Then delivery revenue counts toward the rate", func() {
				So(err, ShouldBeNil)
				// 36000 labor over 120000 revenue on a weekday.
				rate, ok := res.LaborRate.Value()
				So(ok, ShouldBeTrue)
				So(rate, ShouldAlmostEqual, 0.30, 0.0001)
				So(res.Status, ShouldEqual, guardrail.StatusGood)
			})
		})

		Convey("When the guardrail projection is queried mid-day", func() {
			proj, err := svc.GuardrailProjection(ctx, "store-001", date, day.Add(20*time.Hour))

			Convey("Then it extrapolates from actuals", func() {
				So(err, ShouldBeNil)
				_, ok := proj.ProjectedRateEOD.Value()
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When demand drops are queried", func() {
			drops, err := svc.DemandDrops(ctx, "store-001", day)

			Convey("Then one day of history yields none", func() {
				So(err, ShouldBeNil)
				So(drops, ShouldBeEmpty)
			})
		})

		Convey("When awards are queried", func() {
			list, err := svc.Awards(ctx, "store-001", date, date)

			Convey("Then the active staff member wins", func() {
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 4)
				for _, a := range list {
					So(a.Winner, ShouldNotBeNil)
					So(a.Winner.StaffID, ShouldEqual, "staff-1")
				}
			})
		})

		Convey("When the weekly report is queried", func() {
			sum, err := svc.WeeklyReport(ctx, "store-001", date, "2026-08-09")

			Convey("Then the day's totals are rolled up", func() {
				So(err, ShouldBeNil)
				So(sum.Days, ShouldHaveLength, 7)
				So(sum.TotalSales, ShouldAlmostEqual, 120000)
				So(sum.TotalLaborCost, ShouldAlmostEqual, 36000)
			})
		})

		Convey("When a query names a blank store", func() {
			_, err := svc.TeamScore(ctx, "", date, date)

			Convey("Then the snapshot is refused", func() {
				So(err, ShouldWrap, repository.ErrStoreIDRequired)
			})
		})
	})
}

func TestServiceStats(t *testing.T) {
	Convey("Given a running service with traffic", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(100))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		ts := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
		for i := 0; i < 10; i++ {
			So(svc.Enqueue(ctx, salesEvent(fmt.Sprintf("e%d", i), ts, 900)), ShouldBeNil)
		}
		So(waitForEvents(svc, 10), ShouldBeTrue)

		Convey("When stats are read", func() {
			stats := svc.GetStats()

			Convey("Then counters reflect the pipeline", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["totalEvents"], ShouldEqual, 10)
				So(stats["stores"], ShouldResemble, []string{"store-001"})
				So(svc.Size(), ShouldEqual, 10)
			})
		})
	})
}
