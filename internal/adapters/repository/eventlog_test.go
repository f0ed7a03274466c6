package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shinoda11/opsboard/internal/adapters/repository"
	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func salesAt(id, storeID string, ts time.Time, band types.TimeBand) model.Event {
	return model.Event{
		ID:      id,
		StoreID: storeID,
		Kind:    model.KindSales,
		TS:      ts,
		Sales:   &model.SalesPayload{MenuItemID: "item-1", Quantity: 1, Amount: 900, Band: band},
	}
}

func TestEventLogAppend(t *testing.T) {
	Convey("Given an empty event log", t, func() {
		ctx := context.Background()
		log := repository.NewEventLog(ctx)
		ts := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

		Convey("When a well-formed event is appended", func() {
			err := log.Append(ctx, salesAt("e1", "store-001", ts, types.BandLunch))

			Convey("Then it lands in the store's log", func() {
				So(err, ShouldBeNil)
				So(log.Count(ctx), ShouldEqual, 1)
				So(log.Stores(ctx), ShouldResemble, []string{"store-001"})
			})
		})

		Convey("When required fields are missing", func() {
			cases := []model.Event{
				{StoreID: "store-001", Kind: model.KindSales, TS: ts, Sales: &model.SalesPayload{}},
				{ID: "e1", Kind: model.KindSales, TS: ts, Sales: &model.SalesPayload{}},
				{ID: "e1", StoreID: "store-001", Kind: model.KindSales, Sales: &model.SalesPayload{}},
			}

			Convey("Then each append is rejected", func() {
				for _, e := range cases {
					So(log.Append(ctx, e), ShouldWrap, repository.ErrInvalidEvent)
				}
				So(log.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the payload does not match the kind", func() {
			e := model.Event{
				ID: "e1", StoreID: "store-001", Kind: model.KindSales, TS: ts,
				Labor: &model.LaborPayload{StaffID: "staff-1"},
			}

			Convey("Then the append is rejected", func() {
				So(log.Append(ctx, e), ShouldWrap, repository.ErrInvalidEvent)
			})
		})

		Convey("When an event carries two payloads", func() {
			e := salesAt("e1", "store-001", ts, types.BandLunch)
			e.Labor = &model.LaborPayload{StaffID: "staff-1"}

			Convey("Then the append is rejected", func() {
				So(log.Append(ctx, e), ShouldWrap, repository.ErrInvalidEvent)
			})
		})

		Convey("When an event carries no payload at all", func() {
			e := model.Event{ID: "e1", StoreID: "store-001", Kind: model.KindSales, TS: ts}

			Convey("Then the append is rejected", func() {
				So(log.Append(ctx, e), ShouldWrap, repository.ErrInvalidEvent)
			})
		})
	})
}

func TestEventLogSnapshot(t *testing.T) {
	Convey("Given events across stores, dates and bands", t, func() {
		ctx := context.Background()
		log := repository.NewEventLog(ctx)
		day := func(d, h int) time.Time { return time.Date(2026, 8, d, h, 0, 0, 0, time.UTC) }

		So(log.Append(ctx, salesAt("e1", "store-001", day(3, 12), types.BandLunch)), ShouldBeNil)
		So(log.Append(ctx, salesAt("e2", "store-001", day(3, 18), types.BandDinner)), ShouldBeNil)
		So(log.Append(ctx, salesAt("e3", "store-001", day(5, 12), types.BandLunch)), ShouldBeNil)
		So(log.Append(ctx, salesAt("e4", "store-002", day(3, 12), types.BandLunch)), ShouldBeNil)
		So(log.Append(ctx, model.Event{
			ID: "e5", StoreID: "store-001", Kind: model.KindLabor, TS: day(3, 9),
			Labor: &model.LaborPayload{StaffID: "staff-1", ClockIn: day(3, 9), ClockOut: day(3, 17)},
		}), ShouldBeNil)

		log.SetReference(ctx,
			[]model.Staff{
				{ID: "staff-1", StoreID: "store-001", Name: "Sato"},
				{ID: "staff-9", StoreID: "store-002", Name: "Mori"},
				{ID: "staff-hq", Name: "Floating"},
			},
			[]model.TaskCard{{ID: "card-prep", StandardMinutes: 15, Enabled: true}},
		)

		Convey("When a snapshot is taken without bounds", func() {
			snap, err := log.SnapshotFor(ctx, "store-001", "", "", types.BandAll)
			So(err, ShouldBeNil)

			Convey("Then it holds only that store's events, in log order", func() {
				So(snap.StoreID, ShouldEqual, "store-001")
				So(snap.Events, ShouldHaveLength, 4)
				So(snap.Events[0].ID, ShouldEqual, "e1")
				So(snap.Events[3].ID, ShouldEqual, "e5")
			})

			Convey("Then reference data is store-scoped", func() {
				So(snap.Staff, ShouldHaveLength, 2)
				So(snap.Staff[0].ID, ShouldEqual, "staff-1")
				So(snap.Staff[1].ID, ShouldEqual, "staff-hq")
				So(snap.TaskCards, ShouldHaveLength, 1)
			})
		})

		Convey("When a snapshot is bounded by date", func() {
			snap, err := log.SnapshotFor(ctx, "store-001", "2026-08-03", "2026-08-03", types.BandAll)
			So(err, ShouldBeNil)

			Convey("Then events outside the range are excluded", func() {
				So(snap.Events, ShouldHaveLength, 3)
				for _, e := range snap.Events {
					So(e.BusinessDate(), ShouldEqual, "2026-08-03")
				}
			})
		})

		Convey("When a snapshot is bounded by a sales band", func() {
			snap, err := log.SnapshotFor(ctx, "store-001", "", "", types.BandLunch)
			So(err, ShouldBeNil)

			Convey("Then only matching sales rows are filtered, labor stays", func() {
				ids := make([]string, 0, len(snap.Events))
				for _, e := range snap.Events {
					ids = append(ids, e.ID)
				}
				So(ids, ShouldResemble, []string{"e1", "e3", "e5"})
			})
		})

		Convey("When the store id is empty", func() {
			_, err := log.SnapshotFor(ctx, "", "", "", types.BandAll)

			Convey("Then the snapshot is refused", func() {
				So(err, ShouldWrap, repository.ErrStoreIDRequired)
			})
		})

		Convey("When an append races a snapshot read", func() {
			snap, err := log.SnapshotFor(ctx, "store-001", "", "", types.BandAll)
			So(err, ShouldBeNil)
			before := len(snap.Events)
			So(log.Append(ctx, salesAt("e9", "store-001", day(6, 12), types.BandLunch)), ShouldBeNil)

			Convey("Then the earlier snapshot is unchanged", func() {
				So(snap.Events, ShouldHaveLength, before)
			})
		})

		Convey("When store IDs are listed", func() {
			Convey("Then they come back sorted", func() {
				So(log.Stores(ctx), ShouldResemble, []string{"store-001", "store-002"})
			})
		})
	})
}

func TestEventLogConcurrency(t *testing.T) {
	Convey("Given concurrent appenders and readers", t, func() {
		ctx := context.Background()
		log := repository.NewEventLog(ctx)
		ts := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

		errs := make(chan error, 8*60)
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					e := salesAt(fmt.Sprintf("w%d-e%d", w, i), "store-001", ts, types.BandLunch)
					if err := log.Append(ctx, e); err != nil {
						errs <- err
					}
					if i%10 == 0 {
						if _, err := log.SnapshotFor(ctx, "store-001", "", "", types.BandAll); err != nil {
							errs <- err
						}
					}
				}
			}(w)
		}
		wg.Wait()
		close(errs)

		Convey("Then every append is accounted for", func() {
			for err := range errs {
				So(err, ShouldBeNil)
			}
			So(log.Count(ctx), ShouldEqual, 400)
		})
	})
}

func TestEventLogSeed(t *testing.T) {
	Convey("Given a log preloaded with seed events", t, func() {
		ctx := context.Background()
		ts := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
		log := repository.NewEventLog(ctx, repository.WithSeedEvents([]model.Event{
			salesAt("seed-1", "store-001", ts, types.BandLunch),
			salesAt("seed-2", "store-002", ts, types.BandLunch),
		}))

		Convey("Then the seeds count and are visible per store", func() {
			So(log.Count(ctx), ShouldEqual, 2)
			So(log.Stores(ctx), ShouldResemble, []string{"store-001", "store-002"})
		})
	})
}
