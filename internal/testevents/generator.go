package testevents

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/types"
	"github.com/shinoda11/opsboard/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
)

// Synthetic menu the sales stream draws from.
var menuItems = []struct {
	ID    string
	Name  string
	Price float64
}{
	{"item-001", "Karaage Bowl", 890},
	{"item-002", "Shoyu Ramen", 980},
	{"item-003", "Gyoza Set", 560},
	{"item-004", "Curry Rice", 760},
	{"item-005", "Ebi Tempura", 1180},
	{"item-006", "Miso Soup", 220},
	{"item-007", "Chicken Nanban", 920},
	{"item-008", "Tonkotsu Ramen", 1050},
	{"item-009", "Onigiri Twin Pack", 340},
	{"item-010", "Matcha Parfait", 620},
}

// randomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [0, n).
func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// makeRoster builds the staff and task-card reference data.
func makeRoster(config *Config) ([]model.Staff, []model.TaskCard) {
	names := []string{"Aoi", "Haruto", "Yui", "Sota", "Mio", "Ren", "Hina", "Kaito", "Saki", "Riku"}
	roles := []string{"kitchen", "hall"}

	staff := make([]model.Staff, config.StaffCount)
	for i := range staff {
		staff[i] = model.Staff{
			ID:        "staff-" + strconv.Itoa(i+1),
			StoreID:   config.StoreID,
			Name:      names[i%len(names)] + " " + strconv.Itoa(i+1),
			StarLevel: 1 + i%3,
			RoleID:    roles[i%len(roles)],
		}
	}

	cards := []model.TaskCard{
		{ID: "card-clean-fryer", CategoryID: "cleaning", Role: "kitchen", StarRequirement: 1, StandardMinutes: 15, XPReward: 10, Enabled: true},
		{ID: "card-stock-check", CategoryID: "inventory", Role: "kitchen", StarRequirement: 2, StandardMinutes: 20, XPReward: 15, Enabled: true},
		{ID: "card-prep-veggies", CategoryID: "prep", Role: "kitchen", StarRequirement: 1, StandardMinutes: 30, XPReward: 20, Enabled: true},
		{ID: "card-table-reset", CategoryID: "service", Role: "hall", StarRequirement: 1, StandardMinutes: 10, XPReward: 5, Enabled: true},
		{ID: "card-close-register", CategoryID: "closing", Role: "hall", StarRequirement: 3, StandardMinutes: 25, XPReward: 25, Enabled: true},
	}
	return staff, cards
}

// generateEvents simulates config.Days business days of store operations:
// a morning forecast, banded sales, prep and delivery volume, one labor
// shift per staff member, and one quest chain per staff per day.
func generateEvents(ctx context.Context, config *Config, staff []model.Staff, cards []model.TaskCard, stats *Stats) []model.Event {
	logger.Get().Info(ctx, "generating synthetic store events",
		logger.Int("days", config.Days),
		logger.Int("staff", len(staff)))

	var events []model.Event
	add := func(kind model.Kind, ts time.Time, fill func(*model.Event)) {
		e := model.Event{
			ID:      uuid.New().String(),
			StoreID: config.StoreID,
			Kind:    kind,
			TS:      ts,
		}
		fill(&e)
		events = append(events, e)
	}

	today := time.Now().Truncate(24 * time.Hour)
	for d := config.Days; d >= 1; d-- {
		day := today.AddDate(0, 0, -d)
		date := day.Format(time.DateOnly)

		// Forecast posted before open.
		forecast := 150000 + randomFloat()*80000
		add(model.KindForecast, day.Add(8*time.Hour), func(e *model.Event) {
			e.Forecast = &model.ForecastPayload{BusinessDate: date, ForecastSales: forecast}
		})

		// Sales through the day, banded.
		for hour := 11; hour <= 21; hour++ {
			orders := 2 + randomInt(5)
			for o := 0; o < orders; o++ {
				item := menuItems[randomInt(len(menuItems))]
				qty := 1 + randomInt(3)
				ts := day.Add(time.Duration(hour)*time.Hour + time.Duration(randomInt(60))*time.Minute)
				channel := "dine-in"
				if randomFloat() < 0.2 {
					channel = "delivery"
				}
				add(model.KindSales, ts, func(e *model.Event) {
					e.Sales = &model.SalesPayload{
						MenuItemID: item.ID,
						MenuName:   item.Name,
						Quantity:   qty,
						Amount:     item.Price * float64(qty),
						Channel:    channel,
						Band:       types.BandOfHour(hour),
					}
				})
			}
		}

		// Prep against plan for a few items.
		for i := 0; i < 3; i++ {
			item := menuItems[randomInt(len(menuItems))]
			planned := 20 + randomInt(20)
			add(model.KindPrep, day.Add(10*time.Hour), func(e *model.Event) {
				e.Prep = &model.PrepPayload{
					MenuItemID:      item.ID,
					Quantity:        planned - randomInt(5),
					PlannedQuantity: planned,
				}
			})
		}

		// Delivery-channel volume.
		add(model.KindDelivery, day.Add(19*time.Hour), func(e *model.Event) {
			e.Delivery = &model.DeliveryPayload{
				Channel: "ubereats",
				Orders:  5 + randomInt(15),
				Amount:  8000 + randomFloat()*12000,
			}
		})

		// One shift per staff member; occasional overtime or skipped break.
		for _, s := range staff {
			clockIn := day.Add(10 * time.Hour)
			worked := 480
			if randomFloat() < 0.2 {
				worked += 10 + randomInt(50) // overtime
			}
			breaks := 2
			if randomFloat() < 0.15 {
				breaks = 1 // missed a break
			}
			add(model.KindLabor, clockIn, func(e *model.Event) {
				e.Labor = &model.LaborPayload{
					StaffID:          s.ID,
					ClockIn:          clockIn,
					ClockOut:         clockIn.Add(time.Duration(worked) * time.Minute),
					BreakCount:       breaks,
					BreakMinutes:     breaks * 30,
					ScheduledMinutes: 480,
					Cost:             float64(worked) / 60 * 1100,
				}
			})
		}

		// One quest chain per staff member per day.
		for i, s := range staff {
			card := cards[(d+i)%len(cards)]
			proposal := uuid.New().String()
			assigned := day.Add(9 * time.Hour)
			deadline := day.Add(16 * time.Hour)
			actual := card.StandardMinutes
			completedAt := deadline.Add(-time.Duration(30+randomInt(120)) * time.Minute)
			if randomFloat() < 0.25 {
				// Late finish past the deadline.
				actual = card.StandardMinutes + 10 + randomInt(30)
				completedAt = deadline.Add(time.Duration(10+randomInt(60)) * time.Minute)
			}
			quality := model.QualityOK
			if randomFloat() < 0.1 {
				quality = model.QualityNG
			}

			step := func(ts time.Time, action model.DecisionAction, fill func(*model.DecisionPayload)) {
				add(model.KindDecision, ts, func(e *model.Event) {
					p := &model.DecisionPayload{
						ProposalID:       proposal,
						Action:           action,
						AssigneeID:       s.ID,
						TaskCardID:       card.ID,
						EstimatedMinutes: card.StandardMinutes,
						Deadline:         deadline,
					}
					if fill != nil {
						fill(p)
					}
					e.Decision = p
				})
			}

			step(assigned, model.ActionPending, nil)
			if randomFloat() < 0.05 {
				step(assigned.Add(30*time.Minute), model.ActionRejected, nil)
				continue
			}
			step(assigned.Add(30*time.Minute), model.ActionApproved, nil)
			step(assigned.Add(time.Hour), model.ActionStarted, nil)
			step(completedAt, model.ActionCompleted, func(p *model.DecisionPayload) {
				p.ActualMinutes = actual
				p.QualityStatus = quality
			})
		}
	}

	stats.EventsGenerated = len(events)
	logger.Get().Info(ctx, "events generated", logger.Int("count", len(events)))
	return events
}
