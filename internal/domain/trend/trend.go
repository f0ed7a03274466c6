// Package trend detects demand drops in per-item sales over rolling windows.
package trend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/model"
)

// Window sizes for the rolling comparison, in business days.
const (
	shortWindowDays = 3
	longWindowDays  = 7
)

// Severity classifies a demand drop.
type Severity string

// Severities, worst first.
const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Thresholds is the injected drop-classification policy.
type Thresholds struct {
	// Warning and Critical are minimum drop rates for each severity.
	Warning  float64 `koanf:"warning"  json:"warning"`
	Critical float64 `koanf:"critical" json:"critical"`
	// MinVolume excludes items whose 7-day average is at or below this
	// floor, to avoid false positives on near-zero-volume noise.
	MinVolume float64 `koanf:"min_volume" json:"min_volume"`
}

// DefaultThresholds returns the stock drop policy.
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 0.15, Critical: 0.30, MinVolume: 1.0}
}

// Validate checks threshold coherence.
func (t Thresholds) Validate() error {
	switch {
	case t.Warning <= 0 || t.Warning >= 1:
		return fmt.Errorf("%w: warning %.2f", ErrInvalidThresholds, t.Warning)
	case t.Critical <= t.Warning || t.Critical >= 1:
		return fmt.Errorf("%w: critical %.2f", ErrInvalidThresholds, t.Critical)
	case t.MinVolume < 0:
		return fmt.Errorf("%w: min_volume %.2f", ErrInvalidThresholds, t.MinVolume)
	}
	return nil
}

// Drop is one flagged menu item, with the window averages behind the
// classification and the sales channels it was observed on.
type Drop struct {
	MenuItemID       string   `json:"menu_item_id"`
	MenuName         string   `json:"menu_name"`
	Avg3Day          float64  `json:"avg_3day"`
	Avg7Day          float64  `json:"avg_7day"`
	DropRate         float64  `json:"drop_rate"`
	Severity         Severity `json:"severity"`
	AffectedChannels []string `json:"affected_channels"`
}

// Detector flags demand drops against injected thresholds.
type Detector struct {
	thresholds Thresholds
}

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithThresholds overrides the drop thresholds.
func WithThresholds(t Thresholds) Option {
	return func(d *Detector) { d.thresholds = t }
}

// New constructs a Detector, validating its thresholds.
func New(opts ...Option) (*Detector, error) {
	d := &Detector{thresholds: DefaultThresholds()}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.thresholds.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// itemSeries accumulates one menu item's daily sold quantities.
type itemSeries struct {
	name      string
	firstDate string
	byDate    map[string]int
	channels  map[string]struct{}
}

// DemandDrops compares each menu item's most recent 3-business-day average
// against its 7-day average, as of the given date (inclusive). The windows
// run over the store's business-day calendar, so a day the item did not
// sell counts as zero rather than sliding the window back to older sales;
// an item that stops selling entirely drops out at rate 1.0 instead of
// disappearing from the report. Items whose first sale falls inside the
// window are insufficient data and excluded, as are items at or below the
// volume floor. Output is sorted by drop rate descending, ties by menu
// name ascending.
func (d *Detector) DemandDrops(_ context.Context, snap *model.Snapshot, asOf time.Time) []Drop {
	series := make(map[string]*itemSeries)
	calendar := make(map[string]struct{})
	cutoff := asOf.Format(time.DateOnly)
	for _, e := range snap.Events {
		if e.Kind != model.KindSales || e.Sales == nil {
			continue
		}
		date := e.BusinessDate()
		if date > cutoff {
			continue
		}
		calendar[date] = struct{}{}
		s := series[e.Sales.MenuItemID]
		if s == nil {
			s = &itemSeries{
				name:      e.Sales.MenuName,
				firstDate: date,
				byDate:    make(map[string]int),
				channels:  make(map[string]struct{}),
			}
			series[e.Sales.MenuItemID] = s
		}
		if date < s.firstDate {
			s.firstDate = date
		}
		s.byDate[date] += e.Sales.Quantity
		if e.Sales.Channel != "" {
			s.channels[e.Sales.Channel] = struct{}{}
		}
	}

	if len(calendar) < longWindowDays {
		return nil // store itself has insufficient history
	}
	days := make([]string, 0, len(calendar))
	for date := range calendar {
		days = append(days, date)
	}
	sort.Strings(days)
	window := days[len(days)-longWindowDays:]

	itemIDs := make([]string, 0, len(series))
	for id := range series {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	var drops []Drop
	for _, id := range itemIDs {
		s := series[id]
		if s.firstDate > window[0] {
			continue // item younger than the window, not zero drop
		}

		var sum7, sum3 int
		for i, date := range window {
			q := s.byDate[date] // zero on days the item did not sell
			sum7 += q
			if i >= longWindowDays-shortWindowDays {
				sum3 += q
			}
		}
		avg7 := float64(sum7) / longWindowDays
		avg3 := float64(sum3) / shortWindowDays
		if avg7 <= d.thresholds.MinVolume {
			continue // noise floor
		}

		dropRate := 1 - avg3/avg7
		var severity Severity
		switch {
		case dropRate >= d.thresholds.Critical:
			severity = SeverityCritical
		case dropRate >= d.thresholds.Warning:
			severity = SeverityWarning
		default:
			continue
		}

		channels := make([]string, 0, len(s.channels))
		for c := range s.channels {
			channels = append(channels, c)
		}
		sort.Strings(channels)

		drops = append(drops, Drop{
			MenuItemID:       id,
			MenuName:         s.name,
			Avg3Day:          avg3,
			Avg7Day:          avg7,
			DropRate:         dropRate,
			Severity:         severity,
			AffectedChannels: channels,
		})
	}

	sort.SliceStable(drops, func(i, j int) bool {
		if drops[i].DropRate != drops[j].DropRate {
			return drops[i].DropRate > drops[j].DropRate
		}
		if drops[i].MenuName != drops[j].MenuName {
			return drops[i].MenuName < drops[j].MenuName
		}
		return drops[i].MenuItemID < drops[j].MenuItemID
	})
	return drops
}
