package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/model"
)

// Category names the sub-score a deduction was taken from.
type Category string

// Deduction categories.
const (
	CategoryTask     Category = "task"
	CategoryTime     Category = "time"
	CategoryBreak    Category = "break"
	CategoryOvertime Category = "overtime"
)

// Detail carries the expected-vs-actual pair behind a deduction, when one
// exists, for UI drill-down.
type Detail struct {
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// Deduction is one explainable chunk of lost points, linked back to the
// source events that caused it. Deductions are derived on every query,
// never stored; regenerating them from the same log is deterministic.
type Deduction struct {
	Category  Category   `json:"category"`
	Points    int        `json:"points"`
	Reason    string     `json:"reason"`
	Detail    *Detail    `json:"details,omitempty"`
	EventType model.Kind `json:"event_type"`
	EventIDs  []string   `json:"event_ids"`
	SourceTS  time.Time  `json:"source_ts"`
}

// sortDeductions orders by points descending, ties broken by earliest
// source timestamp, then by event id for full determinism.
func sortDeductions(ds []Deduction) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Points != ds[j].Points {
			return ds[i].Points > ds[j].Points
		}
		if !ds[i].SourceTS.Equal(ds[j].SourceTS) {
			return ds[i].SourceTS.Before(ds[j].SourceTS)
		}
		return firstID(ds[i].EventIDs) < firstID(ds[j].EventIDs)
	})
}

func firstID(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// distributePoints splits total integer points across weighted buckets so
// the parts always sum to total exactly. Largest-remainder rounding with
// index order breaking ties keeps the split deterministic. A zero weight
// vector falls back to an even split.
func distributePoints(total int, weights []float64) []int {
	out := make([]int, len(weights))
	if total <= 0 || len(weights) == 0 {
		return out
	}

	var sum float64
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum <= 0 {
		weights = make([]float64, len(out))
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(len(weights))
	}

	type part struct {
		idx  int
		frac float64
	}
	assigned := 0
	parts := make([]part, 0, len(weights))
	for i, w := range weights {
		if w < 0 {
			w = 0
		}
		exact := float64(total) * w / sum
		floor := int(math.Floor(exact))
		out[i] = floor
		assigned += floor
		parts = append(parts, part{idx: i, frac: exact - float64(floor)})
	}

	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].frac > parts[j].frac
	})
	for i := 0; i < total-assigned; i++ {
		out[parts[i%len(parts)].idx]++
	}
	return out
}
