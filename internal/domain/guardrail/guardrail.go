// Package guardrail classifies labor cost against day-type rate brackets.
package guardrail

import (
	"fmt"
	"time"

	"github.com/shinoda11/opsboard/internal/domain/types"
)

// DayType partitions the week for bracket selection.
type DayType string

// Day types.
const (
	Weekday DayType = "weekday"
	Weekend DayType = "weekend"
)

// Status is the guardrail zone for a labor rate.
type Status string

// Guardrail statuses. Unknown means the rate itself is undefined
// (zero sales), not a policy gap.
const (
	StatusGood    Status = "good"
	StatusCaution Status = "caution"
	StatusBad     Status = "bad"
	StatusUnknown Status = "unknown"
)

// Bracket is the policy pair of labor-rate thresholds for one day type.
// goodRate < badRate; rates are fractions of sales.
type Bracket struct {
	GoodRate float64 `koanf:"good_rate" json:"good_rate"`
	BadRate  float64 `koanf:"bad_rate"  json:"bad_rate"`
}

// Table maps day types to brackets. Brackets are operational policy;
// a missing entry is a configuration bug, never silently defaulted.
type Table map[DayType]Bracket

// DefaultTable returns the stock bracket policy.
func DefaultTable() Table {
	return Table{
		Weekday: {GoodRate: 0.30, BadRate: 0.35},
		Weekend: {GoodRate: 0.28, BadRate: 0.33},
	}
}

// Validate checks that every day type has a coherent bracket.
func (t Table) Validate() error {
	for _, dt := range []DayType{Weekday, Weekend} {
		b, ok := t[dt]
		if !ok {
			return fmt.Errorf("%w: day type %q", ErrBracketMissing, dt)
		}
		if b.GoodRate <= 0 || b.BadRate <= b.GoodRate {
			return fmt.Errorf("%w: day type %q good=%.3f bad=%.3f",
				ErrBracketInvalid, dt, b.GoodRate, b.BadRate)
		}
	}
	return nil
}

// DayTypeOf maps a date to weekday (Mon-Fri) or weekend.
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// Result is the guardrail classification plus signed distances to each
// boundary. Deltas are positive when the rate is over the threshold.
// All rate fields are unavailable when sales are zero.
type Result struct {
	DayType     DayType                 `json:"day_type"`
	Status      Status                  `json:"status"`
	LaborRate   types.Metric[float64]   `json:"labor_rate"`
	DeltaToGood types.Metric[float64]   `json:"delta_to_good"`
	DeltaToBad  types.Metric[float64]   `json:"delta_to_bad"`
	Bracket     Bracket                 `json:"bracket"`
}

// Projection extends Result with the end-of-day labor rate extrapolated
// from partial-day actuals.
type Projection struct {
	Result
	RunRateSales      types.Metric[float64] `json:"run_rate_sales"`
	ProjectedRateEOD  types.Metric[float64] `json:"projected_rate_eod"`
	UsedForecastSales bool                  `json:"used_forecast_sales"`
}

// Evaluator applies a bracket table to observed sales and labor cost.
type Evaluator struct {
	table Table
}

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithTable overrides the bracket table.
func WithTable(t Table) Option {
	return func(e *Evaluator) {
		if t != nil {
			e.table = t
		}
	}
}

// New constructs an Evaluator, validating its bracket policy.
func New(opts ...Option) (*Evaluator, error) {
	e := &Evaluator{table: DefaultTable()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.table.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Evaluate classifies laborCost against sales for the given day type.
// Zero or negative sales leave the rate undefined: the result carries
// unavailable metrics and StatusUnknown so callers can render "--".
func (e *Evaluator) Evaluate(dayType DayType, sales, laborCost float64) (Result, error) {
	bracket, ok := e.table[dayType]
	if !ok {
		return Result{}, fmt.Errorf("%w: day type %q", ErrBracketMissing, dayType)
	}

	r := Result{DayType: dayType, Bracket: bracket, Status: StatusUnknown}
	if sales <= 0 {
		return r, nil
	}

	rate := laborCost / sales
	r.LaborRate = types.Some(rate)
	r.DeltaToGood = types.Some(rate - bracket.GoodRate)
	r.DeltaToBad = types.Some(rate - bracket.BadRate)

	switch {
	case rate > bracket.BadRate:
		r.Status = StatusBad
	case rate <= bracket.GoodRate:
		r.Status = StatusGood
	default:
		r.Status = StatusCaution
	}
	return r, nil
}

// ProjectEndOfDay extrapolates the end-of-day labor rate from partial-day
// actuals. Run-rate sales scale salesSoFar by 24/currentHour; at hour zero
// (or no sales yet) the forecast is used instead. laborCost is the actual
// labor cost so far, or the planned full-day cost for pre-open projection.
func (e *Evaluator) ProjectEndOfDay(dayType DayType, salesSoFar, laborCost, forecastSales float64, currentHour int) (Projection, error) {
	const hoursPerDay = 24.0

	base, err := e.Evaluate(dayType, salesSoFar, laborCost)
	if err != nil {
		return Projection{}, err
	}
	p := Projection{Result: base}

	var runRate float64
	switch {
	case currentHour > 0 && salesSoFar > 0:
		runRate = salesSoFar * hoursPerDay / float64(currentHour)
	case forecastSales > 0:
		runRate = forecastSales
		p.UsedForecastSales = true
	default:
		// No sales signal at all; projection stays unavailable.
		return p, nil
	}

	p.RunRateSales = types.Some(runRate)
	p.ProjectedRateEOD = types.Some(laborCost / runRate)

	projected, err := e.Evaluate(dayType, runRate, laborCost)
	if err != nil {
		return Projection{}, err
	}
	p.Status = projected.Status
	p.DeltaToGood = projected.DeltaToGood
	p.DeltaToBad = projected.DeltaToBad
	return p, nil
}
