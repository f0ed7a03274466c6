package scoring

import "fmt"

// Sub-score maxima. The four categories always sum to 100.
const (
	MaxTaskCompletion  = 40
	MaxTimeVariance    = 25
	MaxBreakCompliance = 15
	MaxZeroOvertime    = 20
)

// Policy holds the tunable scoring constants. These are business policy,
// not algorithmic necessity, so they are injected rather than inlined and
// can be versioned and tested independently of the scoring math.
type Policy struct {
	// ToleranceRatio widens a quest's allowed duration beyond its task
	// card's standard minutes before overruns start costing credit.
	ToleranceRatio float64 `koanf:"tolerance_ratio" json:"tolerance_ratio"`

	// LatePenalty is the fixed extra weighting for a quest that blew its
	// deadline without completing (incomplete or cancelled).
	LatePenalty int `koanf:"late_penalty" json:"late_penalty"`

	// MinutesPerBreak is the worked-minute span that earns one expected
	// break, e.g. 240 means one break per four hours on the clock.
	MinutesPerBreak int `koanf:"minutes_per_break" json:"minutes_per_break"`

	// OvertimeMinutesPerPoint converts overtime minutes into lost points.
	OvertimeMinutesPerPoint int `koanf:"overtime_minutes_per_point" json:"overtime_minutes_per_point"`

	// DisplayDeductions caps the TopDeductions view. The full list is
	// always computed for auditability.
	DisplayDeductions int `koanf:"display_deductions" json:"display_deductions"`
}

// DefaultPolicy returns the stock scoring policy.
func DefaultPolicy() Policy {
	return Policy{
		ToleranceRatio:          0.20,
		LatePenalty:             5,
		MinutesPerBreak:         240,
		OvertimeMinutesPerPoint: 5,
		DisplayDeductions:       3,
	}
}

// Validate checks the policy for impossible values.
func (p Policy) Validate() error {
	switch {
	case p.ToleranceRatio < 0:
		return fmt.Errorf("%w: tolerance_ratio %.2f", ErrInvalidPolicy, p.ToleranceRatio)
	case p.LatePenalty < 0:
		return fmt.Errorf("%w: late_penalty %d", ErrInvalidPolicy, p.LatePenalty)
	case p.MinutesPerBreak <= 0:
		return fmt.Errorf("%w: minutes_per_break %d", ErrInvalidPolicy, p.MinutesPerBreak)
	case p.OvertimeMinutesPerPoint <= 0:
		return fmt.Errorf("%w: overtime_minutes_per_point %d", ErrInvalidPolicy, p.OvertimeMinutesPerPoint)
	case p.DisplayDeductions <= 0:
		return fmt.Errorf("%w: display_deductions %d", ErrInvalidPolicy, p.DisplayDeductions)
	}
	return nil
}
