package trend

import "errors"

// Sentinel kinds for trend policy errors.
var (
	ErrInvalidThresholds = errors.New("invalid trend thresholds")
)
