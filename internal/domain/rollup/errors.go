package rollup

import "errors"

// Sentinel kinds for rollup errors.
var (
	ErrNilScorer    = errors.New("rollup requires a scorer")
	ErrInvalidRange = errors.New("invalid date range")
)
