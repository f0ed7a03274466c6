package awards

import "errors"

// Sentinel kinds for awards errors.
var (
	ErrNilScorer         = errors.New("awards engine requires a scorer")
	ErrComparatorMissing = errors.New("award comparator missing")
)
