package repository

import "errors"

// Sentinel kinds for event log errors.
var (
	ErrInvalidEvent    = errors.New("invalid event")
	ErrStoreIDRequired = errors.New("store id required")
)
