package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrDuplicateEvent = errors.New("duplicate event")
)
