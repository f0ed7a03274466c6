// Package types contains common types shared by the projection engines.
package types

import (
	"encoding/json"
	"math"
)

// Metric wraps a derived value that may be unavailable. Insufficient data
// and degenerate arithmetic (division by zero sales, empty averages) must
// surface as an absent value, never as a misleading zero.
type Metric[T any] struct {
	value     T
	available bool
}

// Some returns an available metric holding v.
func Some[T any](v T) Metric[T] {
	return Metric[T]{value: v, available: true}
}

// None returns an unavailable metric.
func None[T any]() Metric[T] {
	return Metric[T]{}
}

// Available reports whether the metric holds a value.
func (m Metric[T]) Available() bool { return m.available }

// Value returns the held value and whether it is available.
func (m Metric[T]) Value() (T, bool) { return m.value, m.available }

// Or returns the held value, or fallback when unavailable.
func (m Metric[T]) Or(fallback T) T {
	if m.available {
		return m.value
	}
	return fallback
}

// MarshalJSON renders the value, or null when unavailable, so UI clients
// can render "--" without a separate presence flag.
func (m Metric[T]) MarshalJSON() ([]byte, error) {
	if !m.available {
		return []byte("null"), nil
	}
	return json.Marshal(m.value) //nolint:wrapcheck // thin passthrough
}

// UnmarshalJSON treats JSON null as unavailable.
func (m *Metric[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err //nolint:wrapcheck // thin passthrough
	}
	*m = Metric[T]{value: v, available: true}
	return nil
}

// TimeBand is a coarse daypart partition used to filter event snapshots.
type TimeBand string

// Time band values.
const (
	BandAll    TimeBand = "all"
	BandLunch  TimeBand = "lunch"
	BandIdle   TimeBand = "idle"
	BandDinner TimeBand = "dinner"
)

// Daypart hour boundaries (store-local hours).
const (
	lunchStartHour  = 11
	lunchEndHour    = 14
	dinnerStartHour = 17
	dinnerEndHour   = 21
)

// BandOfHour maps a store-local hour to its daypart.
func BandOfHour(hour int) TimeBand {
	switch {
	case hour >= lunchStartHour && hour < lunchEndHour:
		return BandLunch
	case hour >= dinnerStartHour && hour < dinnerEndHour:
		return BandDinner
	default:
		return BandIdle
	}
}

// Contains reports whether events from band b should be included when
// filtering by the receiver band.
func (t TimeBand) Contains(b TimeBand) bool {
	return t == BandAll || t == "" || t == b
}

// Grade is the letter grade derived from a total score.
type Grade string

// Grade values, best to worst.
const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Grade cut points. Stars follow ceil(total/20), so the cuts sit on
// multiples of ten to keep both displays consistent.
const (
	gradeCutS = 90
	gradeCutA = 80
	gradeCutB = 70
	gradeCutC = 60
)

// GradeOf maps a 0-100 total to its letter grade.
func GradeOf(total int) Grade {
	switch {
	case total >= gradeCutS:
		return GradeS
	case total >= gradeCutA:
		return GradeA
	case total >= gradeCutB:
		return GradeB
	case total >= gradeCutC:
		return GradeC
	default:
		return GradeD
	}
}

// StarsOf maps a 0-100 total to a 0-5 star display rating.
func StarsOf(total int) int {
	const pointsPerStar = 20
	return int(math.Ceil(float64(total) / pointsPerStar))
}
