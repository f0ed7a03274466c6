// Package repository defines the event log store interface and errors.
package repository

import (
	"context"

	"github.com/shinoda11/opsboard/internal/domain/model"
	"github.com/shinoda11/opsboard/internal/domain/types"
)

// Store owns the append-only event log and the reference-data snapshot
// the projection engines read. Appends arrive from the ingest workers;
// reads hand out consistent copies, so engines stay pure.
type Store interface {
	// Append adds one event to the log. The event must carry exactly the
	// payload matching its kind.
	Append(ctx context.Context, e model.Event) error

	// SnapshotFor returns a consistent snapshot of one store's events,
	// optionally bounded to an inclusive business-date range (empty
	// strings disable a bound) and a sales time band.
	SnapshotFor(ctx context.Context, storeID, from, to string, band types.TimeBand) (*model.Snapshot, error)

	// SetReference replaces the reference entities (staff, task cards).
	SetReference(ctx context.Context, staff []model.Staff, cards []model.TaskCard)

	// Count returns the total number of events in the log.
	Count(ctx context.Context) int

	// Stores lists the store IDs present in the log, sorted.
	Stores(ctx context.Context) []string
}
